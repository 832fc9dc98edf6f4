package repo

import (
	"context"
	"database/sql"
	"strings"
)

const (
	RoleAdmin       = "admin"
	RoleParticipant = "participant"
)

// Roles es la allow-list de acceso: un correo sin fila en user_roles no puede
// entrar al sistema.
type Roles struct{ db *sql.DB }

func NewRoles(db *sql.DB) *Roles { return &Roles{db: db} }

// Lookup retorna el rol de un correo y si está en la allow-list.
func (r *Roles) Lookup(ctx context.Context, email string) (role string, found bool, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT role FROM user_roles WHERE email = $1`,
		strings.ToLower(email)).Scan(&role)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if role != RoleAdmin {
		role = RoleParticipant
	}
	return role, true, nil
}

// EnsureParticipant agrega un correo a la allow-list como participante.
// DO NOTHING: no degrada a un admin existente.
func (r *Roles) EnsureParticipant(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_roles (email, role)
		VALUES ($1, 'participant')
		ON CONFLICT (email) DO NOTHING`,
		strings.ToLower(email))
	return err
}

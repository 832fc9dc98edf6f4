package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrNotRegistered = errors.New("participant not registered")

// Participants implementa la persistencia de participantes en Postgres.
type Participants struct{ db *sql.DB }

func NewParticipants(db *sql.DB) *Participants { return &Participants{db: db} }

// Upsert crea o actualiza un participante por email (clave única).
func (r *Participants) Upsert(ctx context.Context, email, name string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO participants (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name`,
		uuid.NewString(), strings.ToLower(email), name)
	return err
}

// List retorna todos los participantes ordenados por nombre.
func (r *Participants) List(ctx context.Context) ([]Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email
		FROM participants
		ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindByEmail resuelve un participante por su correo (en minúsculas).
func (r *Participants) FindByEmail(ctx context.Context, email string) (*Participant, error) {
	var p Participant
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email
		FROM participants
		WHERE email = $1`, strings.ToLower(email)).Scan(&p.ID, &p.Name, &p.Email)
	if err == sql.ErrNoRows {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

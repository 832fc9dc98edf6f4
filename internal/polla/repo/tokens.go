package repo

import (
	"context"
	"database/sql"
)

// Tokens valida tokens de acceso emitidos fuera de banda.
type Tokens struct{ db *sql.DB }

func NewTokens(db *sql.DB) *Tokens { return &Tokens{db: db} }

// IsValid reporta si el token existe, está activo y no ha expirado.
func (r *Tokens) IsValid(ctx context.Context, token string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT is_active AND expires_at >= NOW()
		FROM access_tokens
		WHERE token = $1`, token).Scan(&ok)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

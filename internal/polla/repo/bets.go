package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Bets implementa la persistencia de apuestas en Postgres.
type Bets struct{ db *sql.DB }

func NewBets(db *sql.DB) *Bets { return &Bets{db: db} }

// Upsert inserta o reemplaza la apuesta de un participante en una ventana.
// La constraint única (window_id, participant_id) hace la escritura
// condicional sin leer antes.
func (r *Bets) Upsert(ctx context.Context, b *Bet) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO bets (id, window_id, participant_id, bet_link, bet_image_url, odds, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (window_id, participant_id) DO UPDATE SET
		  bet_link      = EXCLUDED.bet_link,
		  bet_image_url = EXCLUDED.bet_image_url,
		  odds          = EXCLUDED.odds,
		  status        = EXCLUDED.status,
		  updated_at    = NOW()
		RETURNING id`,
		uuid.NewString(), b.WindowID, b.ParticipantID, b.BetLink, b.BetImageURL, b.Odds, b.Status,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListByWindow retorna todas las apuestas de una ventana.
func (r *Bets) ListByWindow(ctx context.Context, windowID string) ([]Bet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, window_id, participant_id, bet_link, bet_image_url, odds, status, notes
		FROM bets
		WHERE window_id = $1`, windowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.WindowID, &b.ParticipantID, &b.BetLink, &b.BetImageURL, &b.Odds, &b.Status, &b.Notes); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BackfillNoShow crea apuestas no_show para los participantes sin fila en la
// ventana. DO NOTHING: una apuesta existente jamás se pisa al cierre.
func (r *Bets) BackfillNoShow(ctx context.Context, windowID string, participantIDs []string) (int, error) {
	created := 0
	for _, pid := range participantIDs {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO bets (id, window_id, participant_id, status)
			VALUES ($1, $2, $3, 'no_show')
			ON CONFLICT (window_id, participant_id) DO NOTHING`,
			uuid.NewString(), windowID, pid)
		if err != nil {
			return created, err
		}
		if n, err := res.RowsAffected(); err == nil {
			created += int(n)
		}
	}
	return created, nil
}

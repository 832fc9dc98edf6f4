package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Tickets guarda las cartillas de resultados subidas por el admin.
type Tickets struct{ db *sql.DB }

func NewTickets(db *sql.DB) *Tickets { return &Tickets{db: db} }

// Insert registra la cartilla que finaliza una ventana.
func (r *Tickets) Insert(ctx context.Context, windowID, imagePath string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_tickets (id, window_id, image_url)
		VALUES ($1, $2, $3)`,
		uuid.NewString(), windowID, imagePath)
	return err
}

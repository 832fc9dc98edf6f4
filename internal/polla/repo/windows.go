package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNoOpenWindow     = errors.New("no open window")
	ErrWindowNotFound   = errors.New("window not found")
	ErrWindowIsFinished = errors.New("window already finished")
)

// Windows implementa la persistencia de ventanas en Postgres.
type Windows struct{ db *sql.DB }

func NewWindows(db *sql.DB) *Windows { return &Windows{db: db} }

const windowCols = `
	id,
	to_char(start_date, 'YYYY-MM-DD'),
	to_char(end_date, 'YYYY-MM-DD'),
	is_active, status, min_odds, max_odds,
	to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SSZ')`

func scanWindow(row interface{ Scan(...any) error }) (*Window, error) {
	var w Window
	err := row.Scan(&w.ID, &w.StartDate, &w.EndDate, &w.IsActive, &w.Status, &w.MinOdds, &w.MaxOdds, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Open desactiva cualquier ventana activa e inserta la nueva en una sola
// transacción, así dos aperturas concurrentes no dejan dos filas activas.
func (r *Windows) Open(ctx context.Context, start, end string, minOdds, maxOdds *float64) (*Window, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`UPDATE event_windows SET is_active = false WHERE is_active = true`); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO event_windows (id, start_date, end_date, is_active, status, min_odds, max_odds)
		VALUES ($1, $2, $3, true, 'open', $4, $5)`,
		id, start, end, minOdds, maxOdds); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// CurrentOpen retorna la ventana activa más reciente.
func (r *Windows) CurrentOpen(ctx context.Context) (*Window, error) {
	w, err := scanWindow(r.db.QueryRowContext(ctx, `
		SELECT `+windowCols+`
		FROM event_windows
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, ErrNoOpenWindow
	}
	return w, err
}

// Latest retorna la ventana más reciente sin importar su estado.
func (r *Windows) Latest(ctx context.Context) (*Window, error) {
	w, err := scanWindow(r.db.QueryRowContext(ctx, `
		SELECT `+windowCols+`
		FROM event_windows
		ORDER BY created_at DESC
		LIMIT 1`))
	if err == sql.ErrNoRows {
		return nil, ErrNoOpenWindow
	}
	return w, err
}

func (r *Windows) Get(ctx context.Context, id string) (*Window, error) {
	w, err := scanWindow(r.db.QueryRowContext(ctx, `
		SELECT `+windowCols+`
		FROM event_windows
		WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrWindowNotFound
	}
	return w, err
}

// List retorna todas las ventanas, más recientes primero. Con statuses no
// vacío filtra por esos estados (vista de no-admins).
func (r *Windows) List(ctx context.Context, statuses []string) ([]Window, error) {
	q := `
		SELECT ` + windowCols + `
		FROM event_windows`
	args := []any{}
	if len(statuses) > 0 {
		q += ` WHERE status = ANY($1)`
		args = append(args, pq.Array(statuses))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Window
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// Abort desactiva una ventana marcándola aborted. Rechaza ventanas ya
// finalizadas: finished es terminal.
func (r *Windows) Abort(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM event_windows WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrWindowNotFound
	}
	if err != nil {
		return err
	}
	if status == WindowFinished {
		return ErrWindowIsFinished
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE event_windows SET is_active = false, status = 'aborted' WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Finish marca una ventana como finalizada e inactiva.
func (r *Windows) Finish(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE event_windows SET is_active = false, status = 'finished' WHERE id = $1`, id)
	return err
}

package cache

import (
	"context"
	"database/sql"
	"time"
)

// Entry es una fila del cache de cuotas: payload crudo del proveedor más el
// momento en que se trajo. Nunca se evicta explícitamente, solo se sobreescribe.
type Entry struct {
	Payload   []byte
	FetchedAt time.Time
}

// Store implementa el cache de cuotas sobre la tabla odds_cache,
// con una fila por deporte.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

// Get retorna la entrada para un deporte, o nil si no existe.
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	const q = `SELECT payload, fetched_at FROM odds_cache WHERE cache_key = $1`

	var e Entry
	err := s.DB.QueryRowContext(ctx, q, key).Scan(&e.Payload, &e.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Put sobreescribe la entrada de un deporte con el payload recién traído.
func (s *Store) Put(ctx context.Context, key string, payload []byte, fetchedAt time.Time) error {
	// la columna es jsonb; el cast evita que el driver mande bytea
	const q = `
		INSERT INTO odds_cache (cache_key, payload, fetched_at)
		VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (cache_key) DO UPDATE SET
		  payload    = EXCLUDED.payload,
		  fetched_at = EXCLUDED.fetched_at
	`
	_, err := s.DB.ExecContext(ctx, q, key, string(payload), fetchedAt)
	return err
}

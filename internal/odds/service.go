package odds

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/odds/cache"
	"github.com/Luisbassos/luz-verde/internal/odds/provider"
)

// CacheStore es el cache de payloads crudos, una entrada por deporte.
type CacheStore interface {
	Get(ctx context.Context, key string) (*cache.Entry, error)
	Put(ctx context.Context, key string, payload []byte, fetchedAt time.Time) error
}

// Provider trae el payload crudo del proveedor externo.
type Provider interface {
	FetchOdds(ctx context.Context, sport string) ([]byte, error)
}

// Result es la respuesta del pipeline de cuotas.
type Result struct {
	Sport     string
	Cached    bool // true si salió del cache sin ir al proveedor
	FetchedAt time.Time
	Odds      []EventOdds
	RawEvents []provider.Event // eventos filtrados por fecha, sin agregar
}

// Service implementa el pipeline cache -> fetch -> filtro -> agregación.
// Sin locking por clave: dos lecturas stale concurrentes pueden ir ambas al
// proveedor; la sobreescritura del cache es idempotente.
type Service struct {
	Cache    CacheStore
	Provider Provider
	TTL      time.Duration
	Log      *zap.Logger
	Now      func() time.Time

	OnCacheHit      func() // métricas
	OnCacheMiss     func() // métricas
	OnUpstreamError func() // métricas
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// GetOdds resuelve las cuotas de un deporte para un rango de fechas y una
// banda de precios. Si el cache tiene menos de TTL no se llama al proveedor.
func (s *Service) GetOdds(ctx context.Context, sport string, start, end time.Time, min, max float64) (*Result, error) {
	now := s.now()

	entry, err := s.Cache.Get(ctx, sport)
	if err != nil {
		// cache caído no bloquea la consulta, se trata como miss
		s.Log.Warn("odds cache read failed", zap.String("sport", sport), zap.Error(err))
		entry = nil
	}

	if entry != nil && now.Sub(entry.FetchedAt) < s.TTL {
		if s.OnCacheHit != nil {
			s.OnCacheHit()
		}
		return s.assemble(sport, entry.Payload, entry.FetchedAt, true, start, end, min, max)
	}

	if s.OnCacheMiss != nil {
		s.OnCacheMiss()
	}

	payload, err := s.Provider.FetchOdds(ctx, sport)
	if err != nil {
		if s.OnUpstreamError != nil {
			s.OnUpstreamError()
		}
		return nil, err
	}

	if err := s.Cache.Put(ctx, sport, payload, now); err != nil {
		s.Log.Warn("odds cache write failed", zap.String("sport", sport), zap.Error(err))
	}

	return s.assemble(sport, payload, now, false, start, end, min, max)
}

// assemble aplica filtro por fecha y agregación sobre un payload crudo.
func (s *Service) assemble(sport string, payload []byte, fetchedAt time.Time, cached bool, start, end time.Time, min, max float64) (*Result, error) {
	var events []provider.Event
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, err
	}

	byDate := FilterByDate(events, start, end)
	return &Result{
		Sport:     sport,
		Cached:    cached,
		FetchedAt: fetchedAt,
		Odds:      Aggregate(byDate, min, max),
		RawEvents: byDate,
	}, nil
}

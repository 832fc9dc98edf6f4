package ratelimit

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result indica si el hit fue admitido y, si no, cuántos segundos esperar.
type Result struct {
	Allowed    bool
	RetryAfter int // segundos, solo cuando Allowed es false
}

// Limiter es una ventana deslizante sobre sorted sets de Redis, una clave por
// llamador. Las claves expiran con la ventana, así que no quedan llamadores
// viejos acumulados en memoria del proceso ni en Redis.
type Limiter struct {
	Rdb    *redis.Client
	Limit  int
	Window time.Duration
}

func NewLimiter(rdb *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{Rdb: rdb, Limit: limit, Window: window}
}

// Allow registra un hit para la clave y evalúa el límite. El hit se cuenta
// aunque resulte rechazado.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now()
	k := "ratelimit:" + key
	windowStart := now.Add(-l.Window)

	pipe := l.Rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
	pipe.ZAdd(ctx, k, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	card := pipe.ZCard(ctx, k)
	pipe.Expire(ctx, k, l.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	if card.Val() <= int64(l.Limit) {
		return Result{Allowed: true}, nil
	}

	// Retry-After: cuándo sale de la ventana el hit más antiguo
	retry := int(math.Ceil(l.Window.Seconds()))
	oldest, err := l.Rdb.ZRangeWithScores(ctx, k, 0, 0).Result()
	if err == nil && len(oldest) > 0 {
		expiresAt := int64(oldest[0].Score) + l.Window.Milliseconds()
		secs := math.Ceil(float64(expiresAt-now.UnixMilli()) / 1000)
		if secs > 0 {
			retry = int(secs)
		}
	}
	return Result{Allowed: false, RetryAfter: retry}, nil
}

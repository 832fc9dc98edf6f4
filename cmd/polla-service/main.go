package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/odds"
	oddscache "github.com/Luisbassos/luz-verde/internal/odds/cache"
	"github.com/Luisbassos/luz-verde/internal/odds/provider"
	phttp "github.com/Luisbassos/luz-verde/internal/polla/http"
	"github.com/Luisbassos/luz-verde/internal/polla/producer"
	"github.com/Luisbassos/luz-verde/internal/polla/pubsub"
	"github.com/Luisbassos/luz-verde/internal/polla/repo"
	pws "github.com/Luisbassos/luz-verde/internal/polla/ws"
	"github.com/Luisbassos/luz-verde/internal/ratelimit"
	"github.com/Luisbassos/luz-verde/internal/shared/cache"
	"github.com/Luisbassos/luz-verde/internal/shared/config"
	"github.com/Luisbassos/luz-verde/internal/shared/db"
	"github.com/Luisbassos/luz-verde/internal/shared/kafka"
	"github.com/Luisbassos/luz-verde/internal/shared/logger"
	"github.com/Luisbassos/luz-verde/internal/shared/metrics"
	"github.com/Luisbassos/luz-verde/internal/shared/storage"
)

var (
	betsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polla_bets_submitted_total",
		Help: "Apuestas registradas o corregidas.",
	})
	windowsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polla_windows_opened_total",
		Help: "Ventanas abiertas.",
	})
	windowsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polla_windows_finished_total",
		Help: "Ventanas finalizadas con cartilla.",
	})
	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polla_validate_token_rate_limited_total",
		Help: "Validaciones de token rechazadas por rate limit.",
	})
	oddsCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polla_odds_cache_hits_total",
		Help: "Lecturas de cuotas servidas del cache.",
	})
	oddsCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polla_odds_cache_misses_total",
		Help: "Lecturas de cuotas que fueron al proveedor.",
	})
	oddsUpstreamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polla_odds_upstream_errors_total",
		Help: "Errores del proveedor externo de cuotas.",
	})
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "polla-service")
	}
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis (rate limit + pub/sub del WS)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers para la auditoría
	betWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSubmitted)
	defer betWriter.Close()
	finishWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWindowFinished)
	defer finishWriter.Close()

	// Pipeline de cuotas
	oddsSvc := &odds.Service{
		Cache:           oddscache.NewStore(pg),
		Provider:        provider.NewClient(cfg.OddsAPIURL, cfg.OddsAPIKey),
		TTL:             cfg.OddsCacheTTL,
		Log:             log,
		OnCacheHit:      oddsCacheHits.Inc,
		OnCacheMiss:     oddsCacheMisses.Inc,
		OnUpstreamError: oddsUpstreamErrors.Inc,
	}

	// WS: hub alimentado por Redis pub/sub
	hub := pws.NewHub(func(*http.Request) bool { return true })
	pws.StartRedisSubscriber(context.Background(), rdb, hub)

	srv := phttp.NewServer(phttp.Deps{
		Log:          log,
		Windows:      repo.NewWindows(pg),
		Bets:         repo.NewBets(pg),
		Participants: repo.NewParticipants(pg),
		Roles:        repo.NewRoles(pg),
		Tokens:       repo.NewTokens(pg),
		Tickets:      repo.NewTickets(pg),
		Storage:      storage.New(cfg.StorageURL, cfg.StorageServiceKey, cfg.StorageBucket),
		Odds:         oddsSvc,
		Limiter:      ratelimit.NewLimiter(rdb, cfg.RateLimitPerMin, time.Minute),
		Publisher:    producer.NewKafkaPublisher(betWriter, finishWriter),
		Broadcaster:  pubsub.NewRedisBroadcaster(rdb),
		WSHandler:    hub.HandleWS,
		Hooks: phttp.Hooks{
			OnBetSubmitted:   betsSubmitted.Inc,
			OnWindowOpened:   windowsOpened.Inc,
			OnWindowFinished: windowsFinished.Inc,
			OnRateLimited:    rateLimited.Inc,
		},
	})

	// metrics/health aparte del puerto público
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: srv.Router(),
	}
	log.Info("polla-service listening",
		zap.String("addr", apiSrv.Addr),
		zap.String("metrics_port", cfg.MetricsPort))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}

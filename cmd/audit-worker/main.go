package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Luisbassos/luz-verde/internal/shared/config"
	"github.com/Luisbassos/luz-verde/internal/shared/db"
	"github.com/Luisbassos/luz-verde/internal/shared/kafka"
	"github.com/Luisbassos/luz-verde/internal/shared/logger"
	"github.com/Luisbassos/luz-verde/internal/shared/metrics"
	ev "github.com/Luisbassos/luz-verde/pkg/contracts/events"
)

const maxAttempts = 3

var (
	auditRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polla_audit_rows_total",
		Help: "Filas de auditoría insertadas por tópico.",
	}, []string{"topic"})
	auditDLQ = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polla_audit_dlq_total",
		Help: "Mensajes enviados a la DLQ tras agotar reintentos.",
	})
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "audit-worker")
	}
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	betReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSubmitted, "audit-worker")
	defer betReader.Close()
	finishReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicWindowFinished, "audit-worker")
	defer finishReader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicBetSubmittedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSubmittedDLQ)
		defer dlqWriter.Close()
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("audit-worker started",
		zap.String("bet_topic", cfg.TopicBetSubmitted),
		zap.String("finish_topic", cfg.TopicWindowFinished))

	ctx := context.Background()
	go consumeLoop(ctx, log, betReader, dlqWriter, cfg.TopicBetSubmitted, func(value []byte) error {
		var e ev.BetSubmitted
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		return insertBetAudit(ctx, pg, &e)
	})
	consumeLoop(ctx, log, finishReader, dlqWriter, cfg.TopicWindowFinished, func(value []byte) error {
		var e ev.WindowFinished
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		return insertWindowAudit(ctx, pg, &e)
	})
}

// consumeLoop lee un tópico y aplica el handler con reintentos. Un mensaje
// que falla maxAttempts veces se manda a la DLQ y se sigue con el próximo.
func consumeLoop(ctx context.Context, log *zap.Logger, reader *kafkago.Reader, dlq *kafkago.Writer, topic string, handle func(value []byte) error) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.String("topic", topic), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var lastErr error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if lastErr = handle(msg.Value); lastErr == nil {
				auditRows.WithLabelValues(topic).Inc()
				break
			}
			log.Warn("audit insert failed",
				zap.String("topic", topic),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
		if lastErr == nil {
			continue
		}

		log.Error("audit message poisoned", zap.String("topic", topic), zap.Error(lastErr))
		if dlq != nil {
			if err := dlq.WriteMessages(ctx, kafkago.Message{Key: msg.Key, Value: msg.Value}); err != nil {
				log.Error("dlq write failed", zap.String("topic", topic), zap.Error(err))
				continue
			}
			auditDLQ.Inc()
		}
	}
}

func insertBetAudit(ctx context.Context, pg *sql.DB, e *ev.BetSubmitted) error {
	payload, _ := json.Marshal(e)
	_, err := pg.ExecContext(ctx, `
		INSERT INTO audit_log (id, entity, entity_id, action, actor, payload)
		VALUES ($1, 'bet', $2, 'submitted', $3, $4)`,
		uuid.NewString(), e.BetID, e.ActorEmail, string(payload))
	return err
}

func insertWindowAudit(ctx context.Context, pg *sql.DB, e *ev.WindowFinished) error {
	payload, _ := json.Marshal(e)
	_, err := pg.ExecContext(ctx, `
		INSERT INTO audit_log (id, entity, entity_id, action, actor, payload)
		VALUES ($1, 'window', $2, 'finished', $3, $4)`,
		uuid.NewString(), e.WindowID, e.ActorEmail, string(payload))
	return err
}

package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Luisbassos/luz-verde/pkg/contracts/events"
)

// KafkaPublisher publica los eventos de auditoría del servicio.
type KafkaPublisher struct {
	BetWriter    *kafka.Writer
	FinishWriter *kafka.Writer
}

func NewKafkaPublisher(betWriter, finishWriter *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{BetWriter: betWriter, FinishWriter: finishWriter}
}

func (p *KafkaPublisher) PublishBetSubmitted(ctx context.Context, e events.BetSubmitted) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.BetWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.WindowID),
		Value: b,
	})
}

func (p *KafkaPublisher) PublishWindowFinished(ctx context.Context, e events.WindowFinished) error {
	e.Ts = time.Now().UTC()
	b, _ := json.Marshal(e)
	return p.FinishWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.WindowID),
		Value: b,
	})
}

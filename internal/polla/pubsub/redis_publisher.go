package pubsub

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const ChannelBetUpdates = "polla_bet_updates"

type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}

// Payload estándar para el WS de la polla
type WSUpdate struct {
	WindowID string      `json:"windowId"`
	Payload  interface{} `json:"payload"`
}

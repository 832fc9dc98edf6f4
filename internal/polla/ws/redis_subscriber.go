package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// PubSubChannel define el canal Redis Pub/Sub usado para el broadcast de apuestas
const PubSubChannel = "polla_bet_updates"

// StartRedisSubscriber lanza una goroutine que escucha el canal Redis Pub/Sub
// y reenvía las actualizaciones recibidas a los clientes WebSocket conectados via Hub
func StartRedisSubscriber(ctx context.Context, r *redis.Client, hub *Hub) {
	sub := r.Subscribe(ctx, PubSubChannel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var upd BetUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
					log.Printf("ws subscriber unmarshal error: %v", err)
					continue
				}
				hub.Broadcast(upd)
			}
		}
	}()
}

package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	wsPkg "github.com/GundamTCG/EloBot/pkg/websocket"
)

// NotificationWorker forwards lobby render events from redis pub/sub to
// the clients watching each channel. Running fan-out through redis keeps
// renders working when the match service and the sockets live in
// different processes.
type NotificationWorker struct {
	rdb *redis.Client
	hub *wsPkg.Hub
}

func NewNotificationWorker(rdb *redis.Client, hub *wsPkg.Hub) *NotificationWorker {
	return &NotificationWorker{rdb: rdb, hub: hub}
}

func (w *NotificationWorker) Run(ctx context.Context) {
	sub := w.rdb.Subscribe(ctx, RenderChannel)
	defer sub.Close()

	log.Printf("Notification worker listening on %s", RenderChannel)
	for msg := range sub.Channel() {
		var ev renderEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Printf("Dropping malformed render event: %v", err)
			continue
		}
		if ev.ChannelID == "" {
			continue
		}
		w.hub.Broadcast(ev.ChannelID, []byte(msg.Payload))
	}
}

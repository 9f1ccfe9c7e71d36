package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"ianua/api/internal/catalog"
)

// Channel is the pub/sub channel relaying save events across API instances.
const Channel = "ianua:db_updated"

type relayMessage struct {
	Origin   string `json:"origin"`
	Revision int64  `json:"revision"`
}

// Relay forwards save notifications through Redis so that every instance can
// rebroadcast to its own websocket clients. Messages carry only the revision;
// each instance reloads the document from its own store before broadcasting.
type Relay struct {
	client *redis.Client
	origin string
}

func NewRelay(redisURL string) (*Relay, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRelayWithClient(client), nil
}

func NewRelayWithClient(client *redis.Client) *Relay {
	return &Relay{client: client, origin: catalog.NewID("api")}
}

// Publish announces a completed save to the other instances.
func (r *Relay) Publish(ctx context.Context, revision int64) error {
	payload, err := json.Marshal(relayMessage{Origin: r.origin, Revision: revision})
	if err != nil {
		return fmt.Errorf("encode relay message: %w", err)
	}
	if err := r.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish relay message: %w", err)
	}
	return nil
}

// Listen consumes relay messages until ctx is canceled, invoking onUpdate for
// every save announced by another instance. Own messages are skipped.
func (r *Relay) Listen(ctx context.Context, onUpdate func(revision int64)) {
	sub := r.client.Subscribe(ctx, Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var m relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				log.Printf("push: bad relay message: %v", err)
				continue
			}
			if m.Origin == r.origin {
				continue
			}
			onUpdate(m.Revision)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Relay) Close() error {
	return r.client.Close()
}

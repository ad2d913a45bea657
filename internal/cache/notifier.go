package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/store"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "kombio:game:"

func gameChannel(gameID uuid.UUID) string {
	return channelPrefix + gameID.String()
}

// Notifier carries record changes between server processes over Redis pub/sub.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

var _ store.Notifier = (*Notifier)(nil)

func (n *Notifier) Publish(ctx context.Context, c store.Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := n.rdb.Publish(ctx, gameChannel(c.GameID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish change for game %s: %w", c.GameID, err)
	}
	return nil
}

// Subscribe returns once the subscription is confirmed, so no change published
// afterwards is missed.
func (n *Notifier) Subscribe(ctx context.Context, gameID uuid.UUID) (<-chan store.Change, error) {
	sub := n.rdb.Subscribe(ctx, gameChannel(gameID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to game %s: %w", gameID, err)
	}

	out := make(chan store.Change, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c store.Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					continue
				}
				select {
				case out <- c:
				default:
				}
			}
		}
	}()
	return out, nil
}

package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer bounds how far a subscriber may lag before changes are dropped.
const subscriberBuffer = 16

// MemoryNotifier fans changes out to subscribers in the same process.
type MemoryNotifier struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan Change]struct{}
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: make(map[uuid.UUID]map[chan Change]struct{})}
}

// Publish never blocks; a full subscriber misses the change and relies on its
// periodic poll.
func (n *MemoryNotifier) Publish(_ context.Context, c Change) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[c.GameID] {
		select {
		case ch <- c:
		default:
		}
	}
	return nil
}

func (n *MemoryNotifier) Subscribe(ctx context.Context, gameID uuid.UUID) (<-chan Change, error) {
	ch := make(chan Change, subscriberBuffer)
	n.mu.Lock()
	if n.subs[gameID] == nil {
		n.subs[gameID] = make(map[chan Change]struct{})
	}
	n.subs[gameID][ch] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs[gameID], ch)
		if len(n.subs[gameID]) == 0 {
			delete(n.subs, gameID)
		}
		n.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

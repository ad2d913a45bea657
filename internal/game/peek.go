package game

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BottomSlots are the hand indices a player may peek at when a round starts.
var BottomSlots = []int{2, 3}

type peekKey struct {
	Game   uuid.UUID
	Player uuid.UUID
	Round  int
}

type peekSession struct {
	deadline time.Time
	revealed []int
	closed   bool
}

// PeekTracker holds the once-per-round bottom-card peek for each player. It
// is ephemeral and never part of the persisted game. The first reveal opens
// a window of the configured length; when it closes the revealed slots are
// hidden and that player cannot peek again this round.
type PeekTracker struct {
	mu       sync.Mutex
	window   time.Duration
	now      func() time.Time
	sessions map[peekKey]*peekSession
}

// NewPeekTracker returns a tracker with the given window. A nil now uses time.Now.
func NewPeekTracker(window time.Duration, now func() time.Time) *PeekTracker {
	if now == nil {
		now = time.Now
	}
	return &PeekTracker{window: window, now: now, sessions: make(map[peekKey]*peekSession)}
}

// session returns the session for k, closing it if its window has passed.
func (t *PeekTracker) session(k peekKey) *peekSession {
	ps, ok := t.sessions[k]
	if !ok {
		return nil
	}
	if !ps.closed && t.now().After(ps.deadline) {
		ps.closed = true
		ps.revealed = nil
	}
	return ps
}

// Reveal shows slot to player. The first call of the round starts the window.
func (t *PeekTracker) Reveal(gameID, player uuid.UUID, round, slot int) ([]int, error) {
	return t.RevealWithin(gameID, player, round, slot, t.window)
}

// RevealWithin is Reveal with a per-game window length. The window only
// applies when this call opens the session.
func (t *PeekTracker) RevealWithin(gameID, player uuid.UUID, round, slot int, window time.Duration) ([]int, error) {
	if !slices.Contains(BottomSlots, slot) {
		return nil, illegal("peek", "only bottom cards can be peeked")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	k := peekKey{gameID, player, round}
	ps := t.session(k)
	if ps == nil {
		t.prune(gameID, round)
		ps = &peekSession{deadline: t.now().Add(window)}
		t.sessions[k] = ps
	}
	if ps.closed {
		return nil, illegal("peek", "peek window closed for this round")
	}
	if !slices.Contains(ps.revealed, slot) {
		ps.revealed = append(ps.revealed, slot)
		slices.Sort(ps.revealed)
	}
	return slices.Clone(ps.revealed), nil
}

// prune drops the game's sessions from rounds before round. Callers hold t.mu.
func (t *PeekTracker) prune(gameID uuid.UUID, round int) {
	for k := range t.sessions {
		if k.Game == gameID && k.Round < round {
			delete(t.sessions, k)
		}
	}
}

// Len is the number of sessions held.
func (t *PeekTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Revealed lists the slots player currently sees.
func (t *PeekTracker) Revealed(gameID, player uuid.UUID, round int) []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	ps := t.session(peekKey{gameID, player, round})
	if ps == nil || ps.closed {
		return nil
	}
	return slices.Clone(ps.revealed)
}

// Allowed reports whether player can still peek this round.
func (t *PeekTracker) Allowed(gameID, player uuid.UUID, round int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ps := t.session(peekKey{gameID, player, round})
	return ps == nil || !ps.closed
}

// Remaining is the time left in an open window, or zero.
func (t *PeekTracker) Remaining(gameID, player uuid.UUID, round int) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	ps := t.session(peekKey{gameID, player, round})
	if ps == nil || ps.closed {
		return 0
	}
	return ps.deadline.Sub(t.now())
}

// Close ends the window early, which is the same as letting it expire.
func (t *PeekTracker) Close(gameID, player uuid.UUID, round int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := peekKey{gameID, player, round}
	t.sessions[k] = &peekSession{closed: true}
}

// Forget drops every session for a game.
func (t *PeekTracker) Forget(gameID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.sessions {
		if k.Game == gameID {
			delete(t.sessions, k)
		}
	}
}

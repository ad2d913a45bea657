package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/stretchr/testify/require"
)

func cards(values ...int) []models.Card {
	out := make([]models.Card, len(values))
	for i, v := range values {
		out[i] = models.Card{ID: uuid.New(), Value: v}
	}
	return out
}

func newIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

// setupTestGame starts a real game through the lobby with numPlayers players.
func setupTestGame(t *testing.T, numPlayers, maxRounds int) (*Engine, *State, []uuid.UUID) {
	t.Helper()
	e := NewEngine(42)
	ids := newIDs(numPlayers)
	s := NewGame(ids[0], e.GenerateCode(), maxRounds, models.DefaultHouseRules(), time.Now())
	var err error
	for _, id := range ids[1:] {
		s, _, err = e.Join(s, id)
		require.NoError(t, err)
	}
	s, _, err = e.Start(s, ids[0])
	require.NoError(t, err)
	return e, s, ids
}

// riggedGame builds a game in play with known hands and deck. The last deck
// value is drawn first.
func riggedGame(t *testing.T, hands [][]int, deck []int) (*Engine, *State, []uuid.UUID) {
	t.Helper()
	ids := newIDs(len(hands))
	g := models.Game{
		ID:                  uuid.New(),
		Code:                "ABC123",
		HostID:              ids[0],
		Status:              models.StatusPlaying,
		CurrentRound:        1,
		MaxRounds:           3,
		CurrentTurnPlayerID: ids[0],
		Deck:                cards(deck...),
		DiscardPile:         []models.Card{},
		Rules:               models.DefaultHouseRules(),
	}
	s := &State{Game: g}
	for i, h := range hands {
		s.Players = append(s.Players, models.Player{
			GameID:        g.ID,
			UserID:        ids[i],
			Order:         i,
			Hand:          cards(h...),
			ViewedCardIDs: []uuid.UUID{},
		})
	}
	return NewEngine(7), s, ids
}

// withDiscard puts a face-up card of value on the discard pile.
func withDiscard(s *State, value int) models.Card {
	c := cards(value)[0]
	s.discard(c)
	return c
}

func requireUniqueCards(t *testing.T, s *State, want int) {
	t.Helper()
	ids := s.CardIDs()
	require.Len(t, ids, want, "cards on table")
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		require.False(t, seen[id], "duplicate card %s", id)
		seen[id] = true
	}
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

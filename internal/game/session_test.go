package game

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLobby(t *testing.T, n int) (*Engine, *State, []uuid.UUID) {
	t.Helper()
	e := NewEngine(11)
	ids := newIDs(n)
	s := NewGame(ids[0], "K0MB10", 5, models.DefaultHouseRules(), time.Now())
	for _, id := range ids[1:] {
		var err error
		s, _, err = e.Join(s, id)
		require.NoError(t, err)
	}
	return e, s, ids
}

func TestNewGame(t *testing.T) {
	host := uuid.New()
	s := NewGame(host, "ABCDEF", 0, models.DefaultHouseRules(), time.Now())
	assert.Equal(t, models.StatusLobby, s.Game.Status)
	assert.Equal(t, host, s.Game.HostID)
	assert.Equal(t, 1, s.Game.MaxRounds, "max rounds is clamped")
	require.Len(t, s.Players, 1)
	assert.Equal(t, 0, s.Players[0].Order)
	assert.Equal(t, PhaseLobby, s.Phase())
}

func TestJoin(t *testing.T) {
	e, s, ids := newLobby(t, 3)
	require.Len(t, s.Players, 3)
	for i, p := range s.Players {
		assert.Equal(t, ids[i], p.UserID)
		assert.Equal(t, i, p.Order)
	}

	again, events, err := e.Join(s, ids[1])
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Len(t, again.Players, 3, "joining twice is a no-op")

	s, _, err = e.Join(s, uuid.New())
	require.NoError(t, err)
	_, _, err = e.Join(s, uuid.New())
	assert.ErrorIs(t, err, ErrGameFull)
}

func TestJoinAfterStart(t *testing.T) {
	e, s, ids := newLobby(t, 2)
	s, _, err := e.Start(s, ids[0])
	require.NoError(t, err)

	_, _, err = e.Join(s, uuid.New())
	assert.True(t, IsIllegal(err))

	// a seated player rejoining is still fine
	_, _, err = e.Join(s, ids[1])
	assert.NoError(t, err)
}

func TestLeaveLobbyPassesHost(t *testing.T) {
	e, s, ids := newLobby(t, 3)

	s, events, err := e.Leave(s, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventPlayerLeft}, eventTypes(events))
	assert.Equal(t, ids[1], s.Game.HostID)
	require.Len(t, s.Players, 2)
	assert.Equal(t, 0, s.Players[0].Order)
	assert.Equal(t, 1, s.Players[1].Order)

	s, _, err = e.Leave(s, ids[2])
	require.NoError(t, err)
	s, events, err = e.Leave(s, ids[1])
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, s.Game.Status)
	assert.Contains(t, eventTypes(events), EventGameEnd)

	_, _, err = e.Leave(s, ids[1])
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestLeaveDuringPlayFinishesGame(t *testing.T) {
	e, s, ids := setupTestGame(t, 3, 3)
	s, events, err := e.Leave(s, ids[2])
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, s.Game.Status)
	assert.Equal(t, uuid.Nil, s.Game.CurrentTurnPlayerID)
	assert.Equal(t, []EventType{EventPlayerLeft, EventGameEnd}, eventTypes(events))
}

func TestLeaveFinishedGameKeepsPlayers(t *testing.T) {
	e, s, ids := setupTestGame(t, 3, 3)
	s, _, err := e.Leave(s, ids[2])
	require.NoError(t, err)
	require.Len(t, s.Players, 2)

	_, _, err = e.Leave(s, ids[1])
	assert.True(t, IsIllegal(err))
	assert.Len(t, s.Players, 2)
	assert.Len(t, Standings(s), 2)
}

func TestSetMaxRounds(t *testing.T) {
	e, s, ids := newLobby(t, 2)

	next, _, err := e.SetMaxRounds(s, ids[0], 0)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Game.MaxRounds)

	next, _, err = e.SetMaxRounds(s, ids[0], 99)
	require.NoError(t, err)
	assert.Equal(t, 10, next.Game.MaxRounds)

	next, _, err = e.SetMaxRounds(s, ids[0], 7)
	require.NoError(t, err)
	assert.Equal(t, 7, next.Game.MaxRounds)

	_, _, err = e.SetMaxRounds(s, ids[1], 3)
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestUpdateRules(t *testing.T) {
	e, s, ids := newLobby(t, 3)

	next, _, err := e.UpdateRules(s, ids[0], map[string]interface{}{
		"penaltyDrawCount":          float64(2),
		"reshuffleDiscardWhenEmpty": true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Game.Rules.PenaltyDrawCount)
	assert.True(t, next.Game.Rules.ReshuffleDiscardWhenEmpty)
	assert.Equal(t, 10, next.Game.Rules.PeekWindowSec)

	_, _, err = e.UpdateRules(s, ids[0], map[string]interface{}{"lockCallerCards": "yes"})
	assert.True(t, IsIllegal(err))

	_, _, err = e.UpdateRules(s, ids[0], map[string]interface{}{"maxPlayers": 2})
	assert.True(t, IsIllegal(err), "three players already seated")

	_, _, err = e.UpdateRules(s, ids[1], map[string]interface{}{})
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestStartRules(t *testing.T) {
	e, s, ids := newLobby(t, 1)
	_, _, err := e.Start(s, ids[0])
	assert.True(t, IsIllegal(err), "needs two players")

	s, _, err = e.Join(s, uuid.New())
	require.NoError(t, err)
	_, _, err = e.Start(s, s.Players[1].UserID)
	assert.True(t, errors.Is(err, ErrNotHost))

	next, events, err := e.Start(s, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventGameStarted, EventRoundStarted, EventTurn}, eventTypes(events))
	assert.Equal(t, models.StatusPlaying, next.Game.Status)

	_, _, err = e.Start(next, ids[0])
	assert.True(t, IsIllegal(err), "already started")
}

func TestStandingsShareRanks(t *testing.T) {
	s := &State{Players: []models.Player{
		{UserID: uuid.New(), Order: 0, TotalScore: 20},
		{UserID: uuid.New(), Order: 1, TotalScore: 5},
		{UserID: uuid.New(), Order: 2, TotalScore: 20},
		{UserID: uuid.New(), Order: 3, TotalScore: 31},
	}}
	st := Standings(s)
	require.Len(t, st, 4)
	assert.Equal(t, []int{1, 2, 2, 4}, []int{st[0].Rank, st[1].Rank, st[2].Rank, st[3].Rank})
	assert.Equal(t, s.Players[1].UserID, st[0].PlayerID)
	assert.Equal(t, s.Players[0].UserID, st[1].PlayerID, "ties keep join order")
}

package game

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartDealsRoundOne(t *testing.T) {
	_, s, ids := setupTestGame(t, 3, 3)

	assert.Equal(t, models.StatusPlaying, s.Game.Status)
	assert.Equal(t, 1, s.Game.CurrentRound)
	assert.Equal(t, ids[0], s.Game.CurrentTurnPlayerID)
	assert.Equal(t, PhaseAwaitingDraw, s.Phase())
	assert.Len(t, s.Game.Deck, DeckSize-3*HandSize)
	assert.Empty(t, s.Game.DiscardPile)
	assert.Nil(t, s.Game.LastDiscardedCard)
	for _, p := range s.Players {
		assert.Len(t, p.Hand, HandSize)
	}
	requireUniqueCards(t, s, DeckSize)
}

func TestDrawFromDeck(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{1, 3})
	top := s.Game.Deck[1]

	next, events, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	require.NotNil(t, next.Game.Pending)
	assert.Equal(t, top, next.Game.Pending.Card)
	assert.Equal(t, models.SourceDeck, next.Game.Pending.Source)
	assert.Len(t, next.Game.Deck, 1)
	assert.Len(t, s.Game.Deck, 2, "input state is untouched")
	assert.Equal(t, PhaseAwaitingDisposal, next.Phase())

	require.Len(t, events, 1)
	assert.Equal(t, EventDraw, events[0].Type)
	assert.Nil(t, events[0].Card.Value, "deck draws stay hidden")

	// drawing again while a card is pending is rejected and changes nothing
	again, _, err := e.DrawFromDeck(next, ids[0])
	require.Error(t, err)
	assert.True(t, IsIllegal(err))
	assert.Nil(t, again)
	assert.Len(t, next.Game.Deck, 1)
	assert.Len(t, next.Players[0].Hand, 4)
}

func TestDrawOutOfTurn(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{3})
	_, _, err := e.DrawFromDeck(s, ids[1])
	assert.True(t, IsIllegal(err))

	_, _, err = e.DrawFromDeck(s, uuid.New())
	assert.True(t, IsIllegal(err))
}

func TestDrawFromEmptyDeck(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, nil)
	_, _, err := e.DrawFromDeck(s, ids[0])
	var ic *InsufficientCardsError
	require.True(t, errors.As(err, &ic))
	assert.Equal(t, 0, ic.Have)
}

func TestReshuffleDiscardWhenEmpty(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, nil)
	s.Game.Rules.ReshuffleDiscardWhenEmpty = true
	withDiscard(s, 1)
	withDiscard(s, 2)
	top := withDiscard(s, 3)

	next, events, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventReshuffle, EventDraw}, eventTypes(events))
	assert.Equal(t, []models.Card{top}, next.Game.DiscardPile)
	assert.Equal(t, top, *next.Game.LastDiscardedCard)
	assert.Len(t, next.Game.Deck, 1)
	requireUniqueCards(t, next, 11)
}

func TestSwapWithHand(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{9})
	replaced := s.Players[0].Hand[0]

	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	drawn := s.Game.Pending.Card

	_, _, err = e.SwapWithHand(s, ids[0], 4)
	assert.True(t, IsIllegal(err))

	next, events, err := e.SwapWithHand(s, ids[0], 0)
	require.NoError(t, err)
	assert.Equal(t, drawn, next.Players[0].Hand[0])
	assert.Equal(t, replaced, *next.Game.LastDiscardedCard)
	assert.Equal(t, []models.Card{replaced}, next.Game.DiscardPile)
	assert.Nil(t, next.Game.Pending)
	assert.Equal(t, ids[1], next.Game.CurrentTurnPlayerID)
	assert.Equal(t, []EventType{EventSwap, EventDiscard, EventTurn}, eventTypes(events))
	requireUniqueCards(t, next, 9)
}

func TestSwapWithoutDrawnCard(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{9})
	_, _, err := e.SwapWithHand(s, ids[0], 0)
	assert.True(t, IsIllegal(err))
}

func TestDiscardPlainCard(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{3})
	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)

	next, events, err := e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)
	require.NotNil(t, next.Game.LastDiscardedCard)
	assert.Equal(t, 3, next.Game.LastDiscardedCard.Value)
	assert.Equal(t, ids[1], next.Game.CurrentTurnPlayerID)
	assert.Equal(t, []EventType{EventDiscard, EventTurn}, eventTypes(events))
	require.NotNil(t, events[0].Card.Value)
	assert.Equal(t, 3, *events[0].Card.Value)
}

// drawAndDiscard draws a deck card for the current player and discards it,
// resolving nothing. It expects a card without an ability.
func drawAndDiscard(t *testing.T, e *Engine, s *State) (*State, []Event) {
	t.Helper()
	actor := s.Game.CurrentTurnPlayerID
	s, _, err := e.DrawFromDeck(s, actor)
	require.NoError(t, err)
	s, events, err := e.DiscardDrawnCard(s, actor)
	require.NoError(t, err)
	return s, events
}

func TestDiscardAbilityCardWaitsForChoice(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{9})
	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)

	s, events, err := e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventAbilityOffered}, eventTypes(events))
	assert.Equal(t, PhaseAwaitingAbility, s.Phase())
	assert.Equal(t, ids[0], s.Game.CurrentTurnPlayerID, "turn waits for the ability")
	assert.Nil(t, s.Game.LastDiscardedCard)

	_, _, err = e.DrawFromDeck(s, ids[0])
	assert.True(t, IsIllegal(err))
	_, _, err = e.AttemptMatch(s, ids[1], ids[0], 0)
	assert.True(t, IsIllegal(err))

	target := s.Players[1].Hand[2]
	next, res, events, err := e.UseAbility(s, ids[0], AbilityChoice{Selections: []Selection{{PlayerID: ids[1], CardIndex: 2}}})
	require.NoError(t, err)
	view, ok := res.(ViewResult)
	require.True(t, ok)
	assert.True(t, view.Persist)
	require.Len(t, view.Cards, 1)
	assert.Equal(t, target, view.Cards[0].Card)

	assert.Contains(t, next.Players[0].ViewedCardIDs, target.ID)
	assert.Equal(t, 9, next.Game.LastDiscardedCard.Value)
	assert.Equal(t, ids[1], next.Game.CurrentTurnPlayerID)
	assert.Equal(t, []EventType{EventAbilityUsed, EventDiscard, EventTurn}, eventTypes(events))
	assert.Nil(t, events[0].Card.Value, "the looked-at value stays private")
}

func TestLookOwnIsNotPersisted(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{7})
	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	s, _, err = e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)

	_, _, _, err = e.UseAbility(s, ids[0], AbilityChoice{Selections: []Selection{{PlayerID: ids[1], CardIndex: 0}}})
	assert.True(t, IsIllegal(err), "7 cannot look at an opponent")

	next, res, _, err := e.UseAbility(s, ids[0], AbilityChoice{Selections: []Selection{{PlayerID: ids[0], CardIndex: 3}}})
	require.NoError(t, err)
	view := res.(ViewResult)
	assert.False(t, view.Persist)
	assert.Equal(t, 4, view.Cards[0].Card.Value)
	assert.Empty(t, next.Players[0].ViewedCardIDs)
}

func TestBlindSwap(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{11})
	a, b := s.Players[0].Hand[0], s.Players[1].Hand[1]
	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	s, _, err = e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)

	next, res, _, err := e.UseAbility(s, ids[0], AbilityChoice{Selections: []Selection{
		{PlayerID: ids[0], CardIndex: 0},
		{PlayerID: ids[1], CardIndex: 1},
	}})
	require.NoError(t, err)
	swap := res.(SwapResult)
	assert.Empty(t, swap.Revealed)
	assert.Equal(t, b, next.Players[0].Hand[0])
	assert.Equal(t, a, next.Players[1].Hand[1])
	requireUniqueCards(t, next, 9)
}

func TestBlindSwapNeedsTwoSelections(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{12})
	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	s, _, err = e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)
	hands := [][]models.Card{models.CloneCards(s.Players[0].Hand), models.CloneCards(s.Players[1].Hand)}

	_, _, _, err = e.UseAbility(s, ids[0], AbilityChoice{Selections: []Selection{{PlayerID: ids[1], CardIndex: 0}}})
	assert.True(t, IsIllegal(err))
	assert.Equal(t, PhaseAwaitingAbility, s.Phase())
	assert.Equal(t, hands[0], s.Players[0].Hand)
	assert.Equal(t, hands[1], s.Players[1].Hand)
}

func TestLockCallerCards(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}, {1, 1, 1, 1}}, []int{3, 11})
	s.Game.Rules.LockCallerCards = true

	s, _, err := e.CallKombio(s, ids[0])
	require.NoError(t, err)
	s, _, err = e.DrawFromDeck(s, ids[1])
	require.NoError(t, err)
	s, _, err = e.DiscardDrawnCard(s, ids[1])
	require.NoError(t, err)

	_, _, _, err = e.UseAbility(s, ids[1], AbilityChoice{Selections: []Selection{
		{PlayerID: ids[0], CardIndex: 0},
		{PlayerID: ids[2], CardIndex: 0},
	}})
	assert.True(t, IsIllegal(err))

	next, _, _, err := e.UseAbility(s, ids[1], AbilityChoice{Selections: []Selection{
		{PlayerID: ids[1], CardIndex: 0},
		{PlayerID: ids[2], CardIndex: 0},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, next.Players[1].Hand[0].Value)
	assert.Equal(t, 5, next.Players[2].Hand[0].Value)
}

func TestLookSwapRevealsFirstOnly(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{13})
	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	s, _, err = e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)

	_, res, _, err := e.UseAbility(s, ids[0], AbilityChoice{Selections: []Selection{
		{PlayerID: ids[1], CardIndex: 3},
		{PlayerID: ids[0], CardIndex: 0},
	}})
	require.NoError(t, err)
	swap := res.(SwapResult)
	require.Len(t, swap.Revealed, 1)
	assert.Equal(t, 8, swap.Revealed[0].Card.Value)
}

func TestPreviewAbility(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{14})
	_, _, _, err := e.PreviewAbility(s, ids[0], Selection{PlayerID: ids[1], CardIndex: 0})
	assert.True(t, IsIllegal(err), "no ability pending yet")

	s, _, err = e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	s, _, err = e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)

	next, rc, events, err := e.PreviewAbility(s, ids[0], Selection{PlayerID: ids[1], CardIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, 5, rc.Card.Value)
	assert.Equal(t, PhaseAwaitingAbility, next.Phase())
	assert.Equal(t, []EventType{EventAbilityPreview}, eventTypes(events))
	assert.Nil(t, events[0].Card.Value)
	assert.Empty(t, s.Game.Pending.Previewed, "input state untouched")
	assert.Equal(t, []models.HandSlot{{PlayerID: ids[1], CardIndex: 0}}, next.Game.Pending.Previewed)

	// double look reveals a second card, then no more
	next, rc, _, err = e.PreviewAbility(next, ids[0], Selection{PlayerID: ids[0], CardIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, rc.Card.Value)
	_, _, _, err = e.PreviewAbility(next, ids[0], Selection{PlayerID: ids[1], CardIndex: 1})
	assert.True(t, IsIllegal(err))

	// the revealed cards are the ones swapped
	_, _, _, err = e.UseAbility(next, ids[0], AbilityChoice{Selections: []Selection{
		{PlayerID: ids[1], CardIndex: 0},
		{PlayerID: ids[0], CardIndex: 0},
	}})
	assert.True(t, IsIllegal(err))
	after, _, _, err := e.UseAbility(next, ids[0], AbilityChoice{Selections: []Selection{
		{PlayerID: ids[0], CardIndex: 2},
		{PlayerID: ids[1], CardIndex: 0},
	}})
	require.NoError(t, err)
	assert.Equal(t, 5, after.Players[0].Hand[2].Value)
	assert.Equal(t, 3, after.Players[1].Hand[0].Value)
}

func TestLookOwnPreviewRevealsOneCard(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{8})
	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	s, _, err = e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)

	s, rc, _, err := e.PreviewAbility(s, ids[0], Selection{PlayerID: ids[0], CardIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, rc.Card.Value)

	for i := 1; i < 4; i++ {
		_, _, _, err = e.PreviewAbility(s, ids[0], Selection{PlayerID: ids[0], CardIndex: i})
		assert.True(t, IsIllegal(err), "slot %d", i)
	}

	// asking again for the same card is harmless
	again, rc, events, err := e.PreviewAbility(s, ids[0], Selection{PlayerID: ids[0], CardIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, rc.Card.Value)
	assert.Empty(t, events)
	assert.Len(t, again.Game.Pending.Previewed, 1)

	_, _, _, err = e.UseAbility(s, ids[0], AbilityChoice{Selections: []Selection{{PlayerID: ids[0], CardIndex: 1}}})
	assert.True(t, IsIllegal(err), "must confirm the card already seen")
}

func TestLookSwapPreviewMustBeFirstSelection(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{13})
	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	s, _, err = e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)

	s, _, _, err = e.PreviewAbility(s, ids[0], Selection{PlayerID: ids[1], CardIndex: 3})
	require.NoError(t, err)
	_, _, _, err = e.PreviewAbility(s, ids[0], Selection{PlayerID: ids[1], CardIndex: 2})
	assert.True(t, IsIllegal(err))

	_, _, _, err = e.UseAbility(s, ids[0], AbilityChoice{Selections: []Selection{
		{PlayerID: ids[0], CardIndex: 0},
		{PlayerID: ids[1], CardIndex: 3},
	}})
	assert.True(t, IsIllegal(err))

	_, res, _, err := e.UseAbility(s, ids[0], AbilityChoice{Selections: []Selection{
		{PlayerID: ids[1], CardIndex: 3},
		{PlayerID: ids[0], CardIndex: 0},
	}})
	require.NoError(t, err)
	assert.Equal(t, 8, res.(SwapResult).Revealed[0].Card.Value)
}

func TestBlindSwapHasNoPreview(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{11})
	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	s, _, err = e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)

	_, _, _, err = e.PreviewAbility(s, ids[0], Selection{PlayerID: ids[1], CardIndex: 0})
	assert.True(t, IsIllegal(err))
}

func TestSkipAbility(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{10, 10})
	s, _, err := e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	s, _, err = e.DiscardDrawnCard(s, ids[0])
	require.NoError(t, err)

	next, events, err := e.SkipAbility(s, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 10, next.Game.LastDiscardedCard.Value)
	assert.Equal(t, ids[1], next.Game.CurrentTurnPlayerID)
	assert.Empty(t, next.Players[0].ViewedCardIDs)
	assert.Equal(t, []EventType{EventAbilityUsed, EventDiscard, EventTurn}, eventTypes(events))

	// skipping through UseAbility is the same
	next, _, err = e.DrawFromDeck(next, ids[1])
	require.NoError(t, err)
	next, _, err = e.DiscardDrawnCard(next, ids[1])
	require.NoError(t, err)
	next, res, _, err := e.UseAbility(next, ids[1], AbilityChoice{Skip: true})
	require.NoError(t, err)
	assert.Equal(t, ResultSkip, res.Kind())
	assert.Equal(t, ids[0], next.Game.CurrentTurnPlayerID)
}

func TestDrawFromDiscard(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, []int{3, 3})
	_, _, err := e.DrawFromDiscard(s, ids[0])
	assert.True(t, IsIllegal(err), "nothing discarded yet")

	s, _ = drawAndDiscard(t, e, s)
	discarded := *s.Game.LastDiscardedCard

	next, events, err := e.DrawFromDiscard(s, ids[1])
	require.NoError(t, err)
	require.NotNil(t, next.Game.Pending)
	assert.Equal(t, discarded, next.Game.Pending.Card)
	assert.Equal(t, models.SourceDiscard, next.Game.Pending.Source)
	assert.Empty(t, next.Game.DiscardPile)
	assert.Nil(t, next.Game.LastDiscardedCard)
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].Card.Value, "the discard pile is face up")
}

func TestTurnOrderCycles(t *testing.T) {
	for n := 2; n <= 4; n++ {
		hands := make([][]int, n)
		for i := range hands {
			hands[i] = []int{2, 2, 2, 2}
		}
		e, s, ids := riggedGame(t, hands, []int{1, 1, 1, 1, 1, 1, 1, 1})
		for i := 0; i < n; i++ {
			s, _ = drawAndDiscard(t, e, s)
			if i < n-1 {
				assert.Equal(t, ids[i+1], s.Game.CurrentTurnPlayerID)
			}
		}
		assert.Equal(t, ids[0], s.Game.CurrentTurnPlayerID, "%d players", n)
	}
}

func TestKombioRoundThreePlayers(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 1, 1, 1}, {5, 5, 5, 5}, {2, 2, 2, 2}}, []int{3, 3, 3, 3})

	s, events, err := e.CallKombio(s, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventKombio, EventTurn}, eventTypes(events))
	require.NotNil(t, s.Game.KombioCallerID)
	assert.Equal(t, ids[0], *s.Game.KombioCallerID)
	assert.Equal(t, ids[1], s.Game.CurrentTurnPlayerID)
	assert.True(t, s.KombioLocked(ids[0]))

	_, _, err = e.CallKombio(s, ids[1])
	assert.True(t, IsIllegal(err), "only one call per round")

	s, _ = drawAndDiscard(t, e, s)
	assert.Equal(t, ids[2], s.Game.CurrentTurnPlayerID)
	assert.Equal(t, []uuid.UUID{ids[1]}, s.Game.FinalTurns)
	assert.True(t, s.KombioLocked(ids[1]))
	assert.False(t, s.KombioLocked(ids[2]))

	s, events = drawAndDiscard(t, e, s)
	assert.Contains(t, eventTypes(events), EventRoundEnd)
	assert.Contains(t, eventTypes(events), EventRoundStarted)

	assert.Equal(t, 2, s.Game.CurrentRound)
	assert.Nil(t, s.Game.KombioCallerID)
	assert.Nil(t, s.Game.FinalTurns)
	assert.Equal(t, ids[0], s.Game.CurrentTurnPlayerID)
	assert.Empty(t, s.Game.DiscardPile)
	assert.Nil(t, s.Game.LastDiscardedCard)
	assert.Len(t, s.Game.Deck, DeckSize-12)
	requireUniqueCards(t, s, DeckSize)

	res := s.Game.LastRoundResult
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Round)
	assert.True(t, res.Success)
	assert.Equal(t, 4, s.Players[0].TotalScore)
	assert.Equal(t, 30, s.Players[1].TotalScore)
	assert.Equal(t, 18, s.Players[2].TotalScore)
	for _, p := range s.Players {
		assert.Len(t, p.Hand, HandSize)
		assert.Empty(t, p.ViewedCardIDs)
	}
}

func TestKombioTwoPlayerException(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 1, 1, 1}, {5, 5, 5, 5}}, []int{3, 3})
	s, _, err := e.CallKombio(s, ids[0])
	require.NoError(t, err)
	assert.False(t, s.KombioLocked(ids[1]))

	s, _, err = e.DrawFromDeck(s, ids[1])
	require.NoError(t, err)
	assert.False(t, s.KombioLocked(ids[1]))

	s, events, err := e.DiscardDrawnCard(s, ids[1])
	require.NoError(t, err)
	assert.Contains(t, eventTypes(events), EventRoundEnd)
	assert.Equal(t, 2, s.Game.CurrentRound)
}

func TestKombioRoundEndsWhenNothingCanBeDrawn(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 1, 1, 1}, {5, 5, 5, 5}, {2, 2, 2, 2}}, nil)

	s, events, err := e.CallKombio(s, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventKombio, EventRoundEnd, EventRoundStarted, EventTurn}, eventTypes(events))
	assert.Equal(t, 2, s.Game.CurrentRound)
	require.NotNil(t, s.Game.LastRoundResult)
	assert.True(t, s.Game.LastRoundResult.Success)
	assert.Equal(t, 4, s.Players[0].TotalScore)
	assert.Equal(t, 30, s.Players[1].TotalScore)
}

func TestKombioNeedsOwnTurnBeforeDrawing(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 1, 1, 1}, {5, 5, 5, 5}}, []int{3, 3})
	_, _, err := e.CallKombio(s, ids[1])
	assert.True(t, IsIllegal(err))
	assert.False(t, s.CanCallKombio(ids[1]))
	assert.True(t, s.CanCallKombio(ids[0]))

	s, _, err = e.DrawFromDeck(s, ids[0])
	require.NoError(t, err)
	_, _, err = e.CallKombio(s, ids[0])
	assert.True(t, IsIllegal(err))
	assert.False(t, s.CanCallKombio(ids[0]))
}

func TestLastRoundFinishesGame(t *testing.T) {
	e, s, ids := riggedGame(t, [][]int{{1, 1, 1, 1}, {5, 5, 5, 5}}, []int{3, 3})
	s.Game.MaxRounds = 1

	s, _, err := e.CallKombio(s, ids[0])
	require.NoError(t, err)
	s, events := drawAndDiscard(t, e, s)

	assert.Equal(t, []EventType{EventDiscard, EventRoundEnd, EventGameEnd}, eventTypes(events))
	assert.Equal(t, models.StatusFinished, s.Game.Status)
	assert.Equal(t, PhaseFinished, s.Phase())
	assert.Equal(t, uuid.Nil, s.Game.CurrentTurnPlayerID)

	_, _, err = e.DrawFromDeck(s, ids[0])
	assert.True(t, IsIllegal(err))

	standings := Standings(s)
	require.Len(t, standings, 2)
	assert.Equal(t, ids[0], standings[0].PlayerID)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 30, standings[1].TotalScore)
}

func TestDeckIntegrityThroughPlay(t *testing.T) {
	e, s, ids := setupTestGame(t, 3, 3)
	for step := 0; step < 40; step++ {
		actor := s.Game.CurrentTurnPlayerID
		var err error
		switch s.Phase() {
		case PhaseAwaitingDraw:
			target, _ := s.Player(ids[2])
			if s.Game.LastDiscardedCard != nil && step%3 == 0 && len(target.Hand) > 1 {
				s, _, err = e.AttemptMatch(s, ids[1], ids[2], 0)
				require.NoError(t, err)
				break
			}
			s, _, err = e.DrawFromDeck(s, actor)
		case PhaseAwaitingDisposal:
			if step%2 == 0 {
				s, _, err = e.SwapWithHand(s, actor, 0)
			} else {
				s, _, err = e.DiscardDrawnCard(s, actor)
			}
		case PhaseAwaitingAbility:
			s, _, err = e.SkipAbility(s, actor)
		}
		require.NoError(t, err, "step %d", step)
		requireUniqueCards(t, s, DeckSize)
	}
}

package game

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

// requireTurn checks that actor may take a turn action in phase want.
func requireTurn(s *State, actor uuid.UUID, action string, want Phase) error {
	if s.Game.Status != models.StatusPlaying {
		return illegal(action, "game is not being played")
	}
	if _, ok := s.Player(actor); !ok {
		return illegal(action, "not a player in this game")
	}
	if s.Game.CurrentTurnPlayerID != actor {
		return illegal(action, "not your turn")
	}
	if s.KombioLocked(actor) {
		return illegal(action, "locked by kombio")
	}
	if got := s.Phase(); got != want {
		return illegal(action, fmt.Sprintf("expected %s, phase is %s", want, got))
	}
	return nil
}

// takeFromDeck pops the top deck card, refilling an empty deck from the
// discard pile first when the house rules allow it.
func (e *Engine) takeFromDeck(s *State, events *[]Event) (models.Card, error) {
	if len(s.Game.Deck) == 0 && s.Game.Rules.ReshuffleDiscardWhenEmpty && len(s.Game.DiscardPile) > 1 {
		top := len(s.Game.DiscardPile) - 1
		s.Game.Deck = e.shuffle(s.Game.DiscardPile[:top])
		s.Game.DiscardPile = []models.Card{s.Game.DiscardPile[top]}
		*events = append(*events, Event{Type: EventReshuffle, Payload: map[string]interface{}{"deckSize": len(s.Game.Deck)}})
	}
	if len(s.Game.Deck) == 0 {
		return models.Card{}, &InsufficientCardsError{Need: 1, Have: 0}
	}
	var card models.Card
	card, s.Game.Deck = popCard(s.Game.Deck)
	return card, nil
}

// DrawFromDeck moves the top deck card into the actor's pending slot.
func (e *Engine) DrawFromDeck(s *State, actor uuid.UUID) (*State, []Event, error) {
	if err := requireTurn(s, actor, "draw_deck", PhaseAwaitingDraw); err != nil {
		return nil, nil, err
	}
	next := s.Clone()
	var events []Event
	card, err := e.takeFromDeck(next, &events)
	if err != nil {
		return nil, nil, err
	}
	next.Game.Pending = &models.PendingCard{PlayerID: actor, Card: card, Source: models.SourceDeck}
	events = append(events, Event{
		Type:    EventDraw,
		User:    eventUser(actor),
		Card:    hiddenCard(card),
		Special: string(models.SourceDeck),
	})
	return next, events, nil
}

// DrawFromDiscard takes the last discarded card. The pile's next card does not
// become matchable.
func (e *Engine) DrawFromDiscard(s *State, actor uuid.UUID) (*State, []Event, error) {
	if err := requireTurn(s, actor, "draw_discard", PhaseAwaitingDraw); err != nil {
		return nil, nil, err
	}
	if s.Game.LastDiscardedCard == nil || len(s.Game.DiscardPile) == 0 {
		return nil, nil, illegal("draw_discard", "no discarded card to take")
	}
	next := s.Clone()
	var card models.Card
	card, next.Game.DiscardPile = popCard(next.Game.DiscardPile)
	next.Game.LastDiscardedCard = nil
	next.Game.Pending = &models.PendingCard{PlayerID: actor, Card: card, Source: models.SourceDiscard}
	return next, []Event{{
		Type:    EventDraw,
		User:    eventUser(actor),
		Card:    faceUpCard(card),
		Special: string(models.SourceDiscard),
	}}, nil
}

// SwapWithHand puts the pending card into hand slot index and discards the
// card it replaces, ending the turn.
func (e *Engine) SwapWithHand(s *State, actor uuid.UUID, index int) (*State, []Event, error) {
	if err := requireTurn(s, actor, "swap", PhaseAwaitingDisposal); err != nil {
		return nil, nil, err
	}
	p, _ := s.Player(actor)
	if index < 0 || index >= len(p.Hand) {
		return nil, nil, illegal("swap", fmt.Sprintf("card index %d out of range", index))
	}
	next := s.Clone()
	p, _ = next.Player(actor)
	drawn := next.Game.Pending.Card
	displaced := p.Hand[index]
	p.Hand[index] = drawn
	next.Game.Pending = nil
	next.discard(displaced)

	events := []Event{
		{Type: EventSwap, User: eventUser(actor), Card: cardAt(drawn, actor, index)},
		{Type: EventDiscard, User: eventUser(actor), Card: faceUpCard(displaced)},
	}
	more, err := e.advance(next)
	if err != nil {
		return nil, nil, err
	}
	return next, append(events, more...), nil
}

// DiscardDrawnCard discards the pending card. An ability card is held until
// the actor uses or skips its ability.
func (e *Engine) DiscardDrawnCard(s *State, actor uuid.UUID) (*State, []Event, error) {
	if err := requireTurn(s, actor, "discard", PhaseAwaitingDisposal); err != nil {
		return nil, nil, err
	}
	next := s.Clone()
	card := next.Game.Pending.Card
	if CanUseAbility(card.Value) {
		next.Game.Pending.AbilityPending = true
		return next, []Event{{
			Type:    EventAbilityOffered,
			User:    eventUser(actor),
			Card:    faceUpCard(card),
			Special: string(AbilityFor(card.Value)),
		}}, nil
	}
	events, err := e.finishDiscard(next, actor)
	if err != nil {
		return nil, nil, err
	}
	return next, events, nil
}

// PreviewAbility reveals the card at sel to the actor while they pick targets
// for a pending ability. Each tier reveals at most PreviewLimit cards; asking
// for a slot already revealed returns it again.
func (e *Engine) PreviewAbility(s *State, actor uuid.UUID, sel Selection) (*State, RevealedCard, []Event, error) {
	if err := s.requireAbility(actor); err != nil {
		return nil, RevealedCard{}, nil, err
	}
	pending := s.Game.Pending
	rc, err := Preview(pending.Card.Value, actor, s.Players, sel)
	if err != nil {
		return nil, RevealedCard{}, nil, err
	}
	slot := models.HandSlot(sel)
	if slices.Contains(pending.Previewed, slot) {
		return s.Clone(), rc, nil, nil
	}
	a := AbilityFor(pending.Card.Value)
	if limit := PreviewLimit(a); len(pending.Previewed) >= limit {
		return nil, RevealedCard{}, nil, illegal("preview_ability", fmt.Sprintf("%s reveals at most %d cards", a, limit))
	}

	next := s.Clone()
	next.Game.Pending.Previewed = append(next.Game.Pending.Previewed, slot)
	return next, rc, []Event{{
		Type:    EventAbilityPreview,
		User:    eventUser(actor),
		Card:    cardAt(rc.Card, sel.PlayerID, sel.CardIndex),
		Special: string(a),
	}}, nil
}

// UseAbility resolves the pending ability card and finishes the discard.
func (e *Engine) UseAbility(s *State, actor uuid.UUID, choice AbilityChoice) (*State, AbilityResult, []Event, error) {
	if err := s.requireAbility(actor); err != nil {
		return nil, nil, nil, err
	}
	if choice.Skip {
		next, events, err := e.SkipAbility(s, actor)
		return next, SkipResult{}, events, err
	}
	value := s.Game.Pending.Card.Value
	res, err := ResolveAbility(value, actor, s.Players, choice)
	if err != nil {
		return nil, nil, nil, err
	}
	if !confirmsPreview(AbilityFor(value), s.Game.Pending.Previewed, choice.Selections) {
		return nil, nil, nil, illegal("use_ability", "selections must include the cards already revealed")
	}

	next := s.Clone()
	ev := Event{Type: EventAbilityUsed, User: eventUser(actor), Special: string(AbilityFor(value))}
	switch r := res.(type) {
	case ViewResult:
		sel := r.Cards[0]
		ev.Card = cardAt(sel.Card, sel.PlayerID, sel.CardIndex)
		if r.Persist {
			p, _ := next.Player(actor)
			if !p.HasViewed(sel.Card.ID) {
				p.ViewedCardIDs = append(p.ViewedCardIDs, sel.Card.ID)
			}
		}
	case SwapResult:
		if next.Game.Rules.LockCallerCards && next.Game.KombioCallerID != nil {
			caller := *next.Game.KombioCallerID
			if r.A.PlayerID == caller || r.B.PlayerID == caller {
				return nil, nil, nil, illegal("use_ability", "the kombio caller's cards are locked")
			}
		}
		a, _ := next.Player(r.A.PlayerID)
		b, _ := next.Player(r.B.PlayerID)
		ca, cb := a.Hand[r.A.CardIndex], b.Hand[r.B.CardIndex]
		a.Hand[r.A.CardIndex], b.Hand[r.B.CardIndex] = cb, ca
		ev.Card1 = cardAt(ca, r.A.PlayerID, r.A.CardIndex)
		ev.Card2 = cardAt(cb, r.B.PlayerID, r.B.CardIndex)
	}

	more, err := e.finishDiscard(next, actor)
	if err != nil {
		return nil, nil, nil, err
	}
	return next, res, append([]Event{ev}, more...), nil
}

// SkipAbility declines the pending ability and finishes the discard.
func (e *Engine) SkipAbility(s *State, actor uuid.UUID) (*State, []Event, error) {
	if err := s.requireAbility(actor); err != nil {
		return nil, nil, err
	}
	next := s.Clone()
	more, err := e.finishDiscard(next, actor)
	if err != nil {
		return nil, nil, err
	}
	events := []Event{{Type: EventAbilityUsed, User: eventUser(actor), Special: string(ResultSkip)}}
	return next, append(events, more...), nil
}

// CallKombio ends the actor's participation in the round instead of drawing.
// Every other player gets one more turn.
func (e *Engine) CallKombio(s *State, actor uuid.UUID) (*State, []Event, error) {
	if err := requireTurn(s, actor, "kombio", PhaseAwaitingDraw); err != nil {
		return nil, nil, err
	}
	if s.Game.KombioCallerID != nil {
		return nil, nil, illegal("kombio", "kombio already called this round")
	}
	next := s.Clone()
	id := actor
	next.Game.KombioCallerID = &id
	events := []Event{{Type: EventKombio, User: eventUser(actor), Round: next.Game.CurrentRound}}
	more, err := e.advance(next)
	if err != nil {
		return nil, nil, err
	}
	return next, append(events, more...), nil
}

func (s *State) requireAbility(actor uuid.UUID) error {
	const action = "use_ability"
	if s.Game.Status != models.StatusPlaying {
		return illegal(action, "game is not being played")
	}
	if s.Game.CurrentTurnPlayerID != actor {
		return illegal(action, "not your turn")
	}
	if s.Phase() != PhaseAwaitingAbility || s.Game.Pending.PlayerID != actor {
		return illegal(action, "no ability pending")
	}
	return nil
}

// canDraw reports whether a draw from the deck or the discard pile is possible.
func (s *State) canDraw() bool {
	g := &s.Game
	return len(g.Deck) > 0 || g.LastDiscardedCard != nil ||
		(g.Rules.ReshuffleDiscardWhenEmpty && len(g.DiscardPile) > 1)
}

// discard pushes card onto the pile and makes it matchable.
func (s *State) discard(card models.Card) {
	s.Game.DiscardPile = append(s.Game.DiscardPile, card)
	c := card
	s.Game.LastDiscardedCard = &c
}

func (e *Engine) finishDiscard(s *State, actor uuid.UUID) ([]Event, error) {
	card := s.Game.Pending.Card
	s.Game.Pending = nil
	s.discard(card)
	more, err := e.advance(s)
	if err != nil {
		return nil, err
	}
	events := []Event{{Type: EventDiscard, User: eventUser(actor), Card: faceUpCard(card)}}
	return append(events, more...), nil
}

// advance moves the turn cursor to the next player in join order. When the
// cursor reaches the Kombio caller the round ends.
func (e *Engine) advance(s *State) ([]Event, error) {
	cur := s.playerIndex(s.Game.CurrentTurnPlayerID)
	if caller := s.Game.KombioCallerID; caller != nil && s.Game.CurrentTurnPlayerID != *caller &&
		!slices.Contains(s.Game.FinalTurns, s.Game.CurrentTurnPlayerID) {
		s.Game.FinalTurns = append(s.Game.FinalTurns, s.Game.CurrentTurnPlayerID)
	}
	nextID := s.Players[(cur+1)%len(s.Players)].UserID
	s.Game.CurrentTurnPlayerID = nextID
	if s.Game.IsKombioCaller(nextID) {
		return e.endRound(s)
	}
	// After a Kombio call nobody left can draw, so the final turns are void.
	if s.Game.KombioCallerID != nil && !s.canDraw() {
		return e.endRound(s)
	}
	return []Event{{Type: EventTurn, User: eventUser(nextID), Round: s.Game.CurrentRound}}, nil
}

// endRound scores the round, then either finishes the game or deals the next round.
func (e *Engine) endRound(s *State) ([]Event, error) {
	res := ScoreRound(s.Game.CurrentRound, s.Players, s.Game.KombioCallerID)
	for i := range s.Players {
		s.Players[i].TotalScore = res.Scores[i].Total
	}
	s.Game.LastRoundResult = &res
	events := []Event{{Type: EventRoundEnd, Round: res.Round, Result: res.Clone()}}

	if s.Game.CurrentRound >= s.Game.MaxRounds {
		s.Game.Status = models.StatusFinished
		s.Game.CurrentTurnPlayerID = uuid.Nil
		s.Game.Pending = nil
		return append(events, Event{Type: EventGameEnd, Round: res.Round, Payload: map[string]interface{}{
			"standings": Standings(s),
		}}), nil
	}
	more, err := e.startRound(s, s.Game.CurrentRound+1)
	if err != nil {
		return nil, fmt.Errorf("dealing round %d: %w", s.Game.CurrentRound+1, err)
	}
	return append(events, more...), nil
}

// startRound deals a fresh shuffled deck and resets per-round state.
func (e *Engine) startRound(s *State, round int) ([]Event, error) {
	hands, rest, err := Deal(e.shuffledDeck(), len(s.Players))
	if err != nil {
		return nil, err
	}
	for i := range s.Players {
		s.Players[i].Hand = hands[i]
		s.Players[i].ViewedCardIDs = []uuid.UUID{}
	}
	s.Game.Deck = rest
	s.Game.DiscardPile = []models.Card{}
	s.Game.LastDiscardedCard = nil
	s.Game.KombioCallerID = nil
	s.Game.FinalTurns = nil
	s.Game.Pending = nil
	s.Game.CurrentRound = round
	s.Game.CurrentTurnPlayerID = s.Players[0].UserID
	return []Event{
		{Type: EventRoundStarted, Round: round},
		{Type: EventTurn, User: eventUser(s.Players[0].UserID), Round: round},
	}, nil
}

package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

// AttemptMatch lets attempter try to discard target's card at index onto the
// last discarded card. It is not tied to the turn and does not end one.
//
// On equal values the card leaves the target's hand and becomes the last
// discarded card; a target left with no cards calls Kombio if nobody has yet.
// On a mismatch the target draws the penalty cards the deck can supply.
func (e *Engine) AttemptMatch(s *State, attempter, target uuid.UUID, index int) (*State, []Event, error) {
	const action = "match"
	if s.Game.Status != models.StatusPlaying {
		return nil, nil, illegal(action, "game is not being played")
	}
	if _, ok := s.Player(attempter); !ok {
		return nil, nil, illegal(action, "not a player in this game")
	}
	tp, ok := s.Player(target)
	if !ok {
		return nil, nil, illegal(action, "target is not a player in this game")
	}
	if s.Game.Pending != nil {
		return nil, nil, illegal(action, "a drawn card is pending")
	}
	if s.Game.LastDiscardedCard == nil {
		return nil, nil, illegal(action, "nothing to match against")
	}
	if index < 0 || index >= len(tp.Hand) {
		return nil, nil, illegal(action, fmt.Sprintf("card index %d out of range", index))
	}

	next := s.Clone()
	tp, _ = next.Player(target)
	card := tp.Hand[index]
	top := *next.Game.LastDiscardedCard

	if card.Value != top.Value {
		return e.penalize(next, attempter, target, card, index)
	}

	tp.Hand = append(tp.Hand[:index], tp.Hand[index+1:]...)
	next.discard(card)
	events := []Event{{
		Type:   EventMatchSuccess,
		User:   eventUser(attempter),
		Target: eventUser(target),
		Card:   &EventCard{ID: card.ID, Value: faceUpCard(card).Value, Idx: &index, User: eventUser(target)},
	}}

	if len(tp.Hand) == 0 && next.Game.KombioCallerID == nil {
		id := target
		next.Game.KombioCallerID = &id
		events = append(events, Event{
			Type:    EventKombio,
			User:    eventUser(target),
			Round:   next.Game.CurrentRound,
			Special: "auto",
		})
		if next.Game.CurrentTurnPlayerID == target {
			more, err := e.advance(next)
			if err != nil {
				return nil, nil, err
			}
			events = append(events, more...)
		}
	}
	return next, events, nil
}

func (e *Engine) penalize(next *State, attempter, target uuid.UUID, card models.Card, index int) (*State, []Event, error) {
	var events []Event
	drawn := 0
	for i := 0; i < next.Game.Rules.PenaltyDrawCount; i++ {
		penalty, err := e.takeFromDeck(next, &events)
		if err != nil {
			// an empty deck skips the penalty
			break
		}
		tp, _ := next.Player(target)
		tp.Hand = append(tp.Hand, penalty)
		drawn++
	}
	events = append(events, Event{
		Type:    EventMatchFail,
		User:    eventUser(attempter),
		Target:  eventUser(target),
		Card:    &EventCard{ID: card.ID, Value: faceUpCard(card).Value, Idx: &index, User: eventUser(target)},
		Payload: map[string]interface{}{"penaltyCards": drawn},
	})
	return next, events, nil
}

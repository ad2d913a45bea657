package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

// EventType is an enum-like type for the actions a transition reports.
type EventType string

const (
	EventPlayerJoined   EventType = "player_joined"
	EventPlayerLeft     EventType = "player_left"
	EventRulesUpdated   EventType = "rules_updated"
	EventGameStarted    EventType = "game_started"
	EventRoundStarted   EventType = "round_started"
	EventDraw           EventType = "player_draw"
	EventReshuffle      EventType = "deck_reshuffle"
	EventSwap           EventType = "player_swap"
	EventDiscard        EventType = "player_discard"
	EventAbilityOffered EventType = "ability_offered"
	EventAbilityPreview EventType = "ability_preview"
	EventAbilityUsed    EventType = "ability_used"
	EventMatchSuccess   EventType = "match_success"
	EventMatchFail      EventType = "match_fail"
	EventKombio         EventType = "player_kombio"
	EventTurn           EventType = "player_turn"
	EventRoundEnd       EventType = "round_end"
	EventGameEnd        EventType = "game_end"
)

// EventUser identifies a player inside an Event.
type EventUser struct {
	ID uuid.UUID `json:"id"`
}

// EventCard identifies a card inside an Event. Value is only set when the card
// is face up for everyone (discards, matches).
type EventCard struct {
	ID    uuid.UUID  `json:"id"`
	Value *int       `json:"value,omitempty"`
	Idx   *int       `json:"idx,omitempty"`
	User  *EventUser `json:"user,omitempty"`
}

// Event is a public record of something a transition did. Events never carry
// face-down card values.
type Event struct {
	Type    EventType           `json:"type"`
	User    *EventUser          `json:"user,omitempty"`
	Target  *EventUser          `json:"target,omitempty"`
	Card    *EventCard          `json:"card,omitempty"`
	Card1   *EventCard          `json:"card1,omitempty"`
	Card2   *EventCard          `json:"card2,omitempty"`
	Special string              `json:"special,omitempty"`
	Round   int                 `json:"round,omitempty"`
	Result  *models.RoundResult `json:"result,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`
}

func eventUser(id uuid.UUID) *EventUser {
	return &EventUser{ID: id}
}

func hiddenCard(c models.Card) *EventCard {
	return &EventCard{ID: c.ID}
}

func faceUpCard(c models.Card) *EventCard {
	v := c.Value
	return &EventCard{ID: c.ID, Value: &v}
}

func cardAt(c models.Card, owner uuid.UUID, idx int) *EventCard {
	i := idx
	return &EventCard{ID: c.ID, Idx: &i, User: eventUser(owner)}
}

package models

import "github.com/google/uuid"

// Card is a single dealt card. Value is both the scoring weight and the
// ability trigger; Suit is cosmetic.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Value int       `json:"value"`
	Suit  string    `json:"suit,omitempty"`
}

// CardIDs returns the ids of cards in order.
func CardIDs(cards []Card) []uuid.UUID {
	ids := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

// CloneCards returns a copy of cards that shares no backing array with the input.
// A nil input stays nil.
func CloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

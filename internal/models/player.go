package models

import (
	"slices"

	"github.com/google/uuid"
)

// Player is one seat at a game table. A player is keyed by (GameID, UserID).
type Player struct {
	GameID uuid.UUID `json:"game_id"`
	UserID uuid.UUID `json:"user_id"`

	// Order is the 0-based join order and never changes during play.
	Order int `json:"player_order"`

	// Hand slots are positional; indices 2 and 3 are the bottom cards.
	Hand []Card `json:"current_hand"`

	// ViewedCardIDs lists cards this player has been shown by an opponent-look ability.
	ViewedCardIDs []uuid.UUID `json:"viewed_cards"`

	TotalScore int `json:"total_score"`

	Version int `json:"version"`
}

// HasViewed reports whether the player has been shown the card with the given id.
func (p *Player) HasViewed(cardID uuid.UUID) bool {
	return slices.Contains(p.ViewedCardIDs, cardID)
}

// Clone returns a deep copy of the player.
func (p Player) Clone() Player {
	p.Hand = CloneCards(p.Hand)
	if p.ViewedCardIDs != nil {
		p.ViewedCardIDs = slices.Clone(p.ViewedCardIDs)
	}
	return p
}

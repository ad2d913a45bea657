package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultDisplayName is used when a profile is auto-created for a user that has none.
const DefaultDisplayName = "Player"

// Profile is the game-side profile of an authenticated user.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

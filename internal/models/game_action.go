package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// GameAction is one entry of a game's action log, as queued for the historian.
type GameAction struct {
	GameID        uuid.UUID       `json:"game_id"`
	ActionIndex   int             `json:"action_index"`
	ActorUserID   uuid.UUID       `json:"actor_user_id"`
	ActionType    string          `json:"action_type"`
	ActionPayload json.RawMessage `json:"action_payload"`
	Timestamp     int64           `json:"timestamp"`
	// GameOver marks the action that finished the game.
	GameOver bool `json:"game_over,omitempty"`
}

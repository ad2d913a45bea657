// Package store is the persistence contract the game service runs against.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

var (
	// ErrStaleState is returned when a record changed since it was read.
	ErrStaleState = errors.New("stale state: record changed since it was read")
	ErrNotFound   = errors.New("record not found")
	// ErrProfileMissing means the identity exists but has no game profile.
	ErrProfileMissing = errors.New("profile missing")
)

// Batch is every record change one action makes. Commit applies it
// atomically, checking each patch's expected version.
type Batch struct {
	Game    *GamePatch
	Players []PlayerPatch
	Created []models.Player
	Deleted []uuid.UUID
}

// Empty reports whether the batch changes nothing.
func (b Batch) Empty() bool {
	return b.Game == nil && len(b.Players) == 0 && len(b.Created) == 0 && len(b.Deleted) == 0
}

// Store reads and writes Game and Player records.
type Store interface {
	CreateGame(ctx context.Context, g models.Game, host models.Player) error
	ReadGame(ctx context.Context, gameID uuid.UUID) (models.Game, error)
	FindGameByCode(ctx context.Context, code string) (models.Game, error)
	WriteGame(ctx context.Context, gameID uuid.UUID, patch GamePatch) (models.Game, error)

	ReadPlayers(ctx context.Context, gameID uuid.UUID) ([]models.Player, error)
	WritePlayer(ctx context.Context, gameID, userID uuid.UUID, patch PlayerPatch) (models.Player, error)
	DeletePlayer(ctx context.Context, gameID, userID uuid.UUID) error

	Commit(ctx context.Context, gameID uuid.UUID, b Batch) error
}

// ProfileStore holds display profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)
	CreateProfile(ctx context.Context, p models.Profile) error
}

// ChangeKind says which record a Change is about.
type ChangeKind string

const (
	ChangeGame   ChangeKind = "game"
	ChangePlayer ChangeKind = "player"
)

// Change notifies subscribers that a record of a game changed.
type Change struct {
	GameID  uuid.UUID  `json:"game_id"`
	Kind    ChangeKind `json:"kind"`
	UserID  uuid.UUID  `json:"user_id,omitempty"`
	Version int        `json:"version"`
}

// Notifier fans record changes out to subscribers. The channel returned by
// Subscribe is closed when ctx is done.
type Notifier interface {
	Publish(ctx context.Context, c Change) error
	Subscribe(ctx context.Context, gameID uuid.UUID) (<-chan Change, error)
}

// Changes lists the notifications a committed batch produces.
func Changes(gameID uuid.UUID, b Batch) []Change {
	var out []Change
	if b.Game != nil {
		out = append(out, Change{GameID: gameID, Kind: ChangeGame, Version: b.Game.ExpectVersion + 1})
	}
	for _, p := range b.Players {
		out = append(out, Change{GameID: gameID, Kind: ChangePlayer, UserID: p.Player.UserID, Version: p.ExpectVersion + 1})
	}
	for _, p := range b.Created {
		out = append(out, Change{GameID: gameID, Kind: ChangePlayer, UserID: p.UserID, Version: 1})
	}
	for _, id := range b.Deleted {
		out = append(out, Change{GameID: gameID, Kind: ChangePlayer, UserID: id})
	}
	return out
}

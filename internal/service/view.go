package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/game"
	"github.com/jason-s-yu/kombio/internal/models"
)

// View returns viewer's obfuscated snapshot of the game.
func (svc *Service) View(ctx context.Context, gameID, viewer uuid.UUID) (game.ObfGameState, error) {
	s, err := svc.load(ctx, gameID)
	if err != nil {
		return game.ObfGameState{}, err
	}
	return svc.ViewOf(s, viewer)
}

// ViewOf builds viewer's snapshot of an already loaded state.
func (svc *Service) ViewOf(s *game.State, viewer uuid.UUID) (game.ObfGameState, error) {
	if _, ok := s.Player(viewer); !ok {
		return game.ObfGameState{}, game.ErrPlayerNotFound
	}
	var peeked []int
	allowed := false
	switch s.Game.Status {
	case models.StatusFinished:
		// also covers games finished by another process
		svc.peeks.Forget(s.Game.ID)
	case models.StatusPlaying:
		peeked = svc.peeks.Revealed(s.Game.ID, viewer, s.Game.CurrentRound)
		allowed = svc.peeks.Allowed(s.Game.ID, viewer, s.Game.CurrentRound)
	}
	return game.View(s, viewer, peeked, allowed), nil
}

// PeekCard reveals one of the viewer's bottom cards. The first peek of a round
// opens the game's peek window.
func (svc *Service) PeekCard(ctx context.Context, gameID, viewer uuid.UUID, slot int) (game.ObfGameState, error) {
	s, err := svc.load(ctx, gameID)
	if err != nil {
		return game.ObfGameState{}, err
	}
	if _, ok := s.Player(viewer); !ok {
		return game.ObfGameState{}, game.ErrPlayerNotFound
	}
	if s.Game.Status != models.StatusPlaying {
		return game.ObfGameState{}, &game.IllegalActionError{Action: "peek", Reason: "game is not in play"}
	}
	window := time.Duration(s.Game.Rules.PeekWindowSec) * time.Second
	if _, err := svc.peeks.RevealWithin(gameID, viewer, s.Game.CurrentRound, slot, window); err != nil {
		return game.ObfGameState{}, err
	}
	return svc.ViewOf(s, viewer)
}

// ClosePeek hides the viewer's peeked cards for the rest of the round.
func (svc *Service) ClosePeek(ctx context.Context, gameID, viewer uuid.UUID) (game.ObfGameState, error) {
	s, err := svc.load(ctx, gameID)
	if err != nil {
		return game.ObfGameState{}, err
	}
	if _, ok := s.Player(viewer); !ok {
		return game.ObfGameState{}, game.ErrPlayerNotFound
	}
	svc.peeks.Close(gameID, viewer, s.Game.CurrentRound)
	return svc.ViewOf(s, viewer)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/game"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/jason-s-yu/kombio/internal/store"
	"github.com/sirupsen/logrus"
)

const codeAttempts = 5

// EnsureProfile returns the user's profile, creating a default one on first
// use. A failed creation is fatal for the request and wraps ErrProfileMissing.
func (svc *Service) EnsureProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	p, err := svc.profiles.GetProfile(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrProfileMissing) {
		return models.Profile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}

	p = models.Profile{ID: userID, DisplayName: models.DefaultDisplayName, CreatedAt: svc.now()}
	if err := svc.profiles.CreateProfile(ctx, p); err != nil {
		svc.log.WithError(err).WithField("user", userID).Error("auto-create profile")
		return models.Profile{}, fmt.Errorf("%w: could not create profile for %s: %v", store.ErrProfileMissing, userID, err)
	}
	svc.log.WithField("user", userID).Info("created default profile")
	return p, nil
}

// CreateGame opens a lobby hosted by hostID with a fresh join code.
func (svc *Service) CreateGame(ctx context.Context, hostID uuid.UUID, maxRounds int) (*game.State, error) {
	if _, err := svc.EnsureProfile(ctx, hostID); err != nil {
		return nil, err
	}
	if maxRounds == 0 {
		maxRounds = svc.maxRounds
	}

	code, err := svc.freshCode(ctx)
	if err != nil {
		return nil, err
	}
	s := game.NewGame(hostID, code, maxRounds, svc.rules, svc.now())
	if err := svc.store.CreateGame(ctx, s.Game, s.Players[0]); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	s.Game.Version = 1
	s.Players[0].Version = 1

	log := svc.log.WithFields(logrus.Fields{"game": s.Game.ID, "user": hostID, "action": "create_game"})
	log.WithField("code", code).Info("game created")
	b := store.Batch{Game: &store.GamePatch{}, Created: s.Players}
	svc.publish(ctx, log, hostID, "create_game", s, b, []game.Event{{Type: game.EventPlayerJoined, User: &game.EventUser{ID: hostID}}})
	return s, nil
}

// freshCode picks a code no open lobby is using.
func (svc *Service) freshCode(ctx context.Context) (string, error) {
	for range codeAttempts {
		code := svc.engine.GenerateCode()
		g, err := svc.store.FindGameByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) || (err == nil && g.Status != models.StatusLobby) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check game code: %w", err)
		}
	}
	return "", fmt.Errorf("no free game code after %d attempts", codeAttempts)
}

// NormalizeCode upper-cases and trims a user-entered join code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// JoinByCode seats userID in the newest game with the given code.
func (svc *Service) JoinByCode(ctx context.Context, userID uuid.UUID, code string) (*game.State, error) {
	code = NormalizeCode(code)
	if len(code) != game.CodeLength {
		return nil, fmt.Errorf("%w: code must be %d characters", game.ErrGameNotFound, game.CodeLength)
	}
	if _, err := svc.EnsureProfile(ctx, userID); err != nil {
		return nil, err
	}
	g, err := svc.store.FindGameByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: no game with code %s", game.ErrGameNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("find game %s: %w", code, err)
	}
	s, _, err := svc.mutate(ctx, g.ID, userID, "join", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.Join(s, userID)
	})
	return s, err
}

// Leave removes userID from the game.
func (svc *Service) Leave(ctx context.Context, gameID, userID uuid.UUID) (*game.State, error) {
	s, _, err := svc.mutate(ctx, gameID, userID, "leave", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.Leave(s, userID)
	})
	if err == nil && s.Game.Status == models.StatusFinished {
		svc.peeks.Forget(gameID)
	}
	return s, err
}

func (svc *Service) SetMaxRounds(ctx context.Context, gameID, actor uuid.UUID, n int) (*game.State, error) {
	s, _, err := svc.mutate(ctx, gameID, actor, "set_max_rounds", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.SetMaxRounds(s, actor, n)
	})
	return s, err
}

func (svc *Service) UpdateRules(ctx context.Context, gameID, actor uuid.UUID, changes map[string]interface{}) (*game.State, error) {
	s, _, err := svc.mutate(ctx, gameID, actor, "update_rules", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.UpdateRules(s, actor, changes)
	})
	return s, err
}

// Start deals the first round.
func (svc *Service) Start(ctx context.Context, gameID, actor uuid.UUID) (*game.State, error) {
	s, _, err := svc.mutate(ctx, gameID, actor, "start", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.Start(s, actor)
	})
	return s, err
}

package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/game"
	"github.com/jason-s-yu/kombio/internal/models"
)

// play runs an in-round command and drops peek windows once the game is over.
func (svc *Service) play(ctx context.Context, gameID, actor uuid.UUID, action string, fn transition) (*game.State, []game.Event, error) {
	s, events, err := svc.mutate(ctx, gameID, actor, action, fn)
	if err == nil && s.Game.Status == models.StatusFinished {
		svc.peeks.Forget(gameID)
	}
	return s, events, err
}

func (svc *Service) DrawFromDeck(ctx context.Context, gameID, actor uuid.UUID) (*game.State, error) {
	s, _, err := svc.play(ctx, gameID, actor, "draw_deck", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.DrawFromDeck(s, actor)
	})
	return s, err
}

func (svc *Service) DrawFromDiscard(ctx context.Context, gameID, actor uuid.UUID) (*game.State, error) {
	s, _, err := svc.play(ctx, gameID, actor, "draw_discard", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.DrawFromDiscard(s, actor)
	})
	return s, err
}

func (svc *Service) SwapWithHand(ctx context.Context, gameID, actor uuid.UUID, index int) (*game.State, error) {
	s, _, err := svc.play(ctx, gameID, actor, "swap", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.SwapWithHand(s, actor, index)
	})
	return s, err
}

func (svc *Service) DiscardDrawnCard(ctx context.Context, gameID, actor uuid.UUID) (*game.State, error) {
	s, _, err := svc.play(ctx, gameID, actor, "discard", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.DiscardDrawnCard(s, actor)
	})
	return s, err
}

// PreviewAbility reveals one selected card to the actor. The reveal is
// recorded on the pending card so it counts against the ability's limit.
func (svc *Service) PreviewAbility(ctx context.Context, gameID, actor uuid.UUID, sel game.Selection) (*game.State, game.RevealedCard, error) {
	var card game.RevealedCard
	s, _, err := svc.play(ctx, gameID, actor, "preview_ability", func(s *game.State) (*game.State, []game.Event, error) {
		next, rc, events, err := svc.engine.PreviewAbility(s, actor, sel)
		card = rc
		return next, events, err
	})
	if err != nil {
		return nil, game.RevealedCard{}, err
	}
	return s, card, nil
}

// UseAbility confirms the pending ability and returns what it revealed or swapped.
func (svc *Service) UseAbility(ctx context.Context, gameID, actor uuid.UUID, choice game.AbilityChoice) (*game.State, game.AbilityResult, error) {
	var result game.AbilityResult
	s, _, err := svc.play(ctx, gameID, actor, "use_ability", func(s *game.State) (*game.State, []game.Event, error) {
		next, res, events, err := svc.engine.UseAbility(s, actor, choice)
		result = res
		return next, events, err
	})
	if err != nil {
		return nil, nil, err
	}
	return s, result, nil
}

func (svc *Service) SkipAbility(ctx context.Context, gameID, actor uuid.UUID) (*game.State, error) {
	s, _, err := svc.play(ctx, gameID, actor, "skip_ability", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.SkipAbility(s, actor)
	})
	return s, err
}

// AttemptMatch lets attempter try to match target's card at index against the
// discard top. A failed match is not an error; the events report it.
func (svc *Service) AttemptMatch(ctx context.Context, gameID, attempter, target uuid.UUID, index int) (*game.State, []game.Event, error) {
	return svc.play(ctx, gameID, attempter, "match", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.AttemptMatch(s, attempter, target, index)
	})
}

func (svc *Service) CallKombio(ctx context.Context, gameID, actor uuid.UUID) (*game.State, error) {
	s, _, err := svc.play(ctx, gameID, actor, "kombio", func(s *game.State) (*game.State, []game.Event, error) {
		return svc.engine.CallKombio(s, actor)
	})
	return s, err
}

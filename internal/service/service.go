// Package service runs player commands against the store. Each command is an
// optimistic read-modify-write: read the game, run the pure transition, commit
// the diff with version checks, and retry from a fresh read on conflict.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/game"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/jason-s-yu/kombio/internal/store"
	"github.com/sirupsen/logrus"
)

// DefaultRetries is how many times a conflicting command is re-run.
const DefaultRetries = 3

// ActionLog receives one record per committed command.
type ActionLog interface {
	PublishGameAction(ctx context.Context, record models.GameAction) error
}

type Options struct {
	Retries   int
	MaxRounds int
	Rules     models.HouseRules
	Seed      int64
	Now       func() time.Time
	Logger    *logrus.Logger
}

type Service struct {
	store    store.Store
	profiles store.ProfileStore
	notifier store.Notifier
	actions  ActionLog

	engine    *game.Engine
	peeks     *game.PeekTracker
	locks     *gameLocks
	log       *logrus.Logger
	now       func() time.Time
	retries   int
	maxRounds int
	rules     models.HouseRules
}

// New builds a Service. notifier and actions may be nil.
func New(st store.Store, profiles store.ProfileStore, notifier store.Notifier, actions ActionLog, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.MaxRounds == 0 {
		opts.MaxRounds = 5
	}
	if opts.Rules == (models.HouseRules{}) {
		opts.Rules = models.DefaultHouseRules()
	}
	return &Service{
		store:     st,
		profiles:  profiles,
		notifier:  notifier,
		actions:   actions,
		engine:    game.NewEngine(opts.Seed),
		peeks:     game.NewPeekTracker(time.Duration(opts.Rules.PeekWindowSec)*time.Second, opts.Now),
		locks:     &gameLocks{m: make(map[uuid.UUID]*lockEntry)},
		log:       opts.Logger,
		now:       opts.Now,
		retries:   opts.Retries,
		maxRounds: opts.MaxRounds,
		rules:     opts.Rules,
	}
}

// Notifier is the change source handlers subscribe to. It may be nil.
func (svc *Service) Notifier() store.Notifier {
	return svc.notifier
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// gameLocks serializes commands per game inside one process. Commits across
// processes are still guarded by record versions.
type gameLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*lockEntry
}

func (l *gameLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &lockEntry{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

// load reads the freshest state of a game.
func (svc *Service) load(ctx context.Context, gameID uuid.UUID) (*game.State, error) {
	g, err := svc.store.ReadGame(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("read game %s: %w", gameID, err)
	}
	players, err := svc.store.ReadPlayers(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("read players of %s: %w", gameID, err)
	}
	return game.NewState(g, players), nil
}

type transition func(s *game.State) (*game.State, []game.Event, error)

// mutate runs fn against the freshest state and commits the result. fn may run
// more than once, so it must not have side effects beyond its return values.
func (svc *Service) mutate(ctx context.Context, gameID, actor uuid.UUID, action string, fn transition) (*game.State, []game.Event, error) {
	unlock := svc.locks.lock(gameID)
	defer unlock()

	log := svc.log.WithFields(logrus.Fields{"game": gameID, "user": actor, "action": action})
	var conflict error
	for attempt := 0; attempt <= svc.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		cur, err := svc.load(ctx, gameID)
		if err != nil {
			return nil, nil, err
		}
		next, events, err := fn(cur)
		if err != nil {
			log.WithError(err).Debug("command rejected")
			return nil, nil, err
		}

		b := store.Diff(cur.Game, cur.Players, next.Game, next.Players)
		if b.Empty() {
			return next, events, nil
		}
		// Every command bumps the game version so concurrent commands on
		// different players still conflict and the version can index the log.
		if b.Game == nil {
			b.Game = &store.GamePatch{ExpectVersion: cur.Game.Version, Game: next.Game.Clone()}
		}

		err = svc.store.Commit(ctx, gameID, b)
		if errors.Is(err, store.ErrStaleState) {
			conflict = err
			log.WithField("attempt", attempt+1).Warn("stale state, retrying")
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("commit %s: %w", action, err)
		}

		bumpVersions(next, b)
		log.WithField("events", len(events)).Debug("command committed")
		svc.publish(ctx, log, actor, action, next, b, events)
		return next, events, nil
	}
	return nil, nil, fmt.Errorf("%s after %d attempts: %w", action, svc.retries+1, conflict)
}

// bumpVersions brings s in line with the versions the commit produced.
func bumpVersions(s *game.State, b store.Batch) {
	s.Game.Version = b.Game.ExpectVersion + 1
	for i := range s.Players {
		p := &s.Players[i]
		for _, pp := range b.Players {
			if pp.Player.UserID == p.UserID {
				p.Version = pp.ExpectVersion + 1
			}
		}
		for _, c := range b.Created {
			if c.UserID == p.UserID {
				p.Version = 1
			}
		}
	}
}

// publish fans a committed batch out. Failures are logged; the commit stands.
func (svc *Service) publish(ctx context.Context, log *logrus.Entry, actor uuid.UUID, action string, s *game.State, b store.Batch, events []game.Event) {
	gameID := s.Game.ID
	if svc.notifier != nil {
		for _, c := range store.Changes(gameID, b) {
			if err := svc.notifier.Publish(ctx, c); err != nil {
				log.WithError(err).Warn("publish change")
			}
		}
	}
	if svc.actions == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{"events": events})
	if err != nil {
		log.WithError(err).Error("marshal action payload")
		return
	}
	record := models.GameAction{
		GameID:        gameID,
		ActionIndex:   s.Game.Version,
		ActorUserID:   actor,
		ActionType:    action,
		ActionPayload: payload,
		Timestamp:     svc.now().UnixMilli(),
		GameOver:      gameOver(events),
	}
	if err := svc.actions.PublishGameAction(ctx, record); err != nil {
		log.WithError(err).Warn("publish action record")
	}
}

func gameOver(events []game.Event) bool {
	return slices.ContainsFunc(events, func(ev game.Event) bool { return ev.Type == game.EventGameEnd })
}

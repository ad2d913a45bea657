package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
)

type memGame struct {
	game    models.Game
	players map[uuid.UUID]models.Player
}

// MemoryStore keeps games in process memory. It is the default backend and
// the one the tests run against.
type MemoryStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*memGame
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[uuid.UUID]*memGame),
		now:   time.Now,
	}
}

func (s *MemoryStore) CreateGame(_ context.Context, g models.Game, host models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[g.ID]; exists {
		return ErrStaleState
	}
	g = g.Clone()
	g.Version = 1
	host = host.Clone()
	host.Version = 1
	s.games[g.ID] = &memGame{game: g, players: map[uuid.UUID]models.Player{host.UserID: host}}
	return nil
}

func (s *MemoryStore) ReadGame(_ context.Context, gameID uuid.UUID) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mg, ok := s.games[gameID]
	if !ok {
		return models.Game{}, ErrNotFound
	}
	return mg.game.Clone(), nil
}

// FindGameByCode returns the newest game with the given code.
func (s *MemoryStore) FindGameByCode(_ context.Context, code string) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *models.Game
	for _, mg := range s.games {
		if mg.game.Code != code {
			continue
		}
		if found == nil || mg.game.CreatedAt.After(found.CreatedAt) {
			g := mg.game
			found = &g
		}
	}
	if found == nil {
		return models.Game{}, ErrNotFound
	}
	return found.Clone(), nil
}

func (s *MemoryStore) WriteGame(_ context.Context, gameID uuid.UUID, patch GamePatch) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mg, ok := s.games[gameID]
	if !ok {
		return models.Game{}, ErrNotFound
	}
	next, err := patch.Apply(mg.game)
	if err != nil {
		return models.Game{}, err
	}
	next.UpdatedAt = s.now()
	mg.game = next
	return next.Clone(), nil
}

// ReadPlayers returns the players of a game ordered by Order.
func (s *MemoryStore) ReadPlayers(_ context.Context, gameID uuid.UUID) ([]models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mg, ok := s.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return sortedPlayers(mg.players), nil
}

func sortedPlayers(m map[uuid.UUID]models.Player) []models.Player {
	out := make([]models.Player, 0, len(m))
	for _, p := range m {
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b models.Player) int { return a.Order - b.Order })
	return out
}

func (s *MemoryStore) WritePlayer(_ context.Context, gameID, userID uuid.UUID, patch PlayerPatch) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mg, ok := s.games[gameID]
	if !ok {
		return models.Player{}, ErrNotFound
	}
	cur, ok := mg.players[userID]
	if !ok {
		return models.Player{}, ErrNotFound
	}
	next, err := patch.Apply(cur)
	if err != nil {
		return models.Player{}, err
	}
	mg.players[userID] = next
	return next.Clone(), nil
}

func (s *MemoryStore) DeletePlayer(_ context.Context, gameID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mg, ok := s.games[gameID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := mg.players[userID]; !ok {
		return ErrNotFound
	}
	delete(mg.players, userID)
	return nil
}

// Commit validates every patch in b before applying any of them.
func (s *MemoryStore) Commit(_ context.Context, gameID uuid.UUID, b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mg, ok := s.games[gameID]
	if !ok {
		return ErrNotFound
	}

	var nextGame *models.Game
	if b.Game != nil {
		g, err := b.Game.Apply(mg.game)
		if err != nil {
			return err
		}
		g.UpdatedAt = s.now()
		nextGame = &g
	}
	nextPlayers := make(map[uuid.UUID]models.Player, len(b.Players))
	for _, pp := range b.Players {
		cur, ok := mg.players[pp.Player.UserID]
		if !ok {
			return ErrStaleState
		}
		p, err := pp.Apply(cur)
		if err != nil {
			return err
		}
		nextPlayers[p.UserID] = p
	}
	for _, p := range b.Created {
		if _, exists := mg.players[p.UserID]; exists {
			return ErrStaleState
		}
	}
	for _, id := range b.Deleted {
		if _, ok := mg.players[id]; !ok {
			return ErrStaleState
		}
	}

	if nextGame != nil {
		mg.game = *nextGame
	}
	for id, p := range nextPlayers {
		mg.players[id] = p
	}
	for _, p := range b.Created {
		p = p.Clone()
		p.Version = 1
		mg.players[p.UserID] = p
	}
	for _, id := range b.Deleted {
		delete(mg.players, id)
	}
	return nil
}

// MemoryProfiles is an in-process ProfileStore.
type MemoryProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]models.Profile

	// FailCreate makes CreateProfile fail, for exercising the fatal path.
	FailCreate error
}

func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{profiles: make(map[uuid.UUID]models.Profile)}
}

func (m *MemoryProfiles) GetProfile(_ context.Context, userID uuid.UUID) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return models.Profile{}, ErrProfileMissing
	}
	return p, nil
}

func (m *MemoryProfiles) CreateProfile(_ context.Context, p models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return m.FailCreate
	}
	m.profiles[p.ID] = p
	return nil
}

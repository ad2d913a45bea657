// Package historian drains the Redis action queue into durable storage.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Sink persists batches of action records.
type Sink interface {
	InsertActions(ctx context.Context, actions []models.GameAction) error
}

// Abandoner finishes games that stopped producing actions. Sinks may implement it.
type Abandoner interface {
	AbandonGame(ctx context.Context, gameID uuid.UUID) (bool, error)
}

type Config struct {
	Queue         string
	BatchSize     int
	FlushInterval time.Duration
	// Inactivity is how long a game may go without actions before it is
	// abandoned. Zero disables the sweep.
	Inactivity time.Duration
	PopTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Queue == "" {
		c.Queue = "kombio_actions"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 500 * time.Millisecond
	}
	if c.PopTimeout < time.Second {
		c.PopTimeout = time.Second
	}
	return c
}

// Service pops records off the queue, batches them and flushes to a Sink.
type Service struct {
	rdb  *redis.Client
	sink Sink
	cfg  Config
	log  *logrus.Logger
	now  func() time.Time

	batch        []models.GameAction
	lastFlush    time.Time
	lastSweep    time.Time
	lastActivity map[uuid.UUID]time.Time
}

func New(rdb *redis.Client, sink Sink, cfg Config, logger *logrus.Logger) *Service {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		rdb:          rdb,
		sink:         sink,
		cfg:          cfg,
		log:          logger,
		now:          time.Now,
		batch:        make([]models.GameAction, 0, cfg.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
	}
}

// Run blocks until ctx is cancelled. Whatever is batched at that point is flushed
// before returning.
func (s *Service) Run(ctx context.Context) error {
	s.log.WithField("queue", s.cfg.Queue).Info("historian started")
	s.lastFlush = s.now()
	s.lastSweep = s.now()

	for {
		if ctx.Err() != nil {
			s.flush(context.Background())
			s.log.Info("historian stopped")
			return nil
		}

		res, err := s.rdb.BLPop(ctx, s.cfg.PopTimeout, s.cfg.Queue).Result()
		switch {
		case err == nil && len(res) == 2:
			s.accept(res[1])
		case err == nil, errors.Is(err, redis.Nil):
		case ctx.Err() != nil:
			continue
		default:
			s.log.WithError(err).Error("BLPop")
			time.Sleep(200 * time.Millisecond)
		}

		if len(s.batch) >= s.cfg.BatchSize || s.now().Sub(s.lastFlush) >= s.cfg.FlushInterval {
			s.flush(ctx)
		}
		if s.cfg.Inactivity > 0 && s.now().Sub(s.lastSweep) >= time.Minute {
			s.sweep(ctx)
		}
	}
}

func (s *Service) accept(payload string) {
	var record models.GameAction
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		s.log.WithError(err).Warn("invalid action record")
		return
	}
	s.batch = append(s.batch, record)
	s.track(record)
}

func (s *Service) track(record models.GameAction) {
	if record.GameOver {
		delete(s.lastActivity, record.GameID)
		return
	}
	s.lastActivity[record.GameID] = s.now()
}

// flush writes the batch in one call. A failed batch is dropped after logging.
func (s *Service) flush(ctx context.Context) {
	s.lastFlush = s.now()
	if len(s.batch) == 0 {
		return
	}
	batch := make([]models.GameAction, len(s.batch))
	copy(batch, s.batch)
	s.batch = s.batch[:0]

	if err := s.sink.InsertActions(ctx, batch); err != nil {
		s.log.WithError(err).WithField("count", len(batch)).Error("flush actions")
		return
	}
	s.log.WithField("count", len(batch)).Debug("flushed actions")
}

func (s *Service) sweep(ctx context.Context) {
	s.lastSweep = s.now()
	ab, ok := s.sink.(Abandoner)
	if !ok {
		return
	}
	now := s.now()
	for gameID, last := range s.lastActivity {
		if now.Sub(last) <= s.cfg.Inactivity {
			continue
		}
		delete(s.lastActivity, gameID)
		changed, err := ab.AbandonGame(ctx, gameID)
		if err != nil {
			s.log.WithError(err).WithField("game", gameID).Error("abandon game")
			continue
		}
		if changed {
			s.log.WithField("game", gameID).Info("game abandoned due to inactivity")
		}
	}
}

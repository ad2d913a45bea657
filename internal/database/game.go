// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/jason-s-yu/kombio/internal/store"
)

// PgStore is the Postgres implementation of store.Store. Every write checks
// the row version so concurrent writers see store.ErrStaleState.
type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

var _ store.Store = (*PgStore)(nil)

const gameColumns = `id, code, host_id, status, current_round, max_rounds, current_turn_player_id,
	deck, discard_pile, last_discarded_card, kombio_caller_id, final_turns, pending_card,
	house_rules, last_round_result, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (models.Game, error) {
	var g models.Game
	var status string
	var caller uuid.NullUUID
	var deck, pile, last, final, pending, rules, result []byte
	err := row.Scan(&g.ID, &g.Code, &g.HostID, &status, &g.CurrentRound, &g.MaxRounds, &g.CurrentTurnPlayerID,
		&deck, &pile, &last, &caller, &final, &pending,
		&rules, &result, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Game{}, store.ErrNotFound
	}
	if err != nil {
		return models.Game{}, err
	}
	g.Status = models.GameStatus(status)
	if caller.Valid {
		id := caller.UUID
		g.KombioCallerID = &id
	}
	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{deck, &g.Deck}, {pile, &g.DiscardPile}, {last, &g.LastDiscardedCard},
		{final, &g.FinalTurns}, {pending, &g.Pending}, {rules, &g.Rules}, {result, &g.LastRoundResult},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return models.Game{}, fmt.Errorf("decoding game column: %w", err)
		}
	}
	return g, nil
}

// gameColumnValue encodes one patched field as a query argument.
func gameColumnValue(p store.GamePatch, f store.GameField) (any, error) {
	switch f {
	case store.GameStatus:
		return string(p.Game.Status), nil
	case store.GameKombioCaller:
		if p.Game.KombioCallerID == nil {
			return uuid.NullUUID{}, nil
		}
		return uuid.NullUUID{UUID: *p.Game.KombioCallerID, Valid: true}, nil
	case store.GameHostID, store.GameCurrentRound, store.GameMaxRounds, store.GameCurrentTurn:
		return p.Value(f), nil
	}
	v := p.Value(f)
	if isNilPointer(v) {
		return nil, nil
	}
	return json.Marshal(v)
}

func isNilPointer(v any) bool {
	switch x := v.(type) {
	case *models.Card:
		return x == nil
	case *models.PendingCard:
		return x == nil
	case *models.RoundResult:
		return x == nil
	}
	return false
}

func marshalOr(v any, empty string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte(empty), nil
	}
	return b, nil
}

// CreateGame inserts the game and its host in one transaction.
func (s *PgStore) CreateGame(ctx context.Context, g models.Game, host models.Player) error {
	deck, err := marshalOr(g.Deck, "[]")
	if err != nil {
		return err
	}
	pile, err := marshalOr(g.DiscardPile, "[]")
	if err != nil {
		return err
	}
	rules, err := json.Marshal(g.Rules)
	if err != nil {
		return err
	}
	q := `INSERT INTO games (id, code, host_id, status, current_round, max_rounds, deck, discard_pile, house_rules, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`
	err = pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, q, g.ID, g.Code, g.HostID, string(g.Status), g.CurrentRound, g.MaxRounds, deck, pile, rules, g.CreatedAt); err != nil {
			return err
		}
		return insertPlayer(ctx, tx, host)
	})
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

func (s *PgStore) ReadGame(ctx context.Context, gameID uuid.UUID) (models.Game, error) {
	q := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	return scanGame(s.db.QueryRow(ctx, q, gameID))
}

func (s *PgStore) FindGameByCode(ctx context.Context, code string) (models.Game, error) {
	q := `SELECT ` + gameColumns + ` FROM games WHERE code = $1 ORDER BY created_at DESC LIMIT 1`
	return scanGame(s.db.QueryRow(ctx, q, code))
}

func (s *PgStore) WriteGame(ctx context.Context, gameID uuid.UUID, patch store.GamePatch) (models.Game, error) {
	var out models.Game
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := lockGame(ctx, tx, gameID, patch.ExpectVersion); err != nil {
			return err
		}
		if err := updateGame(ctx, tx, gameID, patch); err != nil {
			return err
		}
		var err error
		out, err = scanGame(tx.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, gameID))
		return err
	})
	return out, err
}

// lockGame takes the row lock and checks the expected version.
func lockGame(ctx context.Context, tx pgx.Tx, gameID uuid.UUID, expect int) error {
	var version int
	err := tx.QueryRow(ctx, `SELECT version FROM games WHERE id = $1 FOR UPDATE`, gameID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	if expect >= 0 && version != expect {
		return store.ErrStaleState
	}
	return nil
}

func updateGame(ctx context.Context, tx pgx.Tx, gameID uuid.UUID, patch store.GamePatch) error {
	sets := make([]string, 0, len(patch.Fields)+2)
	args := make([]any, 0, len(patch.Fields)+2)
	for _, f := range patch.Fields {
		v, err := gameColumnValue(patch, f)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", f, err)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", f, len(args)))
	}
	sets = append(sets, "version = version + 1", "updated_at = NOW()")
	args = append(args, gameID, patch.ExpectVersion)
	q := fmt.Sprintf(`UPDATE games SET %s WHERE id = $%d AND version = $%d`, strings.Join(sets, ", "), len(args)-1, len(args))
	tag, err := tx.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrStaleState
	}
	return nil
}

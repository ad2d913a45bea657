package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/jason-s-yu/kombio/internal/store"
)

const playerColumns = `game_id, user_id, player_order, current_hand, viewed_cards, total_score, version`

func scanPlayer(row rowScanner) (models.Player, error) {
	var p models.Player
	var hand, viewed []byte
	if err := row.Scan(&p.GameID, &p.UserID, &p.Order, &hand, &viewed, &p.TotalScore, &p.Version); err != nil {
		return models.Player{}, err
	}
	if err := json.Unmarshal(hand, &p.Hand); err != nil {
		return models.Player{}, fmt.Errorf("decoding hand: %w", err)
	}
	if err := json.Unmarshal(viewed, &p.ViewedCardIDs); err != nil {
		return models.Player{}, fmt.Errorf("decoding viewed cards: %w", err)
	}
	return p, nil
}

func insertPlayer(ctx context.Context, tx pgx.Tx, p models.Player) error {
	hand, err := marshalOr(p.Hand, "[]")
	if err != nil {
		return err
	}
	viewed, err := marshalOr(p.ViewedCardIDs, "[]")
	if err != nil {
		return err
	}
	q := `INSERT INTO game_players (game_id, user_id, player_order, current_hand, viewed_cards, total_score)
	      VALUES ($1, $2, $3, $4, $5, $6)
	      ON CONFLICT (game_id, user_id) DO NOTHING`
	tag, err := tx.Exec(ctx, q, p.GameID, p.UserID, p.Order, hand, viewed, p.TotalScore)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrStaleState
	}
	return nil
}

// ReadPlayers returns the players of a game ordered by player_order.
func (s *PgStore) ReadPlayers(ctx context.Context, gameID uuid.UUID) ([]models.Player, error) {
	q := `SELECT ` + playerColumns + ` FROM game_players WHERE game_id = $1 ORDER BY player_order`
	rows, err := s.db.Query(ctx, q, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *PgStore) WritePlayer(ctx context.Context, gameID, userID uuid.UUID, patch store.PlayerPatch) (models.Player, error) {
	var out models.Player
	patch.Player.UserID = userID
	err := pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := lockGame(ctx, tx, gameID, -1); err != nil {
			return err
		}
		if err := updatePlayer(ctx, tx, gameID, patch); err != nil {
			return err
		}
		var err error
		out, err = scanPlayer(tx.QueryRow(ctx, `SELECT `+playerColumns+` FROM game_players WHERE game_id = $1 AND user_id = $2`, gameID, userID))
		return err
	})
	return out, err
}

func updatePlayer(ctx context.Context, tx pgx.Tx, gameID uuid.UUID, patch store.PlayerPatch) error {
	sets := make([]string, 0, len(patch.Fields)+1)
	args := make([]any, 0, len(patch.Fields)+3)
	for _, f := range patch.Fields {
		v := patch.Value(f)
		if f == store.PlayerHand || f == store.PlayerViewedCards {
			b, err := marshalOr(v, "[]")
			if err != nil {
				return fmt.Errorf("encoding %s: %w", f, err)
			}
			v = b
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", f, len(args)))
	}
	sets = append(sets, "version = version + 1")
	args = append(args, gameID, patch.Player.UserID, patch.ExpectVersion)
	n := len(args)
	q := fmt.Sprintf(`UPDATE game_players SET %s WHERE game_id = $%d AND user_id = $%d AND version = $%d`,
		strings.Join(sets, ", "), n-2, n-1, n)
	tag, err := tx.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrStaleState
	}
	return nil
}

func (s *PgStore) DeletePlayer(ctx context.Context, gameID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM game_players WHERE game_id = $1 AND user_id = $2`, gameID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Commit applies the whole batch in one transaction under the game row lock.
func (s *PgStore) Commit(ctx context.Context, gameID uuid.UUID, b store.Batch) error {
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		expect := -1
		if b.Game != nil {
			expect = b.Game.ExpectVersion
		}
		if err := lockGame(ctx, tx, gameID, expect); err != nil {
			return err
		}
		if b.Game != nil {
			if err := updateGame(ctx, tx, gameID, *b.Game); err != nil {
				return err
			}
		}
		for _, pp := range b.Players {
			if err := updatePlayer(ctx, tx, gameID, pp); err != nil {
				return err
			}
		}
		for _, p := range b.Created {
			if err := insertPlayer(ctx, tx, p); err != nil {
				return err
			}
		}
		for _, id := range b.Deleted {
			tag, err := tx.Exec(ctx, `DELETE FROM game_players WHERE game_id = $1 AND user_id = $2`, gameID, id)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return store.ErrStaleState
			}
		}
		return nil
	})
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/kombio/internal/models"
)

// ActionRepo writes the game action history.
type ActionRepo struct {
	db *pgxpool.Pool
}

func NewActionRepo(db *pgxpool.Pool) *ActionRepo {
	return &ActionRepo{db: db}
}

// InsertActions stores a batch of action records in a single transaction.
// Records already stored (same game and index) are skipped.
func (r *ActionRepo) InsertActions(ctx context.Context, actions []models.GameAction) error {
	q := `
		INSERT INTO game_actions (game_id, action_index, actor_user_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, a := range actions {
			payload := []byte(a.ActionPayload)
			if len(payload) == 0 {
				payload = []byte("{}")
			}
			ts := time.UnixMilli(a.Timestamp)
			if _, err := tx.Exec(ctx, q, a.GameID, a.ActionIndex, a.ActorUserID, a.ActionType, payload, ts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert game actions: %w", err)
	}
	return nil
}

// AbandonGame finishes a game that is still in play. It returns false when the
// game was not playing.
func (r *ActionRepo) AbandonGame(ctx context.Context, gameID uuid.UUID) (bool, error) {
	q := `
		UPDATE games
		SET status = 'finished', current_turn_player_id = '00000000-0000-0000-0000-000000000000', pending_card = NULL,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'playing'
	`
	tag, err := r.db.Exec(ctx, q, gameID)
	if err != nil {
		return false, fmt.Errorf("abandon game %s: %w", gameID, err)
	}
	return tag.RowsAffected() > 0, nil
}

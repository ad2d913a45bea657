package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/jason-s-yu/kombio/internal/store"
)

// ProfileRepo stores display profiles in Postgres.
type ProfileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepo(db *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{db: db}
}

var _ store.ProfileStore = (*ProfileRepo)(nil)

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	var p models.Profile
	q := `SELECT id, display_name, created_at FROM profiles WHERE id = $1`
	err := r.db.QueryRow(ctx, q, userID).Scan(&p.ID, &p.DisplayName, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Profile{}, store.ErrProfileMissing
	}
	if err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

func (r *ProfileRepo) CreateProfile(ctx context.Context, p models.Profile) error {
	q := `INSERT INTO profiles (id, display_name, created_at) VALUES ($1, $2, $3)
	      ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.Exec(ctx, q, p.ID, p.DisplayName, p.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

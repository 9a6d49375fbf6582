package provider

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/servicehub/servicehub-api/internal/pkg/database"
)

const queryTimeout = 3 * time.Second

// Repository defines provider data access
type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Provider, error)
	ServicemanBelongsTo(ctx context.Context, servicemanID, providerID uuid.UUID) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates provider repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Provider
	err := r.db.GetContext(ctx, &p, `
		SELECT id, user_id, zone_id, email, created_at
		FROM providers
		WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.LogQueryError(ctx, "providers.get_by_user", err, "user_id", userID.String())
	}
	return &p, nil
}

func (r *repository) ServicemanBelongsTo(ctx context.Context, servicemanID, providerID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM servicemen WHERE id = $1 AND provider_id = $2)
	`, servicemanID, providerID)
	return exists, database.LogQueryError(ctx, "servicemen.belongs_to", err,
		"serviceman_id", servicemanID.String(), "provider_id", providerID.String())
}

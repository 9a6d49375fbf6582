package zone

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/servicehub/servicehub-api/internal/pkg/database"
)

const queryTimeout = 3 * time.Second

// Repository defines zone data access
type Repository interface {
	ListActive(ctx context.Context) ([]Zone, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Zone, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates zone repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// ListActive returns active zones, newest first
func (r *repository) ListActive(ctx context.Context) ([]Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	zones := []Zone{}
	err := r.db.SelectContext(ctx, &zones, `
		SELECT id, name, is_active FROM zones
		WHERE is_active = true
		ORDER BY created_at DESC
	`)
	return zones, database.LogQueryError(ctx, "zones.list_active", err)
}

// ListByCategory returns the active zones a category is offered in
func (r *repository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	zones := []Zone{}
	err := r.db.SelectContext(ctx, &zones, `
		SELECT z.id, z.name, z.is_active
		FROM zones z
		JOIN category_zone cz ON cz.zone_id = z.id
		WHERE cz.category_id = $1 AND z.is_active = true
		ORDER BY z.created_at DESC
	`, categoryID)
	return zones, database.LogQueryError(ctx, "zones.list_by_category", err, "category_id", categoryID.String())
}

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/servicehub/servicehub-api/internal/pkg/database"
)

const queryTimeout = 5 * time.Second

// Repository defines subscription data access
type Repository interface {
	// Toggle flips the subscription of a sub-category whose parent is offered in
	// the zone. Returns nil when the sub-category is not available there.
	Toggle(ctx context.Context, providerID, zoneID, subCategoryID uuid.UUID) (*Subscription, error)
	ListCategories(ctx context.Context, zoneID uuid.UUID) ([]Category, error)
	ListSubCategories(ctx context.Context, zoneID uuid.UUID, parentID *uuid.UUID) ([]SubCategory, error)
	ListSubscribed(ctx context.Context, providerID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates subscription repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Toggle(ctx context.Context, providerID, zoneID, subCategoryID uuid.UUID) (*Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// the zone check and the flip are one statement, so a refused toggle writes nothing
	query := `
		INSERT INTO subscribed_services (id, provider_id, category_id, sub_category_id, is_subscribed, created_at, updated_at)
		SELECT $1, $2, sc.parent_id, sc.id, true, NOW(), NOW()
		FROM categories sc
		WHERE sc.id = $3
		  AND sc.position = 2
		  AND EXISTS (
			SELECT 1 FROM category_zone cz
			WHERE cz.category_id = sc.parent_id AND cz.zone_id = $4
		  )
		ON CONFLICT (provider_id, sub_category_id) DO UPDATE SET
			is_subscribed = NOT subscribed_services.is_subscribed,
			category_id = EXCLUDED.category_id,
			updated_at = NOW()
		RETURNING id, provider_id, category_id, sub_category_id, is_subscribed, updated_at
	`

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, uuid.New(), providerID, subCategoryID, zoneID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.LogQueryError(ctx, "subscribed_services.toggle", err,
			"provider_id", providerID.String(), "sub_category_id", subCategoryID.String())
	}
	return &sub, nil
}

func (r *repository) ListCategories(ctx context.Context, zoneID uuid.UUID) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	categories := []Category{}
	err := r.db.SelectContext(ctx, &categories, `
		SELECT c.id, c.name
		FROM categories c
		JOIN category_zone cz ON cz.category_id = c.id
		WHERE cz.zone_id = $1 AND c.position = 1 AND c.is_active = true
		ORDER BY c.name
	`, zoneID)
	return categories, database.LogQueryError(ctx, "categories.list", err, "zone_id", zoneID.String())
}

func (r *repository) ListSubCategories(ctx context.Context, zoneID uuid.UUID, parentID *uuid.UUID) ([]SubCategory, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT sc.id, sc.parent_id, sc.name,
		       (SELECT COUNT(*) FROM services s
		        WHERE s.sub_category_id = sc.id AND s.is_active = true) AS services_count
		FROM categories sc
		JOIN categories p ON p.id = sc.parent_id
		JOIN category_zone cz ON cz.category_id = p.id
		WHERE cz.zone_id = $1
		  AND sc.position = 2 AND sc.is_active = true
		  AND p.is_active = true
	`
	args := []interface{}{zoneID}
	if parentID != nil {
		query += ` AND sc.parent_id = $2`
		args = append(args, *parentID)
	}
	query += ` ORDER BY sc.name`

	subs := []SubCategory{}
	err := r.db.SelectContext(ctx, &subs, query, args...)
	return subs, database.LogQueryError(ctx, "categories.list_sub", err, "zone_id", zoneID.String())
}

func (r *repository) ListSubscribed(ctx context.Context, providerID uuid.UUID) ([]uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ids := []uuid.UUID{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT sub_category_id FROM subscribed_services
		WHERE provider_id = $1 AND is_subscribed = true
	`, providerID)
	return ids, database.LogQueryError(ctx, "subscribed_services.list", err, "provider_id", providerID.String())
}

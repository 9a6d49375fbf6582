package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/servicehub/servicehub-api/internal/pkg/database"
)

const queryTimeout = 5 * time.Second

// Repository defines review data access
type Repository interface {
	RatingGroups(ctx context.Context, filter Filter) ([]RatingGroup, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Review, int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates review repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func filterConditions(f Filter) (string, []interface{}) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if f.ServiceID != nil {
		args = append(args, *f.ServiceID)
		conditions = append(conditions, fmt.Sprintf("service_id = $%d", len(args)))
	}
	if f.ProviderID != nil {
		args = append(args, *f.ProviderID)
		conditions = append(conditions, fmt.Sprintf("provider_id = $%d", len(args)))
	}
	switch f.Status {
	case StatusActive:
		conditions = append(conditions, "is_active = true")
	case StatusInactive:
		conditions = append(conditions, "is_active = false")
	}

	return strings.Join(conditions, " AND "), args
}

// RatingGroups counts reviews per rating value
func (r *repository) RatingGroups(ctx context.Context, filter Filter) ([]RatingGroup, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where, args := filterConditions(filter)
	groups := []RatingGroup{}
	err := r.db.SelectContext(ctx, &groups, `
		SELECT review_rating, COUNT(*) AS total
		FROM reviews
		WHERE `+where+`
		GROUP BY review_rating
		ORDER BY review_rating DESC
	`, args...)
	return groups, database.LogQueryError(ctx, "reviews.rating_groups", err)
}

// List returns reviews newest first
func (r *repository) List(ctx context.Context, filter Filter, limit, offset int) ([]Review, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where, args := filterConditions(filter)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews WHERE `+where, args...); err != nil {
		return nil, 0, database.LogQueryError(ctx, "reviews.count", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, booking_id, service_id, provider_id, customer_id, review_rating,
		       review_comment, is_active, created_at
		FROM reviews
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	reviews := []Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, database.LogQueryError(ctx, "reviews.list", err)
	}
	return reviews, total, nil
}

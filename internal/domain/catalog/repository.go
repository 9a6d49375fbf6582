package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/servicehub/servicehub-api/internal/pkg/database"
)

const queryTimeout = 5 * time.Second

// Repository defines catalog data access. Create, Update and Delete each run in
// a single transaction.
type Repository interface {
	Create(ctx context.Context, s *Offering, tags []string, variations []Variation) error
	// Update rewrites the service row and replaces all of its variations.
	// Tag links are replaced only when tags is non-nil.
	Update(ctx context.Context, s *Offering, tags []string, variations []Variation) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Offering, error)
	ToggleActive(ctx context.Context, id uuid.UUID, email string) (active bool, found bool, err error)

	ListByOwner(ctx context.Context, filter ListFilter, limit, offset int) ([]Offering, int, error)

	ListVariations(ctx context.Context, serviceID uuid.UUID) ([]Variation, error)
	ListPricedVariations(ctx context.Context, serviceID, zoneID uuid.UUID) ([]Variation, error)
	DeleteVariationsByKey(ctx context.Context, serviceID uuid.UUID, key string) (int64, error)

	ListTagLabels(ctx context.Context, serviceID uuid.UUID) ([]string, error)
	CountBookings(ctx context.Context, serviceID uuid.UUID, status string, providerID *uuid.UUID) (int, error)

	CreateRequest(ctx context.Context, req *ServiceRequest) error
	ListRequests(ctx context.Context, userID uuid.UUID, search []string, limit, offset int) ([]ServiceRequest, int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates catalog repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const serviceColumns = `
	id, email, name, category_id, sub_category_id, short_description, description,
	cover_image, thumbnail, tax, min_bidding_price, is_active, created_at, updated_at
`

func (r *repository) Create(ctx context.Context, s *Offering, tags []string, variations []Variation) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO services (`+serviceColumns+`)
			VALUES (:id, :email, :name, :category_id, :sub_category_id, :short_description, :description,
			        :cover_image, :thumbnail, :tax, :min_bidding_price, :is_active, :created_at, :updated_at)
		`, s)
		if err != nil {
			return err
		}
		if err := syncTags(ctx, tx, s.ID, tags); err != nil {
			return err
		}
		return insertVariations(ctx, tx, variations)
	})
	return mapDBError(ctx, "services.create", err, "service_id", s.ID.String())
}

func (r *repository) Update(ctx context.Context, s *Offering, tags []string, variations []Variation) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx, `
			UPDATE services SET
				name = :name, category_id = :category_id, sub_category_id = :sub_category_id,
				short_description = :short_description, description = :description,
				cover_image = :cover_image, thumbnail = :thumbnail, tax = :tax,
				min_bidding_price = :min_bidding_price, updated_at = :updated_at
			WHERE id = :id
		`, s)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrServiceNotFound
		}

		if tags != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM service_tag WHERE service_id = $1`, s.ID); err != nil {
				return err
			}
			if err := syncTags(ctx, tx, s.ID, tags); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM variations WHERE service_id = $1`, s.ID); err != nil {
			return err
		}
		return insertVariations(ctx, tx, variations)
	})
	return mapDBError(ctx, "services.update", err, "service_id", s.ID.String())
}

// syncTags upserts each label into the tag dictionary and links it to the service
func syncTags(ctx context.Context, tx *sqlx.Tx, serviceID uuid.UUID, tags []string) error {
	for _, label := range tags {
		var tagID uuid.UUID
		err := tx.GetContext(ctx, &tagID, `
			INSERT INTO tags (id, tag) VALUES ($1, $2)
			ON CONFLICT (tag) DO UPDATE SET tag = EXCLUDED.tag
			RETURNING id
		`, uuid.New(), label)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", label, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO service_tag (service_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, serviceID, tagID)
		if err != nil {
			return fmt.Errorf("link tag %q: %w", label, err)
		}
	}
	return nil
}

func insertVariations(ctx context.Context, tx *sqlx.Tx, variations []Variation) error {
	if len(variations) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO variations (id, service_id, zone_id, variant, variant_key, price)
		VALUES (:id, :service_id, :zone_id, :variant, :variant_key, :price)
	`, variations)
	if err != nil {
		return fmt.Errorf("insert variations: %w", err)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM variations WHERE service_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM service_tag WHERE service_id = $1`, id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrServiceNotFound
		}
		return nil
	})
	return mapDBError(ctx, "services.delete", err, "service_id", id.String())
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Offering, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Offering
	err := r.db.GetContext(ctx, &s, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.LogQueryError(ctx, "services.get", err, "service_id", id.String())
	}
	return &s, nil
}

func (r *repository) ToggleActive(ctx context.Context, id uuid.UUID, email string) (bool, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var active bool
	err := r.db.GetContext(ctx, &active, `
		UPDATE services SET is_active = NOT is_active, updated_at = NOW()
		WHERE id = $1 AND email = $2
		RETURNING is_active
	`, id, email)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, database.LogQueryError(ctx, "services.toggle_active", err, "service_id", id.String())
	}
	return active, true, nil
}

func (r *repository) ListByOwner(ctx context.Context, filter ListFilter, limit, offset int) ([]Offering, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	conditions := []string{"email = $1"}
	args := []interface{}{filter.Email}

	switch filter.Status {
	case StatusActive:
		conditions = append(conditions, "is_active = true")
	case StatusInactive:
		conditions = append(conditions, "is_active = false")
	}

	var search []string
	for _, key := range filter.Search {
		args = append(args, "%"+key+"%")
		search = append(search, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(search) > 0 {
		conditions = append(conditions, "("+strings.Join(search, " OR ")+")")
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM services WHERE `+where, args...); err != nil {
		return nil, 0, database.LogQueryError(ctx, "services.count", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM services WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		serviceColumns, where, len(args)-1, len(args))

	services := []Offering{}
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, 0, database.LogQueryError(ctx, "services.list", err)
	}
	return services, total, nil
}

func (r *repository) ListVariations(ctx context.Context, serviceID uuid.UUID) ([]Variation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	variations := []Variation{}
	err := r.db.SelectContext(ctx, &variations, `
		SELECT id, service_id, zone_id, variant, variant_key, price
		FROM variations
		WHERE service_id = $1
		ORDER BY variant_key, zone_id
	`, serviceID)
	return variations, database.LogQueryError(ctx, "variations.list", err, "service_id", serviceID.String())
}

func (r *repository) ListPricedVariations(ctx context.Context, serviceID, zoneID uuid.UUID) ([]Variation, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	variations := []Variation{}
	err := r.db.SelectContext(ctx, &variations, `
		SELECT id, service_id, zone_id, variant, variant_key, price
		FROM variations
		WHERE service_id = $1 AND zone_id = $2 AND price > 0
		ORDER BY variant_key
	`, serviceID, zoneID)
	return variations, database.LogQueryError(ctx, "variations.list_priced", err,
		"service_id", serviceID.String(), "zone_id", zoneID.String())
}

func (r *repository) DeleteVariationsByKey(ctx context.Context, serviceID uuid.UUID, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM variations WHERE service_id = $1 AND variant_key = $2`, serviceID, key)
	if err != nil {
		return 0, database.LogQueryError(ctx, "variations.delete_key", err,
			"service_id", serviceID.String(), "variant_key", key)
	}
	return result.RowsAffected()
}

func (r *repository) ListTagLabels(ctx context.Context, serviceID uuid.UUID) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	labels := []string{}
	err := r.db.SelectContext(ctx, &labels, `
		SELECT t.tag FROM tags t
		JOIN service_tag st ON st.tag_id = t.id
		WHERE st.service_id = $1
		ORDER BY t.tag
	`, serviceID)
	return labels, database.LogQueryError(ctx, "tags.list", err, "service_id", serviceID.String())
}

// CountBookings counts bookings with a status that include the service
func (r *repository) CountBookings(ctx context.Context, serviceID uuid.UUID, status string, providerID *uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT COUNT(DISTINCT b.id) FROM bookings b
		JOIN booking_details bd ON bd.booking_id = b.id
		WHERE bd.service_id = $1 AND b.booking_status = $2
	`
	args := []interface{}{serviceID, status}
	if providerID != nil {
		query += ` AND b.provider_id = $3`
		args = append(args, *providerID)
	}

	var count int
	err := r.db.GetContext(ctx, &count, query, args...)
	return count, database.LogQueryError(ctx, "bookings.count_for_service", err, "service_id", serviceID.String())
}

func (r *repository) CreateRequest(ctx context.Context, req *ServiceRequest) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO service_requests (id, category_id, service_name, service_description, status, user_id, created_at)
		VALUES (:id, :category_id, :service_name, :service_description, :status, :user_id, :created_at)
	`, req)
	return mapDBError(ctx, "service_requests.create", err)
}

// ListRequests returns the user's service requests. Every search key must match the category name.
func (r *repository) ListRequests(ctx context.Context, userID uuid.UUID, search []string, limit, offset int) ([]ServiceRequest, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	conditions := []string{"sr.user_id = $1"}
	args := []interface{}{userID}
	for _, key := range search {
		args = append(args, "%"+key+"%")
		conditions = append(conditions, fmt.Sprintf("c.name ILIKE $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")
	from := `FROM service_requests sr LEFT JOIN categories c ON c.id = sr.category_id WHERE ` + where

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) `+from, args...); err != nil {
		return nil, 0, database.LogQueryError(ctx, "service_requests.count", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT sr.id, sr.category_id, c.name AS category_name, sr.service_name,
		       sr.service_description, sr.status, sr.user_id, sr.created_at
		%s
		ORDER BY sr.created_at DESC
		LIMIT $%d OFFSET $%d
	`, from, len(args)-1, len(args))

	requests := []ServiceRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, database.LogQueryError(ctx, "service_requests.list", err)
	}
	return requests, total, nil
}

// mapDBError logs a failed write and translates constraint violations
func mapDBError(ctx context.Context, query string, err error, fields ...interface{}) error {
	if err == nil || errors.Is(err, ErrServiceNotFound) {
		return err
	}
	database.LogQueryError(ctx, query, err, fields...)

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case "23505":
		if strings.Contains(strings.ToLower(pqErr.Constraint), "variation") {
			return fmt.Errorf("%w: %w", ErrDuplicateVariation, err)
		}
		return err
	case "23503":
		return fmt.Errorf("%w: %w", ErrInvalidReference, err)
	default:
		return err
	}
}

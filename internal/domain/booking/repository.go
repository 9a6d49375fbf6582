package booking

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

// Repository defines booking data access.
// The Update*/Assign* methods are conditional: they only write when the stored value
// differs and report whether a row was changed.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Booking, int, error)
	MarkAllChecked(ctx context.Context) (int64, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, history *StatusHistory) (bool, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, paid bool) (bool, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, history *ScheduleHistory) (bool, error)
	AssignServiceman(ctx context.Context, id, servicemanID uuid.UUID) (bool, error)

	ListStatusHistory(ctx context.Context, bookingID uuid.UUID) ([]StatusHistory, error)
	ListScheduleHistory(ctx context.Context, bookingID uuid.UUID) ([]ScheduleHistory, error)

	GetAddress(ctx context.Context, id uuid.UUID) (*ServiceAddress, error)
	UpdateAddress(ctx context.Context, addr *ServiceAddress) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates booking repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const bookingColumns = `
	id, readable_id, customer_id, provider_id, zone_id, category_id, sub_category_id,
	booking_status, is_paid, is_checked, service_schedule, serviceman_id, service_address_id,
	total_booking_amount, created_at, updated_at
`

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.LogQueryError(ctx, "bookings.get", err, "booking_id", id.String())
	}
	return &b, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where, args := listConditions(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM bookings WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, database.LogQueryError(ctx, "bookings.count", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)-1, len(args))

	var bookings []Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, database.LogQueryError(ctx, "bookings.list", err)
	}
	return bookings, total, nil
}

func listConditions(f ListFilter) (string, []interface{}) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" && f.Status != "all" {
		add("booking_status = $%d", f.Status)
	}
	if len(f.ZoneIDs) > 0 {
		add("zone_id = ANY($%d::uuid[])", pq.Array(uuidStrings(f.ZoneIDs)))
	}
	if len(f.CategoryIDs) > 0 {
		add("category_id = ANY($%d::uuid[])", pq.Array(uuidStrings(f.CategoryIDs)))
	}
	if len(f.SubCategoryIDs) > 0 {
		add("sub_category_id = ANY($%d::uuid[])", pq.Array(uuidStrings(f.SubCategoryIDs)))
	}
	if f.StartDate != nil && f.EndDate != nil {
		// whole days, end inclusive
		add("created_at >= $%d", dayStart(*f.StartDate))
		add("created_at < $%d", dayStart(*f.EndDate).AddDate(0, 0, 1))
	}

	var search []string
	for _, key := range strings.Fields(f.Search) {
		args = append(args, "%"+key+"%")
		search = append(search, fmt.Sprintf("readable_id::text LIKE $%d", len(args)))
	}
	if len(search) > 0 {
		conditions = append(conditions, "("+strings.Join(search, " OR ")+")")
	}

	return strings.Join(conditions, " AND "), args
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (r *repository) MarkAllChecked(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `UPDATE bookings SET is_checked = true WHERE is_checked = false`)
	if err != nil {
		return 0, database.LogQueryError(ctx, "bookings.mark_checked", err)
	}
	return result.RowsAffected()
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, history *StatusHistory) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	changed := false
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE bookings
			SET booking_status = $2, updated_at = NOW()
			WHERE id = $1 AND booking_status IS DISTINCT FROM $2
		`, id, history.Status)
		if err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		if changed, err = affected(result); err != nil || !changed {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO booking_status_histories (id, booking_id, changed_by, booking_status, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, history.ID, history.BookingID, history.ChangedBy, history.Status, history.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, database.LogQueryError(ctx, "bookings.update_status", err,
			"booking_id", id.String(), "status", history.Status)
	}
	return changed, nil
}

func (r *repository) UpdatePayment(ctx context.Context, id uuid.UUID, paid bool) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET is_paid = $2, updated_at = NOW()
		WHERE id = $1 AND is_paid IS DISTINCT FROM $2
	`, id, paid)
	if err != nil {
		return false, database.LogQueryError(ctx, "bookings.update_payment", err, "booking_id", id.String())
	}
	return affected(result)
}

func (r *repository) UpdateSchedule(ctx context.Context, id uuid.UUID, history *ScheduleHistory) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	changed := false
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE bookings
			SET service_schedule = $2, updated_at = NOW()
			WHERE id = $1
			  AND date_trunc('second', service_schedule) IS DISTINCT FROM date_trunc('second', $2::timestamptz)
		`, id, history.Schedule)
		if err != nil {
			return fmt.Errorf("update booking schedule: %w", err)
		}
		if changed, err = affected(result); err != nil || !changed {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO booking_schedule_histories (id, booking_id, changed_by, schedule, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, history.ID, history.BookingID, history.ChangedBy, history.Schedule, history.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert schedule history: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, database.LogQueryError(ctx, "bookings.update_schedule", err, "booking_id", id.String())
	}
	return changed, nil
}

// AssignServiceman re-checks ownership in the same statement so a serviceman moved
// to another provider in between is never assigned.
func (r *repository) AssignServiceman(ctx context.Context, id, servicemanID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings b
		SET serviceman_id = $2, updated_at = NOW()
		WHERE b.id = $1
		  AND b.serviceman_id IS DISTINCT FROM $2
		  AND EXISTS (SELECT 1 FROM servicemen s WHERE s.id = $2 AND s.provider_id = b.provider_id)
	`, id, servicemanID)
	if err != nil {
		return false, database.LogQueryError(ctx, "bookings.assign_serviceman", err,
			"booking_id", id.String(), "serviceman_id", servicemanID.String())
	}
	return affected(result)
}

func (r *repository) ListStatusHistory(ctx context.Context, bookingID uuid.UUID) ([]StatusHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var items []StatusHistory
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, booking_id, changed_by, booking_status, created_at
		FROM booking_status_histories
		WHERE booking_id = $1
		ORDER BY created_at ASC
	`, bookingID)
	return items, database.LogQueryError(ctx, "booking_status_histories.list", err, "booking_id", bookingID.String())
}

func (r *repository) ListScheduleHistory(ctx context.Context, bookingID uuid.UUID) ([]ScheduleHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var items []ScheduleHistory
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, booking_id, changed_by, schedule, created_at
		FROM booking_schedule_histories
		WHERE booking_id = $1
		ORDER BY created_at ASC
	`, bookingID)
	return items, database.LogQueryError(ctx, "booking_schedule_histories.list", err, "booking_id", bookingID.String())
}

func (r *repository) GetAddress(ctx context.Context, id uuid.UUID) (*ServiceAddress, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var a ServiceAddress
	err := r.db.GetContext(ctx, &a, `
		SELECT id, city, street, zip_code, country, address, contact_person_name,
		       contact_person_number, address_label, zone_id, lat, lon, updated_at
		FROM user_addresses
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.LogQueryError(ctx, "user_addresses.get", err, "address_id", id.String())
	}
	return &a, nil
}

func (r *repository) UpdateAddress(ctx context.Context, a *ServiceAddress) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.NamedExecContext(ctx, `
		UPDATE user_addresses SET
			city = :city, street = :street, zip_code = :zip_code, country = :country,
			address = :address, contact_person_name = :contact_person_name,
			contact_person_number = :contact_person_number, address_label = :address_label,
			zone_id = :zone_id, lat = :lat, lon = :lon, updated_at = :updated_at
		WHERE id = :id
	`, a)
	if err != nil {
		return false, mapAddressDBError(ctx, a.ID, err)
	}
	return affected(result)
}

func mapAddressDBError(ctx context.Context, id uuid.UUID, err error) error {
	database.LogQueryError(ctx, "user_addresses.update", err, "address_id", id.String())

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return fmt.Errorf("%w: %w", ErrInvalidZone, err)
	}
	return err
}

func affected(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

package booking

import (
	"time"

	"github.com/google/uuid"
)

// Status represents booking status
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

var statuses = map[Status]struct{}{
	StatusPending:   {},
	StatusAccepted:  {},
	StatusOngoing:   {},
	StatusCompleted: {},
	StatusCanceled:  {},
}

// Valid reports whether s is one of the known booking statuses
func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

// PaymentStatus is the payment vocabulary accepted by the admin panel
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

// Valid reports whether p is paid or unpaid
func (p PaymentStatus) Valid() bool {
	return p == PaymentPaid || p == PaymentUnpaid
}

// IsPaid maps the payment status onto the booking flag
func (p PaymentStatus) IsPaid() bool {
	return p == PaymentPaid
}

// Outcome is the result of a booking mutation
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeNotFound  Outcome = "not_found"
)

// MutationResult is returned by every mutation endpoint
type MutationResult struct {
	Status  Outcome `json:"status"`
	Message string  `json:"message"`
}

var (
	resultUpdated   = MutationResult{Status: OutcomeUpdated, Message: "Successfully updated"}
	resultUnchanged = MutationResult{Status: OutcomeUnchanged, Message: "No changes found"}
	resultNotFound  = MutationResult{Status: OutcomeNotFound, Message: "No such record found"}
)

// Booking represents a customer booking
type Booking struct {
	ID                 uuid.UUID     `db:"id"`
	ReadableID         int64         `db:"readable_id"`
	CustomerID         uuid.UUID     `db:"customer_id"`
	ProviderID         uuid.UUID     `db:"provider_id"`
	ZoneID             uuid.UUID     `db:"zone_id"`
	CategoryID         uuid.UUID     `db:"category_id"`
	SubCategoryID      uuid.UUID     `db:"sub_category_id"`
	Status             Status        `db:"booking_status"`
	IsPaid             bool          `db:"is_paid"`
	IsChecked          bool          `db:"is_checked"`
	ServiceSchedule    time.Time     `db:"service_schedule"`
	ServicemanID       uuid.NullUUID `db:"serviceman_id"`
	ServiceAddressID   uuid.NullUUID `db:"service_address_id"`
	TotalBookingAmount float64       `db:"total_booking_amount"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

// StatusHistory is an append-only record of an effective status change
type StatusHistory struct {
	ID        uuid.UUID `db:"id"`
	BookingID uuid.UUID `db:"booking_id"`
	ChangedBy uuid.UUID `db:"changed_by"`
	Status    Status    `db:"booking_status"`
	CreatedAt time.Time `db:"created_at"`
}

// ScheduleHistory is an append-only record of an effective schedule change
type ScheduleHistory struct {
	ID        uuid.UUID `db:"id"`
	BookingID uuid.UUID `db:"booking_id"`
	ChangedBy uuid.UUID `db:"changed_by"`
	Schedule  time.Time `db:"schedule"`
	CreatedAt time.Time `db:"created_at"`
}

// ServiceAddress is the customer address a booking is served at
type ServiceAddress struct {
	ID                  uuid.UUID `db:"id"`
	City                string    `db:"city"`
	Street              string    `db:"street"`
	ZipCode             string    `db:"zip_code"`
	Country             string    `db:"country"`
	Address             string    `db:"address"`
	ContactPersonName   string    `db:"contact_person_name"`
	ContactPersonNumber string    `db:"contact_person_number"`
	AddressLabel        string    `db:"address_label"`
	ZoneID              uuid.UUID `db:"zone_id"`
	Lat                 float64   `db:"lat"`
	Lon                 float64   `db:"lon"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// ListFilter narrows the admin booking list
type ListFilter struct {
	Status         string // "all" or a Status
	ZoneIDs        []uuid.UUID
	CategoryIDs    []uuid.UUID
	SubCategoryIDs []uuid.UUID
	StartDate      *time.Time
	EndDate        *time.Time
	Search         string
}

// Counter is the number of active filter values, shown as a badge in the panel
func (f ListFilter) Counter() int {
	n := len(f.ZoneIDs) + len(f.CategoryIDs) + len(f.SubCategoryIDs)
	if f.StartDate != nil {
		n++
	}
	if f.EndDate != nil {
		n++
	}
	return n
}

// Details aggregates a booking with its audit trail
type Details struct {
	Booking           *Booking
	StatusHistories   []StatusHistory
	ScheduleHistories []ScheduleHistory
	ServiceAddress    *ServiceAddress
}

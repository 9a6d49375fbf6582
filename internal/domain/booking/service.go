package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/pkg/logger"
)

// ServicemanChecker resolves serviceman ownership
type ServicemanChecker interface {
	ServicemanBelongsTo(ctx context.Context, servicemanID, providerID uuid.UUID) (bool, error)
}

// Service handles booking business logic
type Service struct {
	repo       Repository
	servicemen ServicemanChecker
}

// NewService creates booking service
func NewService(repo Repository, servicemen ServicemanChecker) *Service {
	return &Service{
		repo:       repo,
		servicemen: servicemen,
	}
}

// List returns a page of bookings, newest first
func (s *Service) List(ctx context.Context, filter ListFilter, page, limit int) ([]Booking, int, error) {
	if filter.Status == "" {
		filter.Status = string(StatusPending)
	}
	if filter.Status != "all" && !Status(filter.Status).Valid() {
		return nil, 0, ValidationErrors{"booking_status": "Invalid booking status"}
	}
	if page < 1 {
		page = 1
	}
	return s.repo.List(ctx, filter, limit, (page-1)*limit)
}

// MarkAllChecked flags every unseen booking as seen
func (s *Service) MarkAllChecked(ctx context.Context) (int64, error) {
	return s.repo.MarkAllChecked(ctx)
}

// Details returns a booking with its audit trail and service address
func (s *Service) Details(ctx context.Context, id uuid.UUID) (*Details, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}

	details := &Details{Booking: b}
	if details.StatusHistories, err = s.repo.ListStatusHistory(ctx, id); err != nil {
		return nil, err
	}
	if details.ScheduleHistories, err = s.repo.ListScheduleHistory(ctx, id); err != nil {
		return nil, err
	}
	if b.ServiceAddressID.Valid {
		if details.ServiceAddress, err = s.repo.GetAddress(ctx, b.ServiceAddressID.UUID); err != nil {
			return nil, err
		}
	}
	return details, nil
}

// UpdateStatus moves a booking to a new status and records who did it
func (s *Service) UpdateStatus(ctx context.Context, actorID, bookingID uuid.UUID, status Status) (MutationResult, error) {
	if !status.Valid() {
		return MutationResult{}, ValidationErrors{"booking_status": "Invalid booking status"}
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return MutationResult{}, err
	}
	if b == nil {
		return resultNotFound, nil
	}
	if b.Status == status {
		return resultUnchanged, nil
	}

	changed, err := s.repo.UpdateStatus(ctx, bookingID, &StatusHistory{
		ID:        uuid.New(),
		BookingID: bookingID,
		ChangedBy: actorID,
		Status:    status,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return MutationResult{}, err
	}
	if !changed {
		return s.settle(ctx, bookingID, "status")
	}

	logger.LogInfo(ctx, "Booking status updated",
		"booking_id", bookingID.String(),
		"from", string(b.Status),
		"to", string(status),
		"changed_by", actorID.String(),
	)
	return resultUpdated, nil
}

// UpdatePayment sets the paid flag
func (s *Service) UpdatePayment(ctx context.Context, bookingID uuid.UUID, payment PaymentStatus) (MutationResult, error) {
	if !payment.Valid() {
		return MutationResult{}, ValidationErrors{"payment_status": "Invalid payment status"}
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return MutationResult{}, err
	}
	if b == nil {
		return resultNotFound, nil
	}
	if b.IsPaid == payment.IsPaid() {
		return resultUnchanged, nil
	}

	changed, err := s.repo.UpdatePayment(ctx, bookingID, payment.IsPaid())
	if err != nil {
		return MutationResult{}, err
	}
	if !changed {
		return s.settle(ctx, bookingID, "payment")
	}

	logger.LogInfo(ctx, "Booking payment updated", "booking_id", bookingID.String(), "payment_status", string(payment))
	return resultUpdated, nil
}

// UpdateSchedule reschedules a booking and records who did it
func (s *Service) UpdateSchedule(ctx context.Context, actorID, bookingID uuid.UUID, raw string) (MutationResult, error) {
	schedule, ok := ParseSchedule(raw)
	if !ok {
		return MutationResult{}, ValidationErrors{"service_schedule": "Invalid date/time format"}
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return MutationResult{}, err
	}
	if b == nil {
		return resultNotFound, nil
	}
	if sameSchedule(b.ServiceSchedule, schedule) {
		return resultUnchanged, nil
	}

	changed, err := s.repo.UpdateSchedule(ctx, bookingID, &ScheduleHistory{
		ID:        uuid.New(),
		BookingID: bookingID,
		ChangedBy: actorID,
		Schedule:  schedule,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return MutationResult{}, err
	}
	if !changed {
		return s.settle(ctx, bookingID, "schedule")
	}

	logger.LogInfo(ctx, "Booking schedule updated",
		"booking_id", bookingID.String(),
		"schedule", schedule.Format(time.RFC3339),
		"changed_by", actorID.String(),
	)
	return resultUpdated, nil
}

// AssignServiceman assigns one of the booking provider's servicemen
func (s *Service) AssignServiceman(ctx context.Context, bookingID, servicemanID uuid.UUID) (MutationResult, error) {
	if servicemanID == uuid.Nil {
		return MutationResult{}, ValidationErrors{"serviceman_id": "This field is required"}
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return MutationResult{}, err
	}
	if b == nil {
		return resultNotFound, nil
	}

	ok, err := s.servicemen.ServicemanBelongsTo(ctx, servicemanID, b.ProviderID)
	if err != nil {
		return MutationResult{}, err
	}
	if !ok {
		return MutationResult{}, ValidationErrors{"serviceman_id": "Serviceman not found for this provider"}
	}

	if b.ServicemanID.Valid && b.ServicemanID.UUID == servicemanID {
		return resultUnchanged, nil
	}

	changed, err := s.repo.AssignServiceman(ctx, bookingID, servicemanID)
	if err != nil {
		return MutationResult{}, err
	}
	if !changed {
		return s.settle(ctx, bookingID, "serviceman")
	}

	logger.LogInfo(ctx, "Serviceman assigned", "booking_id", bookingID.String(), "serviceman_id", servicemanID.String())
	return resultUpdated, nil
}

// settle resolves a conditional write that changed nothing. Between the read and
// the write the booking was either deleted or already given the new value.
func (s *Service) settle(ctx context.Context, bookingID uuid.UUID, field string) (MutationResult, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return MutationResult{}, err
	}
	if b == nil {
		return resultNotFound, nil
	}
	logger.LogDebug(ctx, "Booking already up to date", "booking_id", bookingID.String(), "field", field)
	return resultUnchanged, nil
}

// UpdateServiceAddress overwrites a booking's service address
func (s *Service) UpdateServiceAddress(ctx context.Context, addressID uuid.UUID, req *UpdateAddressRequest) (MutationResult, error) {
	zoneID, err := uuid.Parse(req.ZoneID)
	if err != nil {
		return MutationResult{}, ValidationErrors{"zone_id": "Must be a valid UUID"}
	}
	if req.Latitude == nil || req.Longitude == nil {
		return MutationResult{}, ValidationErrors{"latitude": "Coordinates are required"}
	}

	changed, err := s.repo.UpdateAddress(ctx, &ServiceAddress{
		ID:                  addressID,
		City:                req.City,
		Street:              req.Street,
		ZipCode:             req.ZipCode,
		Country:             req.Country,
		Address:             req.Address,
		ContactPersonName:   req.ContactPersonName,
		ContactPersonNumber: req.ContactPersonNumber,
		AddressLabel:        req.AddressLabel,
		ZoneID:              zoneID,
		Lat:                 *req.Latitude,
		Lon:                 *req.Longitude,
		UpdatedAt:           time.Now(),
	})
	if err != nil {
		return MutationResult{}, err
	}
	if !changed {
		return resultNotFound, nil
	}
	return resultUpdated, nil
}

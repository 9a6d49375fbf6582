package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// memRepo mimics the conditional updates of the SQL repository
type memRepo struct {
	bookings        map[uuid.UUID]*Booking
	statusHistory   []StatusHistory
	scheduleHistory []ScheduleHistory
	addresses       map[uuid.UUID]*ServiceAddress
	failHistory     bool
	// runs before each conditional write, standing in for a concurrent request
	beforeWrite func()
}

func (r *memRepo) concurrent() {
	if r.beforeWrite != nil {
		r.beforeWrite()
	}
}

func newMemRepo(bookings ...*Booking) *memRepo {
	r := &memRepo{bookings: map[uuid.UUID]*Booking{}, addresses: map[uuid.UUID]*ServiceAddress{}}
	for _, b := range bookings {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]Booking, int, error) {
	var out []Booking
	for _, b := range r.bookings {
		if f.Status == "all" || string(b.Status) == f.Status {
			out = append(out, *b)
		}
	}
	return out, len(out), nil
}

func (r *memRepo) MarkAllChecked(context.Context) (int64, error) {
	var n int64
	for _, b := range r.bookings {
		if !b.IsChecked {
			b.IsChecked = true
			n++
		}
	}
	return n, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, h *StatusHistory) (bool, error) {
	r.concurrent()
	b := r.bookings[id]
	if b == nil || b.Status == h.Status {
		return false, nil
	}
	if r.failHistory {
		return false, errors.New("insert status history: connection reset")
	}
	b.Status = h.Status
	r.statusHistory = append(r.statusHistory, *h)
	return true, nil
}

func (r *memRepo) UpdatePayment(_ context.Context, id uuid.UUID, paid bool) (bool, error) {
	r.concurrent()
	b := r.bookings[id]
	if b == nil || b.IsPaid == paid {
		return false, nil
	}
	b.IsPaid = paid
	return true, nil
}

func (r *memRepo) UpdateSchedule(_ context.Context, id uuid.UUID, h *ScheduleHistory) (bool, error) {
	r.concurrent()
	b := r.bookings[id]
	if b == nil || sameSchedule(b.ServiceSchedule, h.Schedule) {
		return false, nil
	}
	b.ServiceSchedule = h.Schedule
	r.scheduleHistory = append(r.scheduleHistory, *h)
	return true, nil
}

func (r *memRepo) AssignServiceman(_ context.Context, id, servicemanID uuid.UUID) (bool, error) {
	r.concurrent()
	b := r.bookings[id]
	if b == nil || (b.ServicemanID.Valid && b.ServicemanID.UUID == servicemanID) {
		return false, nil
	}
	b.ServicemanID = uuid.NullUUID{UUID: servicemanID, Valid: true}
	return true, nil
}

func (r *memRepo) ListStatusHistory(_ context.Context, id uuid.UUID) ([]StatusHistory, error) {
	var out []StatusHistory
	for _, h := range r.statusHistory {
		if h.BookingID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memRepo) ListScheduleHistory(_ context.Context, id uuid.UUID) ([]ScheduleHistory, error) {
	var out []ScheduleHistory
	for _, h := range r.scheduleHistory {
		if h.BookingID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memRepo) GetAddress(_ context.Context, id uuid.UUID) (*ServiceAddress, error) {
	return r.addresses[id], nil
}

func (r *memRepo) UpdateAddress(_ context.Context, a *ServiceAddress) (bool, error) {
	if _, ok := r.addresses[a.ID]; !ok {
		return false, nil
	}
	r.addresses[a.ID] = a
	return true, nil
}

type servicemenStub map[uuid.UUID]uuid.UUID // serviceman -> provider

func (s servicemenStub) ServicemanBelongsTo(_ context.Context, servicemanID, providerID uuid.UUID) (bool, error) {
	p, ok := s[servicemanID]
	return ok && p == providerID, nil
}

func pendingBooking() *Booking {
	return &Booking{
		ID:              uuid.New(),
		ReadableID:      100001,
		ProviderID:      uuid.New(),
		Status:          StatusPending,
		ServiceSchedule: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestUpdateStatusSameStatusIsNoOp(t *testing.T) {
	b := pendingBooking()
	repo := newMemRepo(b)
	svc := NewService(repo, servicemenStub{})
	actor := uuid.New()

	res, err := svc.UpdateStatus(context.Background(), actor, b.ID, StatusPending)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Status != OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", res.Status)
	}
	if len(repo.statusHistory) != 0 {
		t.Fatalf("expected 0 history rows, got %d", len(repo.statusHistory))
	}

	res, err = svc.UpdateStatus(context.Background(), actor, b.ID, StatusOngoing)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Status != OutcomeUpdated {
		t.Fatalf("expected updated, got %s", res.Status)
	}
	if len(repo.statusHistory) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(repo.statusHistory))
	}
	h := repo.statusHistory[0]
	if h.BookingID != b.ID || h.Status != StatusOngoing || h.ChangedBy != actor {
		t.Fatalf("unexpected history row %+v", h)
	}
	if repo.bookings[b.ID].Status != StatusOngoing {
		t.Fatalf("booking status not persisted")
	}
}

func TestUpdateStatusEveryDistinctStatusWritesOneHistoryRow(t *testing.T) {
	for _, next := range []Status{StatusAccepted, StatusOngoing, StatusCompleted, StatusCanceled} {
		t.Run(string(next), func(t *testing.T) {
			b := pendingBooking()
			repo := newMemRepo(b)
			svc := NewService(repo, servicemenStub{})

			for i := 0; i < 2; i++ {
				if _, err := svc.UpdateStatus(context.Background(), uuid.New(), b.ID, next); err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
			}
			if len(repo.statusHistory) != 1 {
				t.Fatalf("expected exactly 1 history row, got %d", len(repo.statusHistory))
			}
		})
	}
}

func TestUpdateStatusRejectsUnknownStatusBeforeReading(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, servicemenStub{})

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), Status("refunded"))
	var verr ValidationErrors
	if !errors.As(err, &verr) || verr["booking_status"] == "" {
		t.Fatalf("expected booking_status validation error, got %v", err)
	}
}

func TestUpdateStatusMissingBooking(t *testing.T) {
	svc := NewService(newMemRepo(), servicemenStub{})

	res, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), StatusAccepted)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Status != OutcomeNotFound {
		t.Fatalf("expected not_found, got %s", res.Status)
	}
}

func TestUpdateStatusPropagatesPersistenceFailure(t *testing.T) {
	b := pendingBooking()
	repo := newMemRepo(b)
	repo.failHistory = true
	svc := NewService(repo, servicemenStub{})

	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), b.ID, StatusAccepted); err == nil {
		t.Fatalf("expected error to propagate")
	}
	if repo.bookings[b.ID].Status != StatusPending || len(repo.statusHistory) != 0 {
		t.Fatalf("failed update must not leave partial state")
	}
}

func TestConditionalWriteThatChangesNothingIsResolved(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted in between", func(t *testing.T) {
		b := pendingBooking()
		repo := newMemRepo(b)
		repo.beforeWrite = func() { delete(repo.bookings, b.ID) }
		svc := NewService(repo, servicemenStub{})

		res, err := svc.UpdateStatus(ctx, uuid.New(), b.ID, StatusAccepted)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if res.Status != OutcomeNotFound {
			t.Fatalf("expected not_found, got %s", res.Status)
		}
	})

	t.Run("applied by another request", func(t *testing.T) {
		b := pendingBooking()
		repo := newMemRepo(b)
		repo.beforeWrite = func() { repo.bookings[b.ID].IsPaid = true }
		svc := NewService(repo, servicemenStub{})

		res, err := svc.UpdatePayment(ctx, b.ID, PaymentPaid)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if res.Status != OutcomeUnchanged {
			t.Fatalf("expected unchanged, got %s", res.Status)
		}
	})
}

func TestUpdatePayment(t *testing.T) {
	b := pendingBooking()
	svc := NewService(newMemRepo(b), servicemenStub{})
	ctx := context.Background()

	res, _ := svc.UpdatePayment(ctx, b.ID, PaymentUnpaid)
	if res.Status != OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", res.Status)
	}
	res, _ = svc.UpdatePayment(ctx, b.ID, PaymentPaid)
	if res.Status != OutcomeUpdated {
		t.Fatalf("expected updated, got %s", res.Status)
	}
	if _, err := svc.UpdatePayment(ctx, b.ID, PaymentStatus("partial")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestUpdateScheduleWritesHistoryOnlyOnChange(t *testing.T) {
	b := pendingBooking()
	repo := newMemRepo(b)
	svc := NewService(repo, servicemenStub{})
	ctx := context.Background()

	res, err := svc.UpdateSchedule(ctx, uuid.New(), b.ID, "2024-05-01 10:00:00")
	if err != nil || res.Status != OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %v %v", res.Status, err)
	}

	res, err = svc.UpdateSchedule(ctx, uuid.New(), b.ID, "2024-05-02T09:30")
	if err != nil || res.Status != OutcomeUpdated {
		t.Fatalf("expected updated, got %v %v", res.Status, err)
	}
	if len(repo.scheduleHistory) != 1 {
		t.Fatalf("expected 1 schedule history row, got %d", len(repo.scheduleHistory))
	}
	if !repo.scheduleHistory[0].Schedule.Equal(time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected schedule %v", repo.scheduleHistory[0].Schedule)
	}

	_, err = svc.UpdateSchedule(ctx, uuid.New(), b.ID, "next tuesday")
	var verr ValidationErrors
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssignServicemanRequiresProviderOwnership(t *testing.T) {
	b := pendingBooking()
	own, foreign := uuid.New(), uuid.New()
	svc := NewService(newMemRepo(b), servicemenStub{own: b.ProviderID, foreign: uuid.New()})
	ctx := context.Background()

	_, err := svc.AssignServiceman(ctx, b.ID, foreign)
	var verr ValidationErrors
	if !errors.As(err, &verr) || verr["serviceman_id"] == "" {
		t.Fatalf("expected serviceman_id validation error, got %v", err)
	}

	_, err = svc.AssignServiceman(ctx, b.ID, uuid.New())
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for unknown serviceman, got %v", err)
	}

	res, err := svc.AssignServiceman(ctx, b.ID, own)
	if err != nil || res.Status != OutcomeUpdated {
		t.Fatalf("expected updated, got %v %v", res.Status, err)
	}
	res, err = svc.AssignServiceman(ctx, b.ID, own)
	if err != nil || res.Status != OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %v %v", res.Status, err)
	}
}

func TestDetailsIncludesHistories(t *testing.T) {
	b := pendingBooking()
	addrID := uuid.New()
	b.ServiceAddressID = uuid.NullUUID{UUID: addrID, Valid: true}
	repo := newMemRepo(b)
	repo.addresses[addrID] = &ServiceAddress{ID: addrID, City: "Almaty"}
	svc := NewService(repo, servicemenStub{})
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, uuid.New(), b.ID, StatusAccepted); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	d, err := svc.Details(ctx, b.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(d.StatusHistories) != 1 || d.ServiceAddress == nil || d.ServiceAddress.City != "Almaty" {
		t.Fatalf("unexpected details %+v", d)
	}

	if _, err := svc.Details(ctx, uuid.New()); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestListDefaultsToPending(t *testing.T) {
	accepted := pendingBooking()
	accepted.Status = StatusAccepted
	svc := NewService(newMemRepo(pendingBooking(), accepted), servicemenStub{})

	items, total, err := svc.List(context.Background(), ListFilter{}, 1, 20)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if total != 1 || items[0].Status != StatusPending {
		t.Fatalf("expected only the pending booking, got %d", total)
	}

	if _, _, err := svc.List(context.Background(), ListFilter{Status: "archived"}, 1, 20); err == nil {
		t.Fatalf("expected validation error for unknown status filter")
	}
}

func TestUpdateServiceAddress(t *testing.T) {
	addrID := uuid.New()
	repo := newMemRepo()
	repo.addresses[addrID] = &ServiceAddress{ID: addrID}
	svc := NewService(repo, servicemenStub{})
	lat, lon := 43.25, 76.95

	req := &UpdateAddressRequest{City: "Almaty", ZoneID: uuid.New().String(), Latitude: &lat, Longitude: &lon}
	res, err := svc.UpdateServiceAddress(context.Background(), addrID, req)
	if err != nil || res.Status != OutcomeUpdated {
		t.Fatalf("expected updated, got %v %v", res.Status, err)
	}
	if repo.addresses[addrID].City != "Almaty" || repo.addresses[addrID].Lat != lat {
		t.Fatalf("address not stored")
	}

	res, _ = svc.UpdateServiceAddress(context.Background(), uuid.New(), req)
	if res.Status != OutcomeNotFound {
		t.Fatalf("expected not_found, got %s", res.Status)
	}
}

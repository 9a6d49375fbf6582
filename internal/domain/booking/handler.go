package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/middleware"
	"github.com/servicehub/servicehub-api/internal/pkg/errorhandler"
	"github.com/servicehub/servicehub-api/internal/pkg/response"
	"github.com/servicehub/servicehub-api/internal/pkg/validator"
)

// Handler handles admin booking HTTP requests
type Handler struct {
	service *Service
	limit   int
}

// NewHandler creates booking handler
func NewHandler(service *Service, pageLimit int) *Handler {
	if pageLimit <= 0 {
		pageLimit = 20
	}
	return &Handler{service: service, limit: pageLimit}
}

// List handles GET /admin/bookings
// @Summary List bookings
// @Tags Admin Booking
// @Produce json
// @Security BearerAuth
// @Param booking_status query string false "all or a booking status (default pending)"
// @Param zone_ids query []string false "Zone IDs"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param search query string false "Readable id tokens"
// @Param page query int false "Page"
// @Success 200 {object} response.Response{data=ListResponse}
// @Failure 400,422,500 {object} response.Response
// @Router /admin/bookings [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := ListFilter{
		Status: q.Get("booking_status"),
		Search: strings.TrimSpace(q.Get("search")),
	}

	var err error
	if filter.ZoneIDs, err = parseIDList(q["zone_ids"]); err != nil {
		response.BadRequest(w, "Invalid zone_ids")
		return
	}
	if filter.CategoryIDs, err = parseIDList(q["category_ids"]); err != nil {
		response.BadRequest(w, "Invalid category_ids")
		return
	}
	if filter.SubCategoryIDs, err = parseIDList(q["sub_category_ids"]); err != nil {
		response.BadRequest(w, "Invalid sub_category_ids")
		return
	}
	if filter.StartDate, err = parseDate(q.Get("start_date")); err != nil {
		response.BadRequest(w, "Invalid start_date, expected YYYY-MM-DD")
		return
	}
	if filter.EndDate, err = parseDate(q.Get("end_date")); err != nil {
		response.BadRequest(w, "Invalid end_date, expected YYYY-MM-DD")
		return
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	bookings, total, err := h.service.List(r.Context(), filter, page, h.limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	status := filter.Status
	if status == "" {
		status = string(StatusPending)
	}
	items := make([]*BookingResponse, len(bookings))
	for i := range bookings {
		items[i] = BookingResponseFromEntity(&bookings[i])
	}

	response.WithMeta(w, ListResponse{
		Bookings:      items,
		FilterCounter: filter.Counter(),
		BookingStatus: status,
	}, response.NewMeta(total, page, h.limit))
}

// MarkAllChecked handles PUT /admin/bookings/check
func (h *Handler) MarkAllChecked(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkAllChecked(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, map[string]int64{"checked": n})
}

// Details handles GET /admin/bookings/{id}
// @Summary Booking details
// @Tags Admin Booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=DetailsResponse}
// @Failure 400,404,500 {object} response.Response
// @Router /admin/bookings/{id} [get]
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "Invalid booking ID")
	if !ok {
		return
	}

	details, err := h.service.Details(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, DetailsResponseFromEntity(details))
}

// UpdateStatus handles PUT /admin/bookings/{id}/status
// @Summary Update booking status
// @Tags Admin Booking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} response.Response{data=MutationResult}
// @Failure 400,404,422,500 {object} response.Response
// @Router /admin/bookings/{id}/status [put]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "Invalid booking ID")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.UpdateStatus(r.Context(), middleware.GetUserID(r.Context()), id, Status(req.BookingStatus))
	h.writeResult(w, r, result, err)
}

// UpdatePayment handles PUT /admin/bookings/{id}/payment
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "Invalid booking ID")
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.UpdatePayment(r.Context(), id, PaymentStatus(req.PaymentStatus))
	h.writeResult(w, r, result, err)
}

// UpdateSchedule handles PUT /admin/bookings/{id}/schedule
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "Invalid booking ID")
	if !ok {
		return
	}

	var req UpdateScheduleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.UpdateSchedule(r.Context(), middleware.GetUserID(r.Context()), id, req.ServiceSchedule)
	h.writeResult(w, r, result, err)
}

// AssignServiceman handles PUT /admin/bookings/{id}/serviceman
func (h *Handler) AssignServiceman(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "Invalid booking ID")
	if !ok {
		return
	}

	var req AssignServicemanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.AssignServiceman(r.Context(), id, uuid.MustParse(req.ServicemanID))
	h.writeResult(w, r, result, err)
}

// UpdateServiceAddress handles PUT /admin/bookings/addresses/{id}
func (h *Handler) UpdateServiceAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "Invalid address ID")
	if !ok {
		return
	}

	var req UpdateAddressRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.UpdateServiceAddress(r.Context(), id, &req)
	h.writeResult(w, r, result, err)
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, result MutationResult, err error) {
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if result.Status == OutcomeNotFound {
		response.JSON(w, http.StatusNotFound, result)
		return
	}
	response.OK(w, result)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr ValidationErrors
	switch {
	case errors.As(err, &verr):
		errorhandler.HandleValidation(r.Context(), w, verr)
	case errors.Is(err, ErrBookingNotFound):
		response.NotFound(w, "Booking not found")
	case errors.Is(err, ErrInvalidZone):
		errorhandler.HandleValidation(r.Context(), w, map[string]string{"zone_id": "Zone does not exist"})
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "BOOKING_UPDATE_FAILED", "Failed to process booking", err)
	}
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		errorhandler.HandleValidation(r.Context(), w, errs)
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request, param, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		response.BadRequest(w, msg)
		return uuid.Nil, false
	}
	return id, true
}

// accepts repeated params and comma separated values
func parseIDList(values []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

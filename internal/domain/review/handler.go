package review

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/domain/provider"
	"github.com/servicehub/servicehub-api/internal/pkg/errorhandler"
	"github.com/servicehub/servicehub-api/internal/pkg/response"
	"github.com/servicehub/servicehub-api/internal/pkg/validator"
)

// Handler handles review HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new review handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListForService handles GET /provider/services/{id}/reviews
// @Summary Service reviews with rating info
// @Tags Provider Review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Service ID"
// @Param limit query int false "Page size (1-200, default 10)"
// @Param offset query int false "Page number (default 1)"
// @Param status query string false "active|inactive|all"
// @Success 200 {object} response.Response{data=ProviderReviewsResponse}
// @Failure 400,403,404,422,500 {object} response.Response
// @Router /provider/services/{id}/reviews [get]
func (h *Handler) ListForService(w http.ResponseWriter, r *http.Request) {
	p := provider.FromContext(r.Context())
	if p == nil {
		response.Forbidden(w, "Provider account required")
		return
	}

	serviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid service ID")
		return
	}

	q := r.URL.Query()
	query := ListQuery{
		Limit:  queryInt(q.Get("limit"), 10),
		Offset: queryInt(q.Get("offset"), 1),
		Status: q.Get("status"),
	}
	if query.Status == "" {
		query.Status = StatusAll
	}
	if errs := validator.Validate(&query); errs != nil {
		errorhandler.HandleValidation(r.Context(), w, errs)
		return
	}

	result, err := h.service.ListForProvider(r.Context(), p.ID, serviceID, query.Status, query.Limit, query.Offset)
	if err != nil {
		if errors.Is(err, ErrNoReviews) {
			response.NotFound(w, "No reviews found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "REVIEW_LIST_FAILED", "Failed to load reviews", err)
		return
	}

	items := make([]*ReviewResponse, len(result.Reviews))
	for i := range result.Reviews {
		items[i] = result.Reviews[i].ToResponse()
	}

	response.WithMeta(w, ProviderReviewsResponse{
		Reviews: items,
		Rating:  result.Rating,
	}, response.NewMeta(result.Total, query.Offset, query.Limit))
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return v
}

package subscription

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/domain/provider"
	"github.com/servicehub/servicehub-api/internal/pkg/errorhandler"
	"github.com/servicehub/servicehub-api/internal/pkg/response"
)

// Handler handles subscription HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates subscription handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Available handles GET /provider/subscriptions
// @Summary Sub-categories available in the provider's zone
// @Tags Provider Subscription
// @Produce json
// @Security BearerAuth
// @Param active_category query string false "Main category ID"
// @Success 200 {object} response.Response{data=CatalogResponse}
// @Failure 400,403,500 {object} response.Response
// @Router /provider/subscriptions [get]
func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	p := provider.FromContext(r.Context())
	if p == nil {
		response.Forbidden(w, "Provider account required")
		return
	}

	var active *uuid.UUID
	if raw := r.URL.Query().Get("active_category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid active_category")
			return
		}
		active = &id
	}

	catalog, err := h.service.Available(r.Context(), p, active)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SUBSCRIPTION_LIST_FAILED", "Failed to load sub-categories", err)
		return
	}
	response.OK(w, CatalogResponseFrom(catalog))
}

// Toggle handles PUT /provider/subscriptions/{sub_category_id}
// @Summary Subscribe to or unsubscribe from a sub-category
// @Tags Provider Subscription
// @Produce json
// @Security BearerAuth
// @Param sub_category_id path string true "Sub-category ID"
// @Success 200 {object} response.Response{data=SubscriptionResponse}
// @Failure 400,403,404,500 {object} response.Response
// @Router /provider/subscriptions/{sub_category_id} [put]
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	p := provider.FromContext(r.Context())
	if p == nil {
		response.Forbidden(w, "Provider account required")
		return
	}

	subCategoryID, err := uuid.Parse(chi.URLParam(r, "sub_category_id"))
	if err != nil {
		response.BadRequest(w, "Invalid sub-category ID")
		return
	}

	sub, err := h.service.Toggle(r.Context(), p, subCategoryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Sub-category not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SUBSCRIPTION_TOGGLE_FAILED", "Failed to update subscription", err)
		return
	}
	response.OK(w, SubscriptionResponseFromEntity(sub))
}

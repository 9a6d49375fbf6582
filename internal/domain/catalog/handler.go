package catalog

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/domain/provider"
	"github.com/servicehub/servicehub-api/internal/middleware"
	"github.com/servicehub/servicehub-api/internal/pkg/errorhandler"
	"github.com/servicehub/servicehub-api/internal/pkg/response"
	"github.com/servicehub/servicehub-api/internal/pkg/validator"
)

// MaxFormSize bounds a multipart service form with both images
const MaxFormSize = 25 << 20

// SessionHeader carries the edit session token on form submissions
const SessionHeader = "X-Edit-Session"

// Handler handles catalog HTTP requests
type Handler struct {
	service *Service
	limit   int
}

// NewHandler creates catalog handler
func NewHandler(service *Service, pageLimit int) *Handler {
	if pageLimit <= 0 {
		pageLimit = 20
	}
	return &Handler{service: service, limit: pageLimit}
}

// List handles GET /provider/services
// @Summary List own services
// @Tags Provider Service
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name words"
// @Param status query string false "active|inactive|all"
// @Param page query int false "Page"
// @Success 200 {object} response.Response{data=[]ServiceResponse}
// @Failure 422,500 {object} response.Response
// @Router /provider/services [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)

	services, total, err := h.service.ListOwned(r.Context(), owner, q.Get("search"), q.Get("status"), page, h.limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.WithMeta(w, h.serviceResponses(services), response.NewMeta(total, max(page, 1), h.limit))
}

// Search handles GET /provider/services/search
// @Summary Search own services
// @Tags Provider Service
// @Produce json
// @Security BearerAuth
// @Param string query string false "Base64 encoded search string"
// @Param status query string false "active|inactive|all"
// @Param limit query int false "Page size"
// @Param offset query int false "Page number"
// @Success 200 {object} response.Response{data=[]ServiceResponse}
// @Failure 400,422,500 {object} response.Response
// @Router /provider/services/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), h.limit)
	page := queryInt(q.Get("offset"), 1)
	if limit < 1 || limit > 200 {
		errorhandler.HandleValidation(r.Context(), w, map[string]string{"limit": "Value must be between 1 and 200"})
		return
	}
	if page < 1 {
		errorhandler.HandleValidation(r.Context(), w, map[string]string{"offset": "Value must be at least 1"})
		return
	}

	services, total, err := h.service.Search(r.Context(), owner, q.Get("string"), q.Get("status"), page, limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.WithMeta(w, h.serviceResponses(services), response.NewMeta(total, page, limit))
}

// Create handles POST /provider/services
// @Summary Create a service
// @Tags Provider Service
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param X-Edit-Session header string false "Edit session token"
// @Success 201 {object} response.Response{data=ServiceResponse}
// @Failure 400,404,422,500 {object} response.Response
// @Router /provider/services [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	if !parseMultipart(w, r) {
		return
	}
	form := r.MultipartForm

	errs := ValidationErrors{}
	req := CreateServiceForm{
		Name:             strings.TrimSpace(formValue(form, "name")),
		CategoryID:       formValue(form, "category_id"),
		SubCategoryID:    formValue(form, "sub_category_id"),
		ShortDescription: strings.TrimSpace(formValue(form, "short_description")),
		Description:      strings.TrimSpace(formValue(form, "description")),
		Tax:              parseFloatField(formValue(form, "tax"), errs, "tax"),
		MinBiddingPrice:  parseFloatField(formValue(form, "min_bidding_price"), errs, "min_bidding_price"),
		Tags:             formValue(form, "tags"),
	}
	prices, ok := h.validateForm(w, r, &req, errs, form.Value)
	if !ok {
		return
	}

	in := ServiceInput{
		Name:             req.Name,
		CategoryID:       uuid.MustParse(req.CategoryID),
		SubCategoryID:    uuid.MustParse(req.SubCategoryID),
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Tax:              *req.Tax,
		MinBiddingPrice:  *req.MinBiddingPrice,
		Tags:             ParseTags(req.Tags),
		Prices:           prices,
	}

	images, closeFiles := openImages(form)
	defer closeFiles()

	svc, err := h.service.Create(r.Context(), owner, sessionToken(r), in, images)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.Created(w, ServiceResponseFromEntity(svc, h.service.ImageURL))
}

// Update handles PUT /provider/services/{id}
// @Summary Update a service
// @Tags Provider Service
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Service ID"
// @Param X-Edit-Session header string false "Edit session token"
// @Success 200 {object} response.Response{data=ServiceResponse}
// @Failure 400,404,422,500 {object} response.Response
// @Router /provider/services/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id", "Invalid service ID")
	if !ok {
		return
	}
	if !parseMultipart(w, r) {
		return
	}
	form := r.MultipartForm

	errs := ValidationErrors{}
	req := UpdateServiceForm{
		Name:             strings.TrimSpace(formValue(form, "name")),
		CategoryID:       formValue(form, "category_id"),
		SubCategoryID:    formValue(form, "sub_category_id"),
		ShortDescription: strings.TrimSpace(formValue(form, "short_description")),
		Description:      strings.TrimSpace(formValue(form, "description")),
		Tax:              parseFloatField(formValue(form, "tax"), errs, "tax"),
		MinBiddingPrice:  parseFloatField(formValue(form, "min_bidding_price"), errs, "min_bidding_price"),
		Variants:         append(form.Value["variants"], form.Value["variants[]"]...),
	}
	if tags, ok := form.Value["tags"]; ok && len(tags) > 0 {
		req.Tags = &tags[0]
	}
	prices, ok := h.validateForm(w, r, &req, errs, form.Value)
	if !ok {
		return
	}

	in := ServiceInput{
		Name:             req.Name,
		CategoryID:       uuid.MustParse(req.CategoryID),
		SubCategoryID:    uuid.MustParse(req.SubCategoryID),
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Tax:              *req.Tax,
		MinBiddingPrice:  *req.MinBiddingPrice,
		Variants:         req.Variants,
		Prices:           prices,
	}
	if req.Tags != nil {
		in.Tags = ParseTags(*req.Tags)
	}

	images, closeFiles := openImages(form)
	defer closeFiles()

	svc, err := h.service.Update(r.Context(), owner, id, sessionToken(r), in, images)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, ServiceResponseFromEntity(svc, h.service.ImageURL))
}

// Details handles GET /provider/services/{id}
// @Summary Service details
// @Tags Provider Service
// @Produce json
// @Security BearerAuth
// @Param id path string true "Service ID"
// @Success 200 {object} response.Response{data=DetailsResponse}
// @Failure 400,404,500 {object} response.Response
// @Router /provider/services/{id} [get]
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id", "Invalid service ID")
	if !ok {
		return
	}

	d, err := h.service.Details(r.Context(), owner, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, DetailsResponse{
		Service:       ServiceResponseFromEntity(d.Service, h.service.ImageURL),
		Variations:    VariationResponses(d.Variations),
		Tags:          d.Tags,
		OngoingCount:  d.OngoingCount,
		CanceledCount: d.CanceledCount,
		RatingInfo:    d.Rating,
	})
}

// Edit handles GET /provider/services/{id}/edit
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id", "Invalid service ID")
	if !ok {
		return
	}

	form, err := h.service.OpenEditSession(r.Context(), owner, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, EditFormResponse{
		Session:    SessionResponseFrom(form.Session, form.Zones),
		Service:    ServiceResponseFromEntity(form.Service, h.service.ImageURL),
		Variations: VariationResponses(form.Variations),
		Tags:       form.Tags,
	})
}

// ToggleActive handles PATCH /provider/services/{id}/status
func (h *Handler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id", "Invalid service ID")
	if !ok {
		return
	}

	active, err := h.service.ToggleActive(r.Context(), owner, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, map[string]bool{"is_active": active})
}

// Delete handles DELETE /provider/services/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id", "Invalid service ID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), owner, id); err != nil {
		h.handleError(w, r, err)
		return
	}
	response.NoContent(w)
}

// DeleteVariant handles DELETE /provider/services/{id}/variants/{key}
func (h *Handler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r, "id", "Invalid service ID")
	if !ok {
		return
	}

	session, err := h.service.DeletePersistedVariant(r.Context(), owner, sessionToken(r), id, chi.URLParam(r, "key"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, SessionResponseFrom(session, nil))
}

// OpenSession handles POST /provider/services/sessions
// @Summary Open a create-form scratchpad
// @Tags Provider Service
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OpenSessionRequest false "Category"
// @Success 201 {object} response.Response{data=SessionResponse}
// @Failure 400,422,500 {object} response.Response
// @Router /provider/services/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req OpenSessionRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	session, zones, err := h.service.OpenCreateSession(r.Context(), owner, parseOptionalUUID(req.CategoryID))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.Created(w, SessionResponseFrom(session, zones))
}

// SelectCategory handles PUT /provider/services/sessions/{token}/category
func (h *Handler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req SelectCategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, zones, err := h.service.SelectCategory(r.Context(), owner, chi.URLParam(r, "token"), uuid.MustParse(req.CategoryID))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, SessionResponseFrom(session, zones))
}

// AddVariant handles POST /provider/services/sessions/{token}/variants
// @Summary Draft a variant
// @Tags Provider Service
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param token path string true "Session token"
// @Param request body AddVariantRequest true "Variant"
// @Success 200 {object} response.Response{data=SessionResponse}
// @Failure 400,404,409,422,500 {object} response.Response
// @Router /provider/services/sessions/{token}/variants [post]
func (h *Handler) AddVariant(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req AddVariantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.service.AddVariant(r.Context(), owner, chi.URLParam(r, "token"), req.Name, req.Price)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, SessionResponseFrom(session, nil))
}

// RemoveVariant handles DELETE /provider/services/sessions/{token}/variants/{key}
func (h *Handler) RemoveVariant(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	session, err := h.service.RemoveVariant(r.Context(), owner, chi.URLParam(r, "token"), chi.URLParam(r, "key"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, SessionResponseFrom(session, nil))
}

// CancelSession handles DELETE /provider/services/sessions/{token}
func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.CancelSession(r.Context(), owner, chi.URLParam(r, "token")); err != nil {
		h.handleError(w, r, err)
		return
	}
	response.NoContent(w)
}

// CreateRequest handles POST /provider/services/requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateRequestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sr, err := h.service.CreateRequest(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.Created(w, ServiceRequestResponseFromEntity(sr))
}

// ListRequests handles GET /provider/services/requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := max(queryInt(q.Get("page"), 1), 1)

	requests, total, err := h.service.ListRequests(r.Context(), middleware.GetUserID(r.Context()), q.Get("search"), page, h.limit)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	items := make([]*ServiceRequestResponse, len(requests))
	for i := range requests {
		items[i] = ServiceRequestResponseFromEntity(&requests[i])
	}
	response.WithMeta(w, items, response.NewMeta(total, page, h.limit))
}

// VariationsForZone handles GET /admin/services/{id}/variations
// @Summary Priced variations of a service in a zone
// @Tags Admin Service
// @Produce json
// @Security BearerAuth
// @Param id path string true "Service ID"
// @Param zone_id query string true "Zone ID"
// @Success 200 {object} response.Response{data=[]VariationResponse}
// @Failure 400,500 {object} response.Response
// @Router /admin/services/{id}/variations [get]
func (h *Handler) VariationsForZone(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "Invalid service ID")
	if !ok {
		return
	}
	raw := r.URL.Query().Get("zone_id")
	if err := validator.ValidateVar(raw, "required,uuid"); err != nil {
		response.BadRequest(w, "Invalid zone_id")
		return
	}

	variations, err := h.service.VariationsForZone(r.Context(), id, uuid.MustParse(raw))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, VariationResponses(variations))
}

func (h *Handler) serviceResponses(services []Offering) []*ServiceResponse {
	items := make([]*ServiceResponse, len(services))
	for i := range services {
		items[i] = ServiceResponseFromEntity(&services[i], h.service.ImageURL)
	}
	return items
}

// validateForm runs tag validation on a service form and collects the price fields
func (h *Handler) validateForm(w http.ResponseWriter, r *http.Request, req interface{}, errs ValidationErrors, values url.Values) (map[string]float64, bool) {
	for field, msg := range validator.Validate(req) {
		if _, ok := errs[field]; !ok {
			errs[field] = msg
		}
	}
	prices, priceErrs := ParsePrices(values)
	for field, msg := range priceErrs {
		if _, ok := errs[field]; !ok {
			errs[field] = msg
		}
	}
	if len(errs) > 0 {
		errorhandler.HandleValidation(r.Context(), w, errs)
		return nil, false
	}
	return prices, true
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr ValidationErrors
	switch {
	case errors.As(err, &verr):
		errorhandler.HandleValidation(r.Context(), w, verr)
	case errors.Is(err, ErrServiceNotFound):
		response.NotFound(w, "Service not found")
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(w, "Edit session not found or expired")
	case errors.Is(err, ErrVariantExists):
		response.Conflict(w, "Variant already exists")
	case errors.Is(err, ErrDuplicateVariation):
		response.Conflict(w, "Variation already exists for this zone")
	case errors.Is(err, ErrInvalidReference):
		errorhandler.HandleValidation(r.Context(), w, map[string]string{"category_id": "Category or zone does not exist"})
	case errors.Is(err, ErrInvalidQuery):
		response.BadRequest(w, "Search string must be base64 encoded")
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SERVICE_OPERATION_FAILED", "Failed to process service", err)
	}
}

func ownerFrom(w http.ResponseWriter, r *http.Request) (Owner, bool) {
	p := provider.FromContext(r.Context())
	if p == nil {
		response.Forbidden(w, "Provider account required")
		return Owner{}, false
	}
	return Owner{ProviderID: p.ID, Email: p.Email}, true
}

func sessionToken(r *http.Request) string {
	if token := r.Header.Get(SessionHeader); token != "" {
		return token
	}
	return r.FormValue("session_token")
}

func parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormSize)
	if err := r.ParseMultipartForm(MaxFormSize); err != nil {
		response.BadRequest(w, "Form too large or invalid")
		return false
	}
	return true
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// openImages opens the uploaded image files; missing files stay nil
func openImages(form *multipart.Form) (Images, func()) {
	var images Images
	var opened []multipart.File

	open := func(field string) multipart.File {
		headers := form.File[field]
		if len(headers) == 0 {
			return nil
		}
		f, err := headers[0].Open()
		if err != nil {
			return nil
		}
		opened = append(opened, f)
		return f
	}

	if f := open("cover_image"); f != nil {
		images.Cover = f
	}
	if f := open("thumbnail"); f != nil {
		images.Thumbnail = f
	}

	return images, func() {
		for _, f := range opened {
			f.Close()
		}
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

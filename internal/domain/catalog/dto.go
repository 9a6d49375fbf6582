package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/domain/review"
	"github.com/servicehub/servicehub-api/internal/domain/zone"
)

// CreateServiceForm is the multipart form of POST /provider/services
type CreateServiceForm struct {
	Name             string   `form:"name" validate:"required,max=191"`
	CategoryID       string   `form:"category_id" validate:"required,uuid"`
	SubCategoryID    string   `form:"sub_category_id" validate:"required,uuid"`
	ShortDescription string   `form:"short_description" validate:"required"`
	Description      string   `form:"description" validate:"required"`
	Tax              *float64 `form:"tax" validate:"required,gte=0,lte=100"`
	MinBiddingPrice  *float64 `form:"min_bidding_price" validate:"required,gt=0"`
	Tags             string   `form:"tags"`
}

// UpdateServiceForm is the multipart form of PUT /provider/services/{id}.
// Variants holds the variant keys to keep; Tags is nil when the field was not sent.
type UpdateServiceForm struct {
	Name             string   `form:"name" validate:"required,max=191"`
	CategoryID       string   `form:"category_id" validate:"required,uuid"`
	SubCategoryID    string   `form:"sub_category_id" validate:"required,uuid"`
	ShortDescription string   `form:"short_description"`
	Description      string   `form:"description" validate:"required"`
	Tax              *float64 `form:"tax" validate:"required,gte=0,lte=100"`
	MinBiddingPrice  *float64 `form:"min_bidding_price" validate:"required,gt=0"`
	Variants         []string `form:"variants" validate:"required,min=1"`
	Tags             *string  `form:"tags"`
}

// parseFloatField keeps a malformed number distinguishable from a missing one
func parseFloatField(raw string, errs ValidationErrors, field string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs[field] = "Must be a number"
		return nil
	}
	return &v
}

// OpenSessionRequest for POST /provider/services/sessions
type OpenSessionRequest struct {
	CategoryID *string `json:"category_id" validate:"omitempty,uuid"`
}

// SelectCategoryRequest for PUT /provider/services/sessions/{token}/category
type SelectCategoryRequest struct {
	CategoryID string `json:"category_id" validate:"required,uuid"`
}

// AddVariantRequest for POST /provider/services/sessions/{token}/variants
type AddVariantRequest struct {
	Name  string  `json:"name" validate:"required,max=191"`
	Price float64 `json:"price" validate:"gte=0"`
}

// CreateRequestRequest for POST /provider/services/requests
type CreateRequestRequest struct {
	CategoryID         *string `json:"category_id" validate:"omitempty,uuid"`
	ServiceName        string  `json:"service_name" validate:"required,max=255"`
	ServiceDescription string  `json:"service_description" validate:"required"`
}

// ServiceResponse for API response
type ServiceResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	CategoryID       string  `json:"category_id"`
	SubCategoryID    string  `json:"sub_category_id"`
	ShortDescription string  `json:"short_description"`
	Description      string  `json:"description"`
	CoverImage       string  `json:"cover_image"`
	Thumbnail        string  `json:"thumbnail"`
	Tax              float64 `json:"tax"`
	MinBiddingPrice  float64 `json:"min_bidding_price"`
	IsActive         bool    `json:"is_active"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// ServiceResponseFromEntity converts entity to response; url resolves image keys
func ServiceResponseFromEntity(s *Offering, url func(string) string) *ServiceResponse {
	return &ServiceResponse{
		ID:               s.ID.String(),
		Name:             s.Name,
		CategoryID:       s.CategoryID.String(),
		SubCategoryID:    s.SubCategoryID.String(),
		ShortDescription: s.ShortDescription,
		Description:      s.Description,
		CoverImage:       url(s.CoverImage),
		Thumbnail:        url(s.Thumbnail),
		Tax:              s.Tax,
		MinBiddingPrice:  s.MinBiddingPrice,
		IsActive:         s.IsActive,
		CreatedAt:        s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        s.UpdatedAt.Format(time.RFC3339),
	}
}

// VariationResponse for API response
type VariationResponse struct {
	ID         string  `json:"id"`
	ZoneID     string  `json:"zone_id"`
	Variant    string  `json:"variant"`
	VariantKey string  `json:"variant_key"`
	Price      float64 `json:"price"`
}

// VariationResponses converts variation rows
func VariationResponses(rows []Variation) []VariationResponse {
	out := make([]VariationResponse, len(rows))
	for i, v := range rows {
		out[i] = VariationResponse{
			ID:         v.ID.String(),
			ZoneID:     v.ZoneID.String(),
			Variant:    v.Variant,
			VariantKey: v.VariantKey,
			Price:      v.Price,
		}
	}
	return out
}

// ZoneResponse for API response
type ZoneResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func zoneResponses(zones []zone.Zone) []ZoneResponse {
	out := make([]ZoneResponse, len(zones))
	for i, z := range zones {
		out[i] = ZoneResponse{ID: z.ID.String(), Name: z.Name}
	}
	return out
}

// SessionResponse describes an open edit session
type SessionResponse struct {
	Token           string         `json:"token"`
	ServiceID       *string        `json:"service_id,omitempty"`
	CategoryID      *string        `json:"category_id,omitempty"`
	Variants        []DraftVariant `json:"variants"`
	EditingVariants []string       `json:"editing_variants"`
	Zones           []ZoneResponse `json:"zones"`
}

// SessionResponseFrom converts a session and its zones
func SessionResponseFrom(s *Session, zones []zone.Zone) *SessionResponse {
	resp := &SessionResponse{
		Token:           s.Token,
		Variants:        s.Variants,
		EditingVariants: s.EditingVariants,
		Zones:           zoneResponses(zones),
	}
	if s.ServiceID != nil {
		id := s.ServiceID.String()
		resp.ServiceID = &id
	}
	if s.CategoryID != nil {
		id := s.CategoryID.String()
		resp.CategoryID = &id
	}
	return resp
}

// EditFormResponse is the data needed to render the edit form
type EditFormResponse struct {
	Session    *SessionResponse    `json:"session"`
	Service    *ServiceResponse    `json:"service"`
	Variations []VariationResponse `json:"variations"`
	Tags       []string            `json:"tags"`
}

// DetailsResponse for GET /provider/services/{id}
type DetailsResponse struct {
	Service       *ServiceResponse    `json:"service"`
	Variations    []VariationResponse `json:"variations"`
	Tags          []string            `json:"tags"`
	OngoingCount  int                 `json:"ongoing_count"`
	CanceledCount int                 `json:"canceled_count"`
	RatingInfo    review.Summary      `json:"rating_info"`
}

// ServiceRequestResponse for API response
type ServiceRequestResponse struct {
	ID                 string  `json:"id"`
	CategoryID         *string `json:"category_id,omitempty"`
	CategoryName       string  `json:"category_name,omitempty"`
	ServiceName        string  `json:"service_name"`
	ServiceDescription string  `json:"service_description"`
	Status             string  `json:"status"`
	CreatedAt          string  `json:"created_at"`
}

// ServiceRequestResponseFromEntity converts entity to response
func ServiceRequestResponseFromEntity(r *ServiceRequest) *ServiceRequestResponse {
	resp := &ServiceRequestResponse{
		ID:                 r.ID.String(),
		ServiceName:        r.ServiceName,
		ServiceDescription: r.ServiceDescription,
		Status:             r.Status,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
	}
	if r.CategoryID.Valid {
		id := r.CategoryID.UUID.String()
		resp.CategoryID = &id
	}
	if r.CategoryName.Valid {
		resp.CategoryName = r.CategoryName.String
	}
	return resp
}

func parseOptionalUUID(raw *string) *uuid.UUID {
	if raw == nil || *raw == "" {
		return nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil
	}
	return &id
}

package catalog

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/domain/booking"
	"github.com/servicehub/servicehub-api/internal/domain/review"
	"github.com/servicehub/servicehub-api/internal/domain/zone"
	"github.com/servicehub/servicehub-api/internal/pkg/imaging"
	"github.com/servicehub/servicehub-api/internal/pkg/logger"
	"github.com/servicehub/servicehub-api/internal/pkg/storage"
)

// ZoneLister loads zones for the variation matrix
type ZoneLister interface {
	ListActive(ctx context.Context) ([]zone.Zone, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]zone.Zone, error)
}

// ImageStore stores service images and returns their keys
type ImageStore interface {
	SaveCover(ctx context.Context, serviceID uuid.UUID, r io.Reader) (string, error)
	SaveThumbnail(ctx context.Context, serviceID uuid.UUID, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// ReviewSummarizer provides rating info for service details
type ReviewSummarizer interface {
	ServiceSummary(ctx context.Context, serviceID uuid.UUID, providerID *uuid.UUID) (review.Summary, error)
}

// ServiceInput carries validated service form fields
type ServiceInput struct {
	Name             string
	CategoryID       uuid.UUID
	SubCategoryID    uuid.UUID
	ShortDescription string
	Description      string
	Tax              float64
	MinBiddingPrice  float64
	// Tags is nil on update when the tags field was not sent
	Tags []string
	// Variants lists the variant keys to keep (update only)
	Variants []string
	// Prices by "{variant_key}_{zone_id}_price"
	Prices map[string]float64
}

// Images holds uploaded files; nil readers were not uploaded
type Images struct {
	Cover     io.Reader
	Thumbnail io.Reader
}

// EditForm is what the edit form is rendered from
type EditForm struct {
	Session    *Session
	Service    *Offering
	Variations []Variation
	Tags       []string
	Zones      []zone.Zone
}

// Details is a service with its pricing, tags and activity
type Details struct {
	Service       *Offering
	Variations    []Variation
	Tags          []string
	OngoingCount  int
	CanceledCount int
	Rating        review.Summary
}

// Service handles catalog business logic
type Service struct {
	repo     Repository
	sessions SessionStore
	zones    ZoneLister
	images   ImageStore
	reviews  ReviewSummarizer
}

// NewService creates catalog service
func NewService(repo Repository, sessions SessionStore, zones ZoneLister, images ImageStore, reviews ReviewSummarizer) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		zones:    zones,
		images:   images,
		reviews:  reviews,
	}
}

// ImageURL resolves a stored image key
func (s *Service) ImageURL(key string) string {
	return s.images.URL(key)
}

// Create stores a new service with its tags and the variation matrix built
// from the session's variants and every active zone.
func (s *Service) Create(ctx context.Context, owner Owner, token string, in ServiceInput, images Images) (*Offering, error) {
	errs := ValidationErrors{}
	if images.Cover == nil {
		errs["cover_image"] = "This field is required"
	}
	if images.Thumbnail == nil {
		errs["thumbnail"] = "This field is required"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	session, err := s.loadSession(ctx, owner, token, nil)
	if err != nil {
		return nil, err
	}

	zones, err := s.zones.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	svc := &Offering{
		ID:               uuid.New(),
		Email:            owner.Email,
		Name:             in.Name,
		CategoryID:       in.CategoryID,
		SubCategoryID:    in.SubCategoryID,
		ShortDescription: in.ShortDescription,
		Description:      in.Description,
		Tax:              in.Tax,
		MinBiddingPrice:  in.MinBiddingPrice,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if svc.CoverImage, err = s.images.SaveCover(ctx, svc.ID, images.Cover); err != nil {
		return nil, imageError("cover_image", err)
	}
	if svc.Thumbnail, err = s.images.SaveThumbnail(ctx, svc.ID, images.Thumbnail); err != nil {
		s.discardImages(ctx, svc.CoverImage)
		return nil, imageError("thumbnail", err)
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	variations := BuildVariationMatrix(svc.ID, session.Variants, zone.IDs(zones), in.Prices)

	if err := s.repo.Create(ctx, svc, tags, variations); err != nil {
		s.discardImages(ctx, svc.CoverImage, svc.Thumbnail)
		return nil, err
	}

	logger.LogInfo(ctx, "Service created",
		"service_id", svc.ID.String(),
		"provider_id", owner.ProviderID.String(),
		"variations", len(variations),
	)

	s.closeSession(ctx, token)
	return svc, nil
}

// Update rewrites a service and replaces its variation matrix with the kept
// variants across every active zone. Images are replaced only when uploaded.
func (s *Service) Update(ctx context.Context, owner Owner, id uuid.UUID, token string, in ServiceInput, images Images) (*Offering, error) {
	if len(in.Variants) == 0 {
		return nil, ValidationErrors{"variants": "This field is required"}
	}

	svc, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	session, err := s.loadSession(ctx, owner, token, &id)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.ListVariations(ctx, id)
	if err != nil {
		return nil, err
	}
	drafts := draftsFromKeys(in.Variants, variantLabels(session.Variants, stored))

	zones, err := s.zones.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	oldCover, oldThumbnail := svc.CoverImage, svc.Thumbnail
	var uploaded []string
	if images.Cover != nil {
		if svc.CoverImage, err = s.images.SaveCover(ctx, id, images.Cover); err != nil {
			return nil, imageError("cover_image", err)
		}
		uploaded = append(uploaded, svc.CoverImage)
	}
	if images.Thumbnail != nil {
		if svc.Thumbnail, err = s.images.SaveThumbnail(ctx, id, images.Thumbnail); err != nil {
			s.discardImages(ctx, uploaded...)
			return nil, imageError("thumbnail", err)
		}
		uploaded = append(uploaded, svc.Thumbnail)
	}

	svc.Name = in.Name
	svc.CategoryID = in.CategoryID
	svc.SubCategoryID = in.SubCategoryID
	svc.ShortDescription = in.ShortDescription
	svc.Description = in.Description
	svc.Tax = in.Tax
	svc.MinBiddingPrice = in.MinBiddingPrice
	svc.UpdatedAt = time.Now()

	variations := BuildVariationMatrix(id, drafts, zone.IDs(zones), in.Prices)
	if err := s.repo.Update(ctx, svc, in.Tags, variations); err != nil {
		s.discardImages(ctx, uploaded...)
		return nil, err
	}

	if images.Cover != nil {
		s.discardImages(ctx, oldCover)
	}
	if images.Thumbnail != nil {
		s.discardImages(ctx, oldThumbnail)
	}

	logger.LogInfo(ctx, "Service updated",
		"service_id", id.String(),
		"variations", len(variations),
	)

	s.closeSession(ctx, token)
	return svc, nil
}

// OpenCreateSession starts an empty scratchpad, optionally for a category
func (s *Service) OpenCreateSession(ctx context.Context, owner Owner, categoryID *uuid.UUID) (*Session, []zone.Zone, error) {
	session := NewSession()
	session.ProviderID = owner.ProviderID

	zones := []zone.Zone{}
	if categoryID != nil {
		var err error
		if zones, err = s.zones.ListByCategory(ctx, *categoryID); err != nil {
			return nil, nil, err
		}
		session.CategoryID = categoryID
		session.CategoryZones = zone.IDs(zones)
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, err
	}
	return session, zones, nil
}

// SelectCategory reloads the zones of the chosen category
func (s *Service) SelectCategory(ctx context.Context, owner Owner, token string, categoryID uuid.UUID) (*Session, []zone.Zone, error) {
	session, err := s.session(ctx, owner, token)
	if err != nil {
		return nil, nil, err
	}

	zones, err := s.zones.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	session.CategoryID = &categoryID
	session.CategoryZones = zone.IDs(zones)

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, err
	}
	return session, zones, nil
}

// OpenEditSession starts a scratchpad seeded with the service's stored variant keys
func (s *Service) OpenEditSession(ctx context.Context, owner Owner, id uuid.UUID) (*EditForm, error) {
	svc, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	variations, err := s.repo.ListVariations(ctx, id)
	if err != nil {
		return nil, err
	}
	tags, err := s.repo.ListTagLabels(ctx, id)
	if err != nil {
		return nil, err
	}
	zones, err := s.zones.ListByCategory(ctx, svc.CategoryID)
	if err != nil {
		return nil, err
	}

	session := NewSession()
	session.ProviderID = owner.ProviderID
	session.ServiceID = &svc.ID
	session.CategoryID = &svc.CategoryID
	session.CategoryZones = zone.IDs(zones)
	seen := map[string]struct{}{}
	for _, v := range variations {
		if _, ok := seen[v.VariantKey]; ok {
			continue
		}
		seen[v.VariantKey] = struct{}{}
		session.EditingVariants = append(session.EditingVariants, v.VariantKey)
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	return &EditForm{
		Session:    session,
		Service:    svc,
		Variations: variations,
		Tags:       tags,
		Zones:      zones,
	}, nil
}

// AddVariant drafts a variant in the session
func (s *Service) AddVariant(ctx context.Context, owner Owner, token, name string, price float64) (*Session, error) {
	session, err := s.session(ctx, owner, token)
	if err != nil {
		return nil, err
	}
	if _, err := session.AddVariant(strings.TrimSpace(name), price); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RemoveVariant drops a drafted variant from the session
func (s *Service) RemoveVariant(ctx context.Context, owner Owner, token, key string) (*Session, error) {
	session, err := s.session(ctx, owner, token)
	if err != nil {
		return nil, err
	}
	session.RemoveVariant(key)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// DeletePersistedVariant deletes the stored rows of a variant key and drops the
// key from the session editing the service.
func (s *Service) DeletePersistedVariant(ctx context.Context, owner Owner, token string, id uuid.UUID, key string) (*Session, error) {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return nil, err
	}

	session, err := s.session(ctx, owner, token)
	if err != nil {
		return nil, err
	}
	if session.ServiceID == nil || *session.ServiceID != id {
		return nil, ErrSessionNotFound
	}

	deleted, err := s.repo.DeleteVariationsByKey(ctx, id, key)
	if err != nil {
		return nil, err
	}
	session.ForgetStoredVariant(key)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	logger.LogInfo(ctx, "Variant deleted",
		"service_id", id.String(),
		"variant_key", key,
		"rows", deleted,
	)
	return session, nil
}

// CancelSession discards a scratchpad. Cancelling an expired session is a no-op.
func (s *Service) CancelSession(ctx context.Context, owner Owner, token string) error {
	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if session.ProviderID != owner.ProviderID {
		return ErrSessionNotFound
	}
	return s.sessions.Delete(ctx, token)
}

// ToggleActive flips the active flag of an owned service
func (s *Service) ToggleActive(ctx context.Context, owner Owner, id uuid.UUID) (bool, error) {
	active, found, err := s.repo.ToggleActive(ctx, id, owner.Email)
	if err != nil {
		return false, err
	}
	if !found {
		return false, ErrServiceNotFound
	}
	return active, nil
}

// Delete removes a service with its variations and tag links, then its images
func (s *Service) Delete(ctx context.Context, owner Owner, id uuid.UUID) error {
	svc, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.discardImages(ctx, svc.CoverImage, svc.Thumbnail)

	logger.LogInfo(ctx, "Service deleted", "service_id", id.String())
	return nil
}

// Details returns an owned service with variations, tags, booking counts and ratings
func (s *Service) Details(ctx context.Context, owner Owner, id uuid.UUID) (*Details, error) {
	svc, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	d := &Details{Service: svc}
	if d.Variations, err = s.repo.ListVariations(ctx, id); err != nil {
		return nil, err
	}
	if d.Tags, err = s.repo.ListTagLabels(ctx, id); err != nil {
		return nil, err
	}
	if d.OngoingCount, err = s.repo.CountBookings(ctx, id, string(booking.StatusOngoing), &owner.ProviderID); err != nil {
		return nil, err
	}
	if d.CanceledCount, err = s.repo.CountBookings(ctx, id, string(booking.StatusCanceled), &owner.ProviderID); err != nil {
		return nil, err
	}
	if d.Rating, err = s.reviews.ServiceSummary(ctx, id, &owner.ProviderID); err != nil {
		return nil, err
	}
	return d, nil
}

// ListOwned returns a page of the owner's services. Search words are OR-matched
// against the name.
func (s *Service) ListOwned(ctx context.Context, owner Owner, search, status string, page, limit int) ([]Offering, int, error) {
	if status == "" {
		status = StatusAll
	}
	if status != StatusActive && status != StatusInactive && status != StatusAll {
		return nil, 0, ValidationErrors{"status": "Must be one of: active inactive all"}
	}
	if page < 1 {
		page = 1
	}

	filter := ListFilter{
		Email:  owner.Email,
		Search: strings.Fields(search),
		Status: status,
	}
	return s.repo.ListByOwner(ctx, filter, limit, (page-1)*limit)
}

// Search is ListOwned with a base64 encoded query string
func (s *Service) Search(ctx context.Context, owner Owner, encoded, status string, page, limit int) ([]Offering, int, error) {
	query, err := decodeQuery(encoded)
	if err != nil {
		return nil, 0, err
	}
	return s.ListOwned(ctx, owner, query, status, page, limit)
}

// VariationsForZone returns the priced variations of a service in a zone
func (s *Service) VariationsForZone(ctx context.Context, serviceID, zoneID uuid.UUID) ([]Variation, error) {
	return s.repo.ListPricedVariations(ctx, serviceID, zoneID)
}

// CreateRequest files a request for a new service
func (s *Service) CreateRequest(ctx context.Context, userID uuid.UUID, req *CreateRequestRequest) (*ServiceRequest, error) {
	sr := &ServiceRequest{
		ID:                 uuid.New(),
		ServiceName:        strings.TrimSpace(req.ServiceName),
		ServiceDescription: strings.TrimSpace(req.ServiceDescription),
		Status:             "pending",
		UserID:             userID,
		CreatedAt:          time.Now(),
	}
	if id := parseOptionalUUID(req.CategoryID); id != nil {
		sr.CategoryID = uuid.NullUUID{UUID: *id, Valid: true}
	}

	if err := s.repo.CreateRequest(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

// ListRequests returns a page of the user's service requests
func (s *Service) ListRequests(ctx context.Context, userID uuid.UUID, search string, page, limit int) ([]ServiceRequest, int, error) {
	if page < 1 {
		page = 1
	}
	return s.repo.ListRequests(ctx, userID, strings.Fields(search), limit, (page-1)*limit)
}

// owned loads a service of the owner. Services of other accounts are not found.
func (s *Service) owned(ctx context.Context, owner Owner, id uuid.UUID) (*Offering, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc == nil || svc.Email != owner.Email {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

// session loads a session opened by the owner. Other providers' sessions are not found.
func (s *Service) session(ctx context.Context, owner Owner, token string) (*Session, error) {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.ProviderID != owner.ProviderID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// loadSession returns the owner's session for the form being saved: a create
// session when serviceID is nil, else the edit session of that service.
// An empty token yields a fresh session.
func (s *Service) loadSession(ctx context.Context, owner Owner, token string, serviceID *uuid.UUID) (*Session, error) {
	if token == "" {
		session := NewSession()
		session.ProviderID = owner.ProviderID
		return session, nil
	}

	session, err := s.session(ctx, owner, token)
	if err != nil {
		return nil, err
	}
	switch {
	case serviceID == nil && session.ServiceID != nil:
		return nil, ErrSessionNotFound
	case serviceID != nil && (session.ServiceID == nil || *session.ServiceID != *serviceID):
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) closeSession(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		logger.LogWarn(ctx, "Failed to discard edit session", "error", err.Error())
	}
}

func (s *Service) discardImages(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.images.Delete(ctx, key); err != nil {
			logger.LogWarn(ctx, "Failed to delete image", "key", key, "error", err.Error())
		}
	}
}

func imageError(field string, err error) error {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return ValidationErrors{field: "File exceeds maximum size"}
	case errors.Is(err, storage.ErrInvalidMimeType):
		return ValidationErrors{field: "File type not allowed"}
	case errors.Is(err, storage.ErrEmptyFile):
		return ValidationErrors{field: "File is empty"}
	case errors.Is(err, imaging.ErrInvalidImage):
		return ValidationErrors{field: "File is not a valid image"}
	default:
		return err
	}
}

func decodeQuery(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		if raw, err = base64.URLEncoding.DecodeString(encoded); err != nil {
			return "", ErrInvalidQuery
		}
	}
	return string(raw), nil
}

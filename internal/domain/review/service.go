package review

import (
	"context"
	"math"

	"github.com/google/uuid"
)

// Summarize aggregates rating groups. The average is weighted by the number
// of reviews in each group and rounded to two decimals.
func Summarize(groups []RatingGroup) Summary {
	s := Summary{
		RatingCount: len(groups),
		Groups:      groups,
	}
	if s.Groups == nil {
		s.Groups = []RatingGroup{}
	}

	sum := 0
	for _, g := range groups {
		sum += g.Rating * g.Total
		s.TotalReviews += g.Total
	}
	if s.TotalReviews > 0 {
		s.AverageRating = math.Round(float64(sum)/float64(s.TotalReviews)*100) / 100
	}
	return s
}

// ProviderReviews is one page of a provider's reviews for a service
type ProviderReviews struct {
	Reviews []Review
	Total   int
	Rating  Summary
}

// Service handles review aggregation
type Service struct {
	repo Repository
}

// NewService creates review service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RatingGroups counts reviews per rating for the filter
func (s *Service) RatingGroups(ctx context.Context, filter Filter) ([]RatingGroup, error) {
	return s.repo.RatingGroups(ctx, filter)
}

// ListForProvider returns a page of the provider's reviews for a service with
// rating info. An empty page is ErrNoReviews.
func (s *Service) ListForProvider(ctx context.Context, providerID, serviceID uuid.UUID, status string, limit, page int) (*ProviderReviews, error) {
	if page < 1 {
		page = 1
	}
	filter := Filter{ServiceID: &serviceID, ProviderID: &providerID, Status: status}

	reviews, total, err := s.repo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, ErrNoReviews
	}

	// rating info covers every status, like the panel's rating card
	groups, err := s.repo.RatingGroups(ctx, Filter{ServiceID: &serviceID, ProviderID: &providerID})
	if err != nil {
		return nil, err
	}

	return &ProviderReviews{
		Reviews: reviews,
		Total:   total,
		Rating:  Summarize(groups),
	}, nil
}

// ServiceSummary summarizes active reviews of a service, optionally for one provider
func (s *Service) ServiceSummary(ctx context.Context, serviceID uuid.UUID, providerID *uuid.UUID) (Summary, error) {
	groups, err := s.repo.RatingGroups(ctx, Filter{ServiceID: &serviceID, ProviderID: providerID, Status: StatusActive})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(groups), nil
}

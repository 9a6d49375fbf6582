package review

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestSummarizeWeightedAverage(t *testing.T) {
	tests := []struct {
		name    string
		groups  []RatingGroup
		avg     float64
		total   int
		ratings int
	}{
		{"empty", nil, 0, 0, 0},
		{"single group", []RatingGroup{{Rating: 4, Total: 3}}, 4, 3, 1},
		{"weighted", []RatingGroup{{Rating: 5, Total: 3}, {Rating: 1, Total: 1}}, 4, 4, 2},
		{"rounded", []RatingGroup{{Rating: 5, Total: 1}, {Rating: 4, Total: 1}, {Rating: 4, Total: 1}}, 4.33, 3, 3},
		{"thirds", []RatingGroup{{Rating: 5, Total: 2}, {Rating: 4, Total: 1}}, 4.67, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.groups)
			if s.AverageRating != tt.avg {
				t.Fatalf("expected average %v, got %v", tt.avg, s.AverageRating)
			}
			if s.TotalReviews != tt.total || s.RatingCount != tt.ratings {
				t.Fatalf("unexpected counts %+v", s)
			}
			if s.Groups == nil {
				t.Fatalf("groups must never be nil")
			}
		})
	}
}

type repoStub struct {
	reviews []Review
	groups  []RatingGroup
	filters []Filter
}

func (r *repoStub) RatingGroups(_ context.Context, f Filter) ([]RatingGroup, error) {
	r.filters = append(r.filters, f)
	return r.groups, nil
}

func (r *repoStub) List(_ context.Context, f Filter, limit, offset int) ([]Review, int, error) {
	if offset >= len(r.reviews) {
		return nil, len(r.reviews), nil
	}
	end := offset + limit
	if end > len(r.reviews) {
		end = len(r.reviews)
	}
	return r.reviews[offset:end], len(r.reviews), nil
}

func TestListForProviderEmptyPageIsNotFound(t *testing.T) {
	svc := NewService(&repoStub{})

	_, err := svc.ListForProvider(context.Background(), uuid.New(), uuid.New(), StatusAll, 10, 1)
	if !errors.Is(err, ErrNoReviews) {
		t.Fatalf("expected ErrNoReviews, got %v", err)
	}
}

func TestListForProviderReturnsRatingInfo(t *testing.T) {
	repo := &repoStub{
		reviews: []Review{{ID: uuid.New(), ReviewRating: 5}, {ID: uuid.New(), ReviewRating: 3}},
		groups:  []RatingGroup{{Rating: 5, Total: 1}, {Rating: 3, Total: 1}},
	}
	svc := NewService(repo)
	providerID, serviceID := uuid.New(), uuid.New()

	res, err := svc.ListForProvider(context.Background(), providerID, serviceID, StatusActive, 1, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Reviews) != 1 || res.Total != 2 {
		t.Fatalf("unexpected page %+v", res)
	}
	if res.Rating.AverageRating != 4 {
		t.Fatalf("expected average 4, got %v", res.Rating.AverageRating)
	}
	f := repo.filters[0]
	if *f.ProviderID != providerID || *f.ServiceID != serviceID {
		t.Fatalf("rating groups not scoped to provider and service")
	}
	if f.Status != "" {
		t.Fatalf("rating info must cover every status, got filter %q", f.Status)
	}

	if _, err := svc.ListForProvider(context.Background(), providerID, serviceID, StatusActive, 10, 2); !errors.Is(err, ErrNoReviews) {
		t.Fatalf("expected ErrNoReviews past the last page, got %v", err)
	}
}

package subscription

import (
	"context"

	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/domain/provider"
	"github.com/servicehub/servicehub-api/internal/pkg/logger"
)

// Service handles sub-category subscriptions
type Service struct {
	repo Repository
}

// NewService creates subscription service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Toggle subscribes or unsubscribes the provider from a sub-category offered in their zone
func (s *Service) Toggle(ctx context.Context, p *provider.Provider, subCategoryID uuid.UUID) (*Subscription, error) {
	sub, err := s.repo.Toggle(ctx, p.ID, p.ZoneID, subCategoryID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotFound
	}

	logger.LogInfo(ctx, "Subscription toggled",
		"provider_id", p.ID.String(),
		"sub_category_id", subCategoryID.String(),
		"subscribed", sub.IsSubscribed,
	)
	return sub, nil
}

// Available lists the categories of the provider's zone, the sub-categories
// (optionally of one category) and the provider's current subscriptions.
func (s *Service) Available(ctx context.Context, p *provider.Provider, activeCategory *uuid.UUID) (*Catalog, error) {
	categories, err := s.repo.ListCategories(ctx, p.ZoneID)
	if err != nil {
		return nil, err
	}
	subs, err := s.repo.ListSubCategories(ctx, p.ZoneID, activeCategory)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.repo.ListSubscribed(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		Categories:    categories,
		SubCategories: subs,
		Subscribed:    subscribed,
	}, nil
}

package subscription

// SubscriptionResponse for API response
type SubscriptionResponse struct {
	SubCategoryID string `json:"sub_category_id"`
	CategoryID    string `json:"category_id"`
	IsSubscribed  bool   `json:"is_subscribed"`
}

// SubscriptionResponseFromEntity converts entity to response
func SubscriptionResponseFromEntity(s *Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		SubCategoryID: s.SubCategoryID.String(),
		CategoryID:    s.CategoryID.String(),
		IsSubscribed:  s.IsSubscribed,
	}
}

// CategoryResponse for API response
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubCategoryResponse for API response
type SubCategoryResponse struct {
	ID            string `json:"id"`
	CategoryID    string `json:"category_id"`
	Name          string `json:"name"`
	ServicesCount int    `json:"services_count"`
	IsSubscribed  bool   `json:"is_subscribed"`
}

// CatalogResponse for GET /provider/subscriptions
type CatalogResponse struct {
	Categories    []CategoryResponse    `json:"categories"`
	SubCategories []SubCategoryResponse `json:"sub_categories"`
	Subscribed    []string              `json:"subscribed"`
}

// CatalogResponseFrom converts the catalog, marking subscribed sub-categories
func CatalogResponseFrom(c *Catalog) *CatalogResponse {
	subscribed := make(map[string]bool, len(c.Subscribed))
	resp := &CatalogResponse{
		Categories:    make([]CategoryResponse, len(c.Categories)),
		SubCategories: make([]SubCategoryResponse, len(c.SubCategories)),
		Subscribed:    make([]string, len(c.Subscribed)),
	}
	for i, id := range c.Subscribed {
		resp.Subscribed[i] = id.String()
		subscribed[resp.Subscribed[i]] = true
	}
	for i, cat := range c.Categories {
		resp.Categories[i] = CategoryResponse{ID: cat.ID.String(), Name: cat.Name}
	}
	for i, sc := range c.SubCategories {
		resp.SubCategories[i] = SubCategoryResponse{
			ID:            sc.ID.String(),
			CategoryID:    sc.ParentID.String(),
			Name:          sc.Name,
			ServicesCount: sc.ServicesCount,
			IsSubscribed:  subscribed[sc.ID.String()],
		}
	}
	return resp
}

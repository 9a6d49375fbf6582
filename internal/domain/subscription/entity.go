package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription marks a provider as serving a sub-category
type Subscription struct {
	ID            uuid.UUID `db:"id"`
	ProviderID    uuid.UUID `db:"provider_id"`
	CategoryID    uuid.UUID `db:"category_id"`
	SubCategoryID uuid.UUID `db:"sub_category_id"`
	IsSubscribed  bool      `db:"is_subscribed"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Category is a main category offered in a zone
type Category struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"name"`
}

// SubCategory with the number of active services under it
type SubCategory struct {
	ID            uuid.UUID `db:"id"`
	ParentID      uuid.UUID `db:"parent_id"`
	Name          string    `db:"name"`
	ServicesCount int       `db:"services_count"`
}

// Catalog is what a provider can subscribe to in their zone
type Catalog struct {
	Categories    []Category
	SubCategories []SubCategory
	Subscribed    []uuid.UUID
}

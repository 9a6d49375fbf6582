package catalog

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Offering is a service a provider lists in the catalog
type Offering struct {
	ID               uuid.UUID `db:"id"`
	Email            string    `db:"email"`
	Name             string    `db:"name"`
	CategoryID       uuid.UUID `db:"category_id"`
	SubCategoryID    uuid.UUID `db:"sub_category_id"`
	ShortDescription string    `db:"short_description"`
	Description      string    `db:"description"`
	CoverImage       string    `db:"cover_image"`
	Thumbnail        string    `db:"thumbnail"`
	Tax              float64   `db:"tax"`
	MinBiddingPrice  float64   `db:"min_bidding_price"`
	IsActive         bool      `db:"is_active"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Variation is the price of one variant of a service in one zone
type Variation struct {
	ID         uuid.UUID `db:"id"`
	ServiceID  uuid.UUID `db:"service_id"`
	ZoneID     uuid.UUID `db:"zone_id"`
	Variant    string    `db:"variant"`
	VariantKey string    `db:"variant_key"`
	Price      float64   `db:"price"`
}

// ServiceRequest asks the marketplace to add a service to a category
type ServiceRequest struct {
	ID                 uuid.UUID      `db:"id"`
	CategoryID         uuid.NullUUID  `db:"category_id"`
	CategoryName       sql.NullString `db:"category_name"`
	ServiceName        string         `db:"service_name"`
	ServiceDescription string         `db:"service_description"`
	Status             string         `db:"status"`
	UserID             uuid.UUID      `db:"user_id"`
	CreatedAt          time.Time      `db:"created_at"`
}

// Status filter values for service listings
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusAll      = "all"
)

// Owner identifies the acting provider
type Owner struct {
	ProviderID uuid.UUID
	Email      string
}

// ListFilter narrows a provider's own services
type ListFilter struct {
	Email  string
	Search []string
	Status string
}

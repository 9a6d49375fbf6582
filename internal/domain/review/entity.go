package review

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Review is a customer's rating of a completed booking
type Review struct {
	ID            uuid.UUID      `db:"id"`
	BookingID     uuid.UUID      `db:"booking_id"`
	ServiceID     uuid.UUID      `db:"service_id"`
	ProviderID    uuid.UUID      `db:"provider_id"`
	CustomerID    uuid.UUID      `db:"customer_id"`
	ReviewRating  int            `db:"review_rating"`
	ReviewComment sql.NullString `db:"review_comment"`
	IsActive      bool           `db:"is_active"`
	CreatedAt     time.Time      `db:"created_at"`
}

// RatingGroup is the number of reviews with one rating value
type RatingGroup struct {
	Rating int `db:"review_rating" json:"review_rating"`
	Total  int `db:"total" json:"total"`
}

// Summary aggregates rating groups
type Summary struct {
	RatingCount   int           `json:"rating_count"`
	TotalReviews  int           `json:"total_reviews"`
	AverageRating float64       `json:"average_rating"`
	Groups        []RatingGroup `json:"rating_group_count"`
}

// Status filter values
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusAll      = "all"
)

// Filter narrows reviews by service, provider and active flag
type Filter struct {
	ServiceID  *uuid.UUID
	ProviderID *uuid.UUID
	Status     string
}

package review

import "time"

// ListQuery for GET /provider/services/{id}/reviews
type ListQuery struct {
	Limit  int    `form:"limit" validate:"gte=1,lte=200"`
	Offset int    `form:"offset" validate:"gte=1,lte=100000"`
	Status string `form:"status" validate:"oneof=active inactive all"`
}

// ReviewResponse for API response
type ReviewResponse struct {
	ID            string `json:"id"`
	BookingID     string `json:"booking_id"`
	CustomerID    string `json:"customer_id"`
	ReviewRating  int    `json:"review_rating"`
	ReviewComment string `json:"review_comment,omitempty"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

// ToResponse converts entity to response
func (r *Review) ToResponse() *ReviewResponse {
	resp := &ReviewResponse{
		ID:           r.ID.String(),
		BookingID:    r.BookingID.String(),
		CustomerID:   r.CustomerID.String(),
		ReviewRating: r.ReviewRating,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
	if r.ReviewComment.Valid {
		resp.ReviewComment = r.ReviewComment.String
	}
	return resp
}

// ProviderReviewsResponse is a page of reviews with rating info
type ProviderReviewsResponse struct {
	Reviews []*ReviewResponse `json:"reviews"`
	Rating  Summary           `json:"rating"`
}

package review

import "errors"

var (
	ErrNoReviews = errors.New("no reviews found")
)

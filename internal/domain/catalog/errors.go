package catalog

import "errors"

var (
	ErrServiceNotFound    = errors.New("service not found")
	ErrSessionNotFound    = errors.New("edit session not found or expired")
	ErrVariantExists      = errors.New("variant already exists")
	ErrDuplicateVariation = errors.New("variation already exists for this zone")
	ErrInvalidReference   = errors.New("category or zone does not exist")
	ErrInvalidQuery       = errors.New("search string must be base64 encoded")
)

// ValidationErrors maps request fields to messages
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	return "validation failed"
}

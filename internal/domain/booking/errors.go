package booking

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrAddressNotFound = errors.New("service address not found")
	ErrInvalidZone     = errors.New("zone does not exist")
)

// ValidationErrors maps request fields to messages
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	return "validation failed"
}

package errorhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/lib/pq"

	"github.com/servicehub/servicehub-api/internal/pkg/logger"
	"github.com/servicehub/servicehub-api/internal/pkg/response"
)

// HandleError logs the failure with the request id and sends a formatted error response.
// The underlying error is never echoed to the client.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)

	if err != nil {
		event = event.Err(err)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			event = event.
				Str("pg_code", string(pqErr.Code)).
				Str("pg_constraint", pqErr.Constraint)
		}
	}

	event.Msg("Request error")

	response.Error(w, status, code, message)
}

// HandleValidation logs field errors at warn level and sends a 422 response
func HandleValidation(ctx context.Context, w http.ResponseWriter, fieldErrors map[string]string) {
	logger.FromContext(ctx).Warn().
		Str("request_id", logger.RequestID(ctx)).
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")

	response.ValidationError(w, fieldErrors)
}

// LogDatabaseError logs database errors with context
func LogDatabaseError(ctx context.Context, operation string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("operation", operation).
		Err(err)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		event = event.
			Str("pg_code", string(pqErr.Code)).
			Str("pg_constraint", pqErr.Constraint)
	}

	event.Msg("Database error")
}

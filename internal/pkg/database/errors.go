package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/servicehub/servicehub-api/internal/pkg/logger"
)

// LogQueryError logs a failed query with the request id and, for Postgres errors,
// the error code and constraint. It returns err unchanged, so nil logs nothing.
func LogQueryError(ctx context.Context, query string, err error, fields ...interface{}) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}

	evt := logger.FromContext(ctx).Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("query", query).
		Err(err)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		evt = evt.
			Str("pg_code", string(pqErr.Code)).
			Str("pg_constraint", pqErr.Constraint)
	}

	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			evt = evt.Interface(key, fields[i+1])
		}
	}

	evt.Msg("database query failed")
	return err
}

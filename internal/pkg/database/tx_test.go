package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/servicehub/servicehub-api/internal/pkg/logger"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET is_checked").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE bookings SET is_checked = true")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWithTxRollsBackWhenAStatementFails(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	reset := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO booking_status_histories").WillReturnError(reset)
	mock.ExpectRollback()

	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE bookings SET booking_status = 'accepted'"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO booking_status_histories (id) VALUES (1)"); err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
		return nil
	})
	if !errors.Is(err, reset) {
		t.Fatalf("expected the statement error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected the panic to propagate")
			}
		}()
		WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
			panic("boom")
		})
	}()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestWithTxReportsBeginAndCommitFailures(t *testing.T) {
	ctx := context.Background()

	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		t.Fatalf("fn must not run without a transaction")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "begin tx") {
		t.Fatalf("expected begin error, got %v", err)
	}

	db, mock = newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
	err = WithTx(ctx, db, func(tx *sqlx.Tx) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "commit tx") {
		t.Fatalf("expected commit error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLogQueryErrorAddsPostgresFields(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	ctx := logger.WithRequestID(logger.WithContext(context.Background(), &l), "req-1")

	if err := LogQueryError(ctx, "variations.insert", nil); err != nil {
		t.Fatalf("nil must pass through, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nil must not be logged, got %s", buf.String())
	}

	pqErr := &pq.Error{Code: "23505", Constraint: "uq_variations_service_key_zone"}
	if err := LogQueryError(ctx, "variations.insert", pqErr, "service_id", "s-1"); err != pqErr {
		t.Fatalf("expected the error back, got %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`"request_id":"req-1"`,
		`"query":"variations.insert"`,
		`"pg_code":"23505"`,
		`"pg_constraint":"uq_variations_service_key_zone"`,
		`"service_id":"s-1"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/middleware"
)

func doRequest(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, uuid.New()))

	rr := httptest.NewRecorder()
	r := chi.NewRouter()
	r.Mount("/bookings", h.Routes())
	r.ServeHTTP(rr, req)
	return rr
}

func decodeResult(t *testing.T, rr *httptest.ResponseRecorder) MutationResult {
	t.Helper()
	var body struct {
		Data MutationResult `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Data
}

func TestUpdateStatusHandlerOutcomes(t *testing.T) {
	b := pendingBooking()
	h := NewHandler(NewService(newMemRepo(b), servicemenStub{}), 20)

	rr := doRequest(t, h, http.MethodPut, "/bookings/"+b.ID.String()+"/status", `{"booking_status":"pending"}`)
	if rr.Code != http.StatusOK || decodeResult(t, rr).Status != OutcomeUnchanged {
		t.Fatalf("expected 200 unchanged, got %d %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodPut, "/bookings/"+b.ID.String()+"/status", `{"booking_status":"ongoing"}`)
	if rr.Code != http.StatusOK || decodeResult(t, rr).Status != OutcomeUpdated {
		t.Fatalf("expected 200 updated, got %d %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodPut, "/bookings/"+uuid.NewString()+"/status", `{"booking_status":"ongoing"}`)
	if rr.Code != http.StatusNotFound || decodeResult(t, rr).Status != OutcomeNotFound {
		t.Fatalf("expected 404 not_found, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestUpdateStatusHandlerRejectsUnknownStatus(t *testing.T) {
	b := pendingBooking()
	h := NewHandler(NewService(newMemRepo(b), servicemenStub{}), 20)

	rr := doRequest(t, h, http.MethodPut, "/bookings/"+b.ID.String()+"/status", `{"booking_status":"refunded"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "booking_status") {
		t.Fatalf("expected field error for booking_status, got %s", rr.Body.String())
	}
}

func TestUpdateStatusHandlerBadInput(t *testing.T) {
	h := NewHandler(NewService(newMemRepo(), servicemenStub{}), 20)

	if rr := doRequest(t, h, http.MethodPut, "/bookings/not-a-uuid/status", `{"booking_status":"ongoing"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid id, got %d", rr.Code)
	}
	if rr := doRequest(t, h, http.MethodPut, "/bookings/"+uuid.NewString()+"/status", `{`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", rr.Code)
	}
}

func TestAssignServicemanHandlerValidation(t *testing.T) {
	b := pendingBooking()
	h := NewHandler(NewService(newMemRepo(b), servicemenStub{}), 20)

	rr := doRequest(t, h, http.MethodPut, "/bookings/"+b.ID.String()+"/serviceman", `{"serviceman_id":"nope"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for malformed id, got %d", rr.Code)
	}

	rr = doRequest(t, h, http.MethodPut, "/bookings/"+b.ID.String()+"/serviceman", `{"serviceman_id":"`+uuid.NewString()+`"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for foreign serviceman, got %d", rr.Code)
	}
}

func TestListHandlerReportsFilterCounter(t *testing.T) {
	h := NewHandler(NewService(newMemRepo(pendingBooking()), servicemenStub{}), 20)

	path := "/bookings/?zone_ids=" + uuid.NewString() + "," + uuid.NewString() + "&start_date=2024-01-01&end_date=2024-01-31"
	rr := doRequest(t, h, http.MethodGet, path, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Data ListResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.FilterCounter != 4 || body.Data.BookingStatus != "pending" {
		t.Fatalf("unexpected list response %+v", body.Data)
	}

	if rr := doRequest(t, h, http.MethodGet, "/bookings/?start_date=yesterday", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rr.Code)
	}
}

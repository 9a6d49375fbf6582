package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/domain/provider"
)

func serve(t *testing.T, f *fixture, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	p := &provider.Provider{ID: f.owner.ProviderID, Email: f.owner.Email}
	req = req.WithContext(provider.WithContext(req.Context(), p))

	r := chi.NewRouter()
	h := NewHandler(f.svc, 20)
	r.Mount("/services", h.Routes(nil))
	r.Mount("/admin/services", h.AdminRoutes())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateHandler(t *testing.T) {
	f := newFixture()
	session, _, _ := f.svc.OpenCreateSession(context.Background(), f.owner, nil)
	f.svc.AddVariant(context.Background(), f.owner, session.Token, "Small", 10)

	fields := map[string]string{
		"name":              "Deep cleaning",
		"category_id":       f.category.String(),
		"sub_category_id":   uuid.NewString(),
		"short_description": "Whole flat",
		"description":       "Every room",
		"tax":               "0",
		"min_bidding_price": "15",
		"tags":              "clean, home",
	}
	fields[PriceField("Small", f.zones[0].ID)] = "12"
	req := multipartRequest(t, http.MethodPost, "/services", fields, map[string]string{"cover_image": "c", "thumbnail": "t"})
	req.Header.Set(SessionHeader, session.Token)

	rr := serve(t, f, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Data ServiceResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := uuid.MustParse(body.Data.ID)
	if got := f.repo.tags[id]; len(got) != 2 {
		t.Fatalf("expected 2 tags, got %v", got)
	}
	if len(f.repo.variations[id]) != 2 {
		t.Fatalf("expected 2 variation rows, got %d", len(f.repo.variations[id]))
	}
	if !strings.HasPrefix(body.Data.CoverImage, "http://media/") {
		t.Fatalf("expected image url, got %q", body.Data.CoverImage)
	}
}

func TestCreateHandlerValidation(t *testing.T) {
	f := newFixture()
	fields := map[string]string{
		"name":              "",
		"category_id":       "not-a-uuid",
		"tax":               "120",
		"min_bidding_price": "abc",
	}
	priceField := PriceField("Small", f.zones[0].ID)
	fields[priceField] = "-3"

	rr := serve(t, f, multipartRequest(t, http.MethodPost, "/services", fields, nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)
	for _, field := range []string{"name", "category_id", "sub_category_id", "tax", "min_bidding_price", priceField} {
		if body.Error.Details[field] == "" {
			t.Errorf("expected error for %s, got %v", field, body.Error.Details)
		}
	}
	if body.Error.Details["min_bidding_price"] != "Must be a number" {
		t.Errorf("unexpected min_bidding_price message %q", body.Error.Details["min_bidding_price"])
	}
}

func TestSessionHandlers(t *testing.T) {
	f := newFixture()

	rr := serve(t, f, httptest.NewRequest(http.MethodPost, "/services/sessions", strings.NewReader(`{"category_id":"`+f.category.String()+`"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Data SessionResponse `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)
	if len(body.Data.Zones) != 1 {
		t.Fatalf("expected category zones, got %+v", body.Data)
	}
	path := "/services/sessions/" + body.Data.Token + "/variants"

	rr = serve(t, f, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"name":"Large Room","price":5}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	rr = serve(t, f, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"name":"Large Room","price":6}`)))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", rr.Code, rr.Body.String())
	}

	rr = serve(t, f, httptest.NewRequest(http.MethodDelete, path+"/Large-Room", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body.String())
	}

	rr = serve(t, f, httptest.NewRequest(http.MethodDelete, "/services/sessions/"+body.Data.Token, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	rr = serve(t, f, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"name":"Small","price":1}`)))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for cancelled session, got %d", rr.Code)
	}
}

func TestServiceHandlersNotFoundAndBadInput(t *testing.T) {
	foreign := ownedService("other@example.com")
	f := newFixture(foreign)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"foreign details", http.MethodGet, "/services/" + foreign.ID.String(), http.StatusNotFound},
		{"foreign toggle", http.MethodPatch, "/services/" + foreign.ID.String() + "/status", http.StatusNotFound},
		{"foreign delete", http.MethodDelete, "/services/" + foreign.ID.String(), http.StatusNotFound},
		{"bad id", http.MethodGet, "/services/nope", http.StatusBadRequest},
		{"bad search", http.MethodGet, "/services/search?string=%25%25%25", http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/services/search?limit=500", http.StatusUnprocessableEntity},
		{"bad status", http.MethodGet, "/services?status=archived", http.StatusUnprocessableEntity},
		{"missing zone", http.MethodGet, "/admin/services/" + foreign.ID.String() + "/variations", http.StatusBadRequest},
		{"bad zone", http.MethodGet, "/admin/services/" + foreign.ID.String() + "/variations?zone_id=north", http.StatusBadRequest},
		{"zone variations", http.MethodGet, "/admin/services/" + foreign.ID.String() + "/variations?zone_id=" + uuid.NewString(), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, f, httptest.NewRequest(tt.method, tt.path, nil))
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandlerRequiresProvider(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, 20)

	rr := httptest.NewRecorder()
	h.Routes(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

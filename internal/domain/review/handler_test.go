package review

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/domain/provider"
)

func serve(h *Handler, target string, p *provider.Provider) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/services/{id}/reviews", h.ListForService)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if p != nil {
		req = req.WithContext(provider.WithContext(req.Context(), p))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestListForServiceHandler(t *testing.T) {
	repo := &repoStub{
		reviews: []Review{{ID: uuid.New(), ReviewRating: 5}},
		groups:  []RatingGroup{{Rating: 5, Total: 1}},
	}
	h := NewHandler(NewService(repo))
	p := &provider.Provider{ID: uuid.New()}
	path := "/services/" + uuid.NewString() + "/reviews"

	if rr := serve(h, path, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without provider, got %d", rr.Code)
	}
	if rr := serve(h, path, p); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	if rr := serve(h, path+"?limit=500", p); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for limit over 200, got %d", rr.Code)
	}
	if rr := serve(h, path+"?status=hidden", p); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown status, got %d", rr.Code)
	}
	if rr := serve(h, path+"?offset=3", p); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for empty page, got %d", rr.Code)
	}
}

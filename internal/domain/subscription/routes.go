package subscription

import "github.com/go-chi/chi/v5"

// Routes returns the provider subscription router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Available)
	r.Put("/{sub_category_id}", h.Toggle)
	return r
}

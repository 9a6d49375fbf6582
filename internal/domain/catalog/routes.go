package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the provider service router. reviews serves GET /{id}/reviews.
func (h *Handler) Routes(reviews http.HandlerFunc) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/search", h.Search)

	r.Get("/requests", h.ListRequests)
	r.Post("/requests", h.CreateRequest)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.OpenSession)
		r.Delete("/{token}", h.CancelSession)
		r.Put("/{token}/category", h.SelectCategory)
		r.Post("/{token}/variants", h.AddVariant)
		r.Delete("/{token}/variants/{key}", h.RemoveVariant)
	})

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Details)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/edit", h.Edit)
		r.Patch("/status", h.ToggleActive)
		r.Delete("/variants/{key}", h.DeleteVariant)
		if reviews != nil {
			r.Get("/reviews", reviews)
		}
	})

	return r
}

// AdminRoutes returns the admin service router
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}/variations", h.VariationsForZone)
	return r
}

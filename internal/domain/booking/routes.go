package booking

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the admin booking router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Put("/check", h.MarkAllChecked)
	r.Put("/addresses/{id}", h.UpdateServiceAddress)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Details)
		r.Put("/status", h.UpdateStatus)
		r.Put("/payment", h.UpdatePayment)
		r.Put("/schedule", h.UpdateSchedule)
		r.Put("/serviceman", h.AssignServiceman)
	})

	return r
}

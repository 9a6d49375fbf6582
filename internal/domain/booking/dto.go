package booking

import (
	"time"

	"github.com/servicehub/servicehub-api/internal/pkg/validator"
)

func init() {
	validator.RegisterEnum("booking_status", func(s string) bool { return Status(s).Valid() },
		"Invalid booking status. Must be: pending, accepted, ongoing, completed or canceled")
	validator.RegisterEnum("payment_status", func(s string) bool { return PaymentStatus(s).Valid() },
		"Invalid payment status. Must be: paid or unpaid")
}

// UpdateStatusRequest for PUT /bookings/{id}/status
type UpdateStatusRequest struct {
	BookingStatus string `json:"booking_status" validate:"required,booking_status"`
}

// UpdatePaymentRequest for PUT /bookings/{id}/payment
type UpdatePaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,payment_status"`
}

// UpdateScheduleRequest for PUT /bookings/{id}/schedule
type UpdateScheduleRequest struct {
	ServiceSchedule string `json:"service_schedule" validate:"required"`
}

// AssignServicemanRequest for PUT /bookings/{id}/serviceman
type AssignServicemanRequest struct {
	ServicemanID string `json:"serviceman_id" validate:"required,uuid"`
}

// UpdateAddressRequest for PUT /bookings/addresses/{id}
type UpdateAddressRequest struct {
	City                string   `json:"city" validate:"required,max=191"`
	Street              string   `json:"street" validate:"required,max=191"`
	ZipCode             string   `json:"zip_code" validate:"required,max=20"`
	Country             string   `json:"country" validate:"required,max=191"`
	Address             string   `json:"address" validate:"required,max=500"`
	ContactPersonName   string   `json:"contact_person_name" validate:"required,max=191"`
	ContactPersonNumber string   `json:"contact_person_number" validate:"required,max=30"`
	AddressLabel        string   `json:"address_label" validate:"required,max=50"`
	ZoneID              string   `json:"zone_id" validate:"required,uuid"`
	Latitude            *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude           *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID                 string  `json:"id"`
	ReadableID         int64   `json:"readable_id"`
	CustomerID         string  `json:"customer_id"`
	ProviderID         string  `json:"provider_id"`
	ZoneID             string  `json:"zone_id"`
	CategoryID         string  `json:"category_id"`
	SubCategoryID      string  `json:"sub_category_id"`
	BookingStatus      Status  `json:"booking_status"`
	IsPaid             bool    `json:"is_paid"`
	IsChecked          bool    `json:"is_checked"`
	ServiceSchedule    string  `json:"service_schedule"`
	ServicemanID       *string `json:"serviceman_id,omitempty"`
	ServiceAddressID   *string `json:"service_address_id,omitempty"`
	TotalBookingAmount float64 `json:"total_booking_amount"`
	CreatedAt          string  `json:"created_at"`
}

// BookingResponseFromEntity converts entity to response
func BookingResponseFromEntity(b *Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:                 b.ID.String(),
		ReadableID:         b.ReadableID,
		CustomerID:         b.CustomerID.String(),
		ProviderID:         b.ProviderID.String(),
		ZoneID:             b.ZoneID.String(),
		CategoryID:         b.CategoryID.String(),
		SubCategoryID:      b.SubCategoryID.String(),
		BookingStatus:      b.Status,
		IsPaid:             b.IsPaid,
		IsChecked:          b.IsChecked,
		ServiceSchedule:    b.ServiceSchedule.Format(time.RFC3339),
		TotalBookingAmount: b.TotalBookingAmount,
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
	}
	if b.ServicemanID.Valid {
		s := b.ServicemanID.UUID.String()
		resp.ServicemanID = &s
	}
	if b.ServiceAddressID.Valid {
		s := b.ServiceAddressID.UUID.String()
		resp.ServiceAddressID = &s
	}
	return resp
}

// ListResponse is the booking list page
type ListResponse struct {
	Bookings      []*BookingResponse `json:"bookings"`
	FilterCounter int                `json:"filter_counter"`
	BookingStatus string             `json:"booking_status"`
}

// HistoryResponse is one audit record
type HistoryResponse struct {
	ChangedBy string `json:"changed_by"`
	Value     string `json:"value"`
	CreatedAt string `json:"created_at"`
}

// AddressResponse represents a service address
type AddressResponse struct {
	ID                  string  `json:"id"`
	City                string  `json:"city"`
	Street              string  `json:"street"`
	ZipCode             string  `json:"zip_code"`
	Country             string  `json:"country"`
	Address             string  `json:"address"`
	ContactPersonName   string  `json:"contact_person_name"`
	ContactPersonNumber string  `json:"contact_person_number"`
	AddressLabel        string  `json:"address_label"`
	ZoneID              string  `json:"zone_id"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
}

// DetailsResponse is a booking with its histories and address
type DetailsResponse struct {
	Booking           *BookingResponse   `json:"booking"`
	StatusHistories   []*HistoryResponse `json:"status_histories"`
	ScheduleHistories []*HistoryResponse `json:"schedule_histories"`
	ServiceAddress    *AddressResponse   `json:"service_address,omitempty"`
}

// DetailsResponseFromEntity converts booking details to response
func DetailsResponseFromEntity(d *Details) *DetailsResponse {
	resp := &DetailsResponse{
		Booking:           BookingResponseFromEntity(d.Booking),
		StatusHistories:   make([]*HistoryResponse, 0, len(d.StatusHistories)),
		ScheduleHistories: make([]*HistoryResponse, 0, len(d.ScheduleHistories)),
	}
	for _, h := range d.StatusHistories {
		resp.StatusHistories = append(resp.StatusHistories, &HistoryResponse{
			ChangedBy: h.ChangedBy.String(),
			Value:     string(h.Status),
			CreatedAt: h.CreatedAt.Format(time.RFC3339),
		})
	}
	for _, h := range d.ScheduleHistories {
		resp.ScheduleHistories = append(resp.ScheduleHistories, &HistoryResponse{
			ChangedBy: h.ChangedBy.String(),
			Value:     h.Schedule.Format(time.RFC3339),
			CreatedAt: h.CreatedAt.Format(time.RFC3339),
		})
	}
	if a := d.ServiceAddress; a != nil {
		resp.ServiceAddress = &AddressResponse{
			ID:                  a.ID.String(),
			City:                a.City,
			Street:              a.Street,
			ZipCode:             a.ZipCode,
			Country:             a.Country,
			Address:             a.Address,
			ContactPersonName:   a.ContactPersonName,
			ContactPersonNumber: a.ContactPersonNumber,
			AddressLabel:        a.AddressLabel,
			ZoneID:              a.ZoneID.String(),
			Latitude:            a.Lat,
			Longitude:           a.Lon,
		}
	}
	return resp
}

package provider

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a service provider account
type Provider struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	ZoneID    uuid.UUID `db:"zone_id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// Serviceman works for one provider
type Serviceman struct {
	ID         uuid.UUID `db:"id"`
	ProviderID uuid.UUID `db:"provider_id"`
	UserID     uuid.UUID `db:"user_id"`
	IsActive   bool      `db:"is_active"`
}

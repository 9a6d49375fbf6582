package zone

import "github.com/google/uuid"

// Zone is a geographic service area
type Zone struct {
	ID       uuid.UUID `db:"id"`
	Name     string    `db:"name"`
	IsActive bool      `db:"is_active"`
}

// IDs returns the zone ids in order
func IDs(zones []Zone) []uuid.UUID {
	ids := make([]uuid.UUID, len(zones))
	for i, z := range zones {
		ids[i] = z.ID
	}
	return ids
}

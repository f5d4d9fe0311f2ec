package domain

import "time"

// Facility is a bookable shared amenity (hall, court, pool).
type Facility struct {
	ID          string
	Name        string
	Description string
	Capacity    int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package models

import "time"

type TripStatus string

const (
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

func ParseTripStatus(raw string) (TripStatus, bool) {
	switch TripStatus(raw) {
	case TripStatusActive:
		return TripStatusActive, true
	case TripStatusCompleted:
		return TripStatusCompleted, true
	case TripStatusCancelled:
		return TripStatusCancelled, true
	default:
		return "", false
	}
}

type Trip struct {
	ID            int64      `json:"id"`
	GPID          int64      `json:"gp_id"`
	OriginCity    string     `json:"origin_city"`
	Destination   string     `json:"destination"`
	DepartureDate time.Time  `json:"departure_date"`
	AvailableKg   float64    `json:"available_kg"`
	PricePerKg    *float64   `json:"price_per_kg,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Status        TripStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TripWithGP is the public listing shape: a trip plus the identity of the GP
// who published it.
type TripWithGP struct {
	Trip
	GPName string  `json:"gp_name"`
	GPCity *string `json:"gp_city,omitempty"`
}

type DestinationCount struct {
	Destination string `json:"destination"`
	TripCount   int    `json:"trip_count"`
}

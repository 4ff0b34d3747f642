package domain

import "time"

// Booth represents a photo booth location.
type Booth struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand,omitempty"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoothWithDistance is a booth annotated with its distance in meters from a
// search origin.
type BoothWithDistance struct {
	Booth
	DistanceMeters float64 `json:"distance_meters"`
}

package domain

import "time"

// Favorite marks a booth saved by a user.
type Favorite struct {
	UserID    string    `json:"user_id"`
	BoothID   string    `json:"booth_id"`
	CreatedAt time.Time `json:"created_at"`
}

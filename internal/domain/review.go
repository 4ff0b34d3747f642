package domain

import "time"

// Review is a user's rating of a booth. A user can review a booth at most once.
type Review struct {
	ID        string    `json:"id"`
	BoothID   string    `json:"booth_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingStats summarizes the reviews of a booth.
type RatingStats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

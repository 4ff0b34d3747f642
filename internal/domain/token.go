package domain

import "time"

// RefreshToken is the stored record for one refresh token. Tokens in the same
// rotation chain share a FamilyID; Used marks a token that has already been
// exchanged for a successor.
type RefreshToken struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TokenDigest string    `json:"-"`
	DeviceInfo  string    `json:"device_info,omitempty"`
	FamilyID    string    `json:"family_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	Used        bool      `json:"used"`
	CreatedAt   time.Time `json:"created_at"`
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

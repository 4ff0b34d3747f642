package domain

import (
	"time"
)

// Provider constants identify how a user authenticates.
const (
	ProviderKakao = "kakao"
	ProviderNaver = "naver"
	ProviderApple = "apple"
	ProviderEmail = "email"
)

// SocialProviders returns the providers that resolve credentials externally.
func SocialProviders() []string {
	return []string{ProviderKakao, ProviderNaver, ProviderApple}
}

// IsSocialProvider checks whether the given provider is an external identity provider.
func IsSocialProvider(provider string) bool {
	for _, p := range SocialProviders() {
		if p == provider {
			return true
		}
	}
	return false
}

// User represents a registered user in the system. A user is unique on the
// (provider, provider_id) pair; for email accounts the provider id is the
// email address itself.
type User struct {
	ID              string     `json:"id"`
	Provider        string     `json:"provider"`
	ProviderID      string     `json:"-"`
	Email           string     `json:"email,omitempty"`
	PasswordHash    string     `json:"-"`
	Nickname        string     `json:"nickname,omitempty"`
	ProfileImageURL string     `json:"profile_image_url,omitempty"`
	Role            string     `json:"role"`
	TermsAgreed     bool       `json:"terms_agreed"`
	PrivacyAgreed   bool       `json:"privacy_agreed"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

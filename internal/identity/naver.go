package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chalkak/chalkak-server/internal/domain"
)

// NaverResolver verifies Naver access tokens by introspecting the user-info
// endpoint.
type NaverResolver struct {
	client      httpDoer
	userInfoURL string
}

// NewNaverResolver creates a resolver against the given Naver user-info URL.
func NewNaverResolver(client httpDoer, userInfoURL string) *NaverResolver {
	return &NaverResolver{client: client, userInfoURL: userInfoURL}
}

type naverUserResponse struct {
	ResultCode string `json:"resultcode"`
	Message    string `json:"message"`
	Response   struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"response"`
}

// Resolve calls the Naver user-info endpoint with the access token.
func (r *NaverResolver) Resolve(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.userInfoURL, http.NoBody)
	if err != nil {
		return nil, resolutionFailed(domain.ProviderNaver, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return nil, resolutionFailed(domain.ProviderNaver, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resolutionFailed(domain.ProviderNaver, fmt.Errorf("status %d", resp.StatusCode))
	}

	var body naverUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, resolutionFailed(domain.ProviderNaver, err)
	}
	if body.Response.ID == "" {
		return nil, resolutionFailed(domain.ProviderNaver, fmt.Errorf("response missing user id (resultcode %s)", body.ResultCode))
	}

	return &UserInfo{
		ExternalID:      body.Response.ID,
		Email:           body.Response.Email,
		Nickname:        body.Response.Nickname,
		ProfileImageURL: body.Response.ProfileImage,
	}, nil
}

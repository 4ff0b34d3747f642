package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/chalkak/chalkak-server/internal/domain"
)

// KakaoResolver verifies Kakao access tokens by introspecting the user-info
// endpoint.
type KakaoResolver struct {
	client      httpDoer
	userInfoURL string
}

// NewKakaoResolver creates a resolver against the given Kakao user-info URL.
func NewKakaoResolver(client httpDoer, userInfoURL string) *KakaoResolver {
	return &KakaoResolver{client: client, userInfoURL: userInfoURL}
}

type kakaoUserResponse struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// Resolve calls the Kakao user-info endpoint with the access token. Any
// transport failure, non-2xx status, or missing id collapses into a single
// resolution failure.
func (r *KakaoResolver) Resolve(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.userInfoURL, http.NoBody)
	if err != nil {
		return nil, resolutionFailed(domain.ProviderKakao, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return nil, resolutionFailed(domain.ProviderKakao, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resolutionFailed(domain.ProviderKakao, fmt.Errorf("status %d", resp.StatusCode))
	}

	var body kakaoUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, resolutionFailed(domain.ProviderKakao, err)
	}
	if body.ID == 0 {
		return nil, resolutionFailed(domain.ProviderKakao, fmt.Errorf("response missing user id"))
	}

	return &UserInfo{
		ExternalID:      strconv.FormatInt(body.ID, 10),
		Email:           body.KakaoAccount.Email,
		Nickname:        body.KakaoAccount.Profile.Nickname,
		ProfileImageURL: body.KakaoAccount.Profile.ProfileImageURL,
	}, nil
}

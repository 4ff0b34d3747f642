package identity

import (
	"context"
	"fmt"
	"net/http"

	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
)

// UserInfo is the provider-agnostic identity extracted from a credential.
type UserInfo struct {
	ExternalID      string
	Email           string
	Nickname        string
	ProfileImageURL string
}

// Resolver verifies a provider credential and returns the external identity
// it represents.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*UserInfo, error)
}

// httpDoer is the subset of pkg/httpclient used by resolvers. Both the plain
// client and the circuit breaker wrapper satisfy it.
type httpDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Resolvers dispatches credentials to the resolver registered for a provider.
type Resolvers map[string]Resolver

// Resolve looks up the provider's resolver and delegates to it. An unknown
// provider is a client error, not a resolution failure.
func (r Resolvers) Resolve(ctx context.Context, provider, credential string) (*UserInfo, error) {
	resolver, ok := r[provider]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported provider %q", provider))
	}
	return resolver.Resolve(ctx, credential)
}

// resolutionFailed builds the uniform resolution failure for a provider while
// keeping the underlying cause on the error chain for logs.
func resolutionFailed(provider string, cause error) error {
	appErr := apperrors.IdentityResolutionFailed(provider)
	if cause != nil {
		appErr.Err = fmt.Errorf("%v: %w", cause, appErr.Err)
	}
	return appErr
}

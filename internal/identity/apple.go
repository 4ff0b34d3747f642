package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chalkak/chalkak-server/internal/domain"
)

const appleIssuer = "https://appleid.apple.com"

// AppleResolver verifies Apple identity tokens locally: it fetches Apple's
// JWKS, rebuilds the RSA public key matching the token's kid, and validates
// the RS256 signature, issuer, audience, and expiry.
type AppleResolver struct {
	client   httpDoer
	keysURL  string
	clientID string

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	keyTTL    time.Duration
}

// NewAppleResolver creates a resolver for the given JWKS URL and expected
// audience (the app's client id).
func NewAppleResolver(client httpDoer, keysURL, clientID string) *AppleResolver {
	return &AppleResolver{
		client:   client,
		keysURL:  keysURL,
		clientID: clientID,
		keys:     make(map[string]*rsa.PublicKey),
		keyTTL:   time.Hour,
	}
}

type appleJWKS struct {
	Keys []struct {
		Kid string `json:"kid"`
		Kty string `json:"kty"`
		Alg string `json:"alg"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

type appleClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Resolve verifies the identity token and maps its subject to the external
// identity. Apple does not expose nickname or profile image through the
// identity token, so those fields stay empty.
func (r *AppleResolver) Resolve(ctx context.Context, identityToken string) (*UserInfo, error) {
	claims := &appleClaims{}
	token, err := jwt.ParseWithClaims(identityToken, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			kid, _ := token.Header["kid"].(string)
			if kid == "" {
				return nil, fmt.Errorf("token header missing kid")
			}
			return r.publicKey(ctx, kid)
		},
		jwt.WithIssuer(appleIssuer),
		jwt.WithAudience(r.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, resolutionFailed(domain.ProviderApple, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, resolutionFailed(domain.ProviderApple, fmt.Errorf("token has no subject"))
	}

	return &UserInfo{
		ExternalID: claims.Subject,
		Email:      claims.Email,
	}, nil
}

// publicKey returns the RSA key for the given kid, refreshing the JWKS cache
// when the kid is unknown or the cache is stale.
func (r *AppleResolver) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key, ok := r.keys[kid]; ok && time.Since(r.fetchedAt) < r.keyTTL {
		return key, nil
	}

	if err := r.refreshKeysLocked(ctx); err != nil {
		return nil, err
	}

	key, ok := r.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

// refreshKeysLocked fetches the JWKS and rebuilds the kid index. Caller must
// hold the mutex.
func (r *AppleResolver) refreshKeysLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.keysURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create jwks request: %w", err)
	}

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var jwks appleJWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(k.N, k.E)
		if err != nil {
			return fmt.Errorf("parse jwk %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}

	r.keys = keys
	r.fetchedAt = time.Now()
	return nil
}

// rsaKeyFromJWK rebuilds an RSA public key from base64url-encoded big-endian
// modulus and exponent.
func rsaKeyFromJWK(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	exponent := new(big.Int).SetBytes(eBytes)
	if !exponent.IsInt64() || exponent.Int64() <= 0 {
		return nil, fmt.Errorf("exponent out of range")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(exponent.Int64()),
	}, nil
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chalkak/chalkak-server/internal/auth"
	"github.com/chalkak/chalkak-server/internal/domain"
	"github.com/chalkak/chalkak-server/internal/event"
	"github.com/chalkak/chalkak-server/internal/identity"
	"github.com/chalkak/chalkak-server/internal/repository"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// tokenTypeBearer is the token_type reported in login responses.
const tokenTypeBearer = "Bearer"

// AuthService implements login, token lifecycle, and account operations.
type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	jwtManager       *auth.JWTManager
	resolvers        identity.Resolvers
	producer         *event.Producer
	logger           *slog.Logger
	now              func() time.Time
}

// NewAuthService creates a new auth service. producer may be nil when event
// publishing is disabled.
func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	jwtManager *auth.JWTManager,
	resolvers identity.Resolvers,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtManager:       jwtManager,
		resolvers:        resolvers,
		producer:         producer,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// --- Input/Output types ---

// SocialLoginInput holds the parameters for a social provider login.
type SocialLoginInput struct {
	Provider   string
	Credential string
	DeviceInfo string
}

// EmailRegisterInput holds the parameters for registering with email and password.
type EmailRegisterInput struct {
	Email         string
	Password      string
	Nickname      string
	TermsAgreed   bool
	PrivacyAgreed bool
	DeviceInfo    string
}

// EmailLoginInput holds the parameters for an email login.
type EmailLoginInput struct {
	Email      string
	Password   string
	DeviceInfo string
}

// UpdateProfileInput holds the parameters for updating a user's profile.
type UpdateProfileInput struct {
	Nickname        *string
	ProfileImageURL *string
}

// LoginResult bundles the authenticated user with a freshly minted token pair.
type LoginResult struct {
	User      *domain.User
	Tokens    *domain.TokenPair
	TokenType string
	ExpiresIn int64
	IsNewUser bool
}

// --- Login operations ---

// SocialLogin verifies a provider credential, provisions the account on first
// login, and mints a token pair.
func (s *AuthService) SocialLogin(ctx context.Context, input SocialLoginInput) (*LoginResult, error) {
	if input.Credential == "" {
		return nil, apperrors.InvalidInput("credential is required")
	}

	info, err := s.resolvers.Resolve(ctx, input.Provider, input.Credential)
	if err != nil {
		return nil, err
	}

	isNew := false
	user, err := s.userRepo.GetByProvider(ctx, input.Provider, info.ExternalID)
	switch {
	case err == nil:
		// The provider is the source of truth for profile fields, so each
		// login carries the latest values over.
		if info.Nickname != "" {
			user.Nickname = info.Nickname
		}
		if info.ProfileImageURL != "" {
			user.ProfileImageURL = info.ProfileImageURL
		}
		if info.Email != "" {
			user.Email = info.Email
		}
		user.LastLoginAt = ptrTime(s.now())
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("record login: %w", err)
		}
	case errors.Is(err, apperrors.ErrNotFound):
		user, err = s.provisionSocialUser(ctx, input.Provider, info)
		if err != nil {
			return nil, err
		}
		isNew = true
	default:
		return nil, fmt.Errorf("lookup user by provider: %w", err)
	}

	result, err := s.issueTokens(ctx, user, input.DeviceInfo, uuid.New().String())
	if err != nil {
		return nil, err
	}
	result.IsNewUser = isNew

	s.logger.InfoContext(ctx, "social login",
		slog.String("user_id", user.ID),
		slog.String("provider", input.Provider),
		slog.Bool("new_user", isNew),
	)

	return result, nil
}

// RegisterWithEmail creates a new email/password account and mints tokens.
func (s *AuthService) RegisterWithEmail(ctx context.Context, input EmailRegisterInput) (*LoginResult, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Nickname == "" {
		return nil, apperrors.InvalidInput("nickname is required")
	}
	if !input.TermsAgreed || !input.PrivacyAgreed {
		return nil, apperrors.InvalidInput("terms and privacy consent are required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:            uuid.New().String(),
		Provider:      domain.ProviderEmail,
		ProviderID:    input.Email,
		Email:         input.Email,
		PasswordHash:  string(hashedPassword),
		Nickname:      input.Nickname,
		Role:          domain.RoleUser,
		TermsAgreed:   input.TermsAgreed,
		PrivacyAgreed: input.PrivacyAgreed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.publishRegistered(ctx, user)

	result, err := s.issueTokens(ctx, user, input.DeviceInfo, uuid.New().String())
	if err != nil {
		return nil, err
	}
	result.IsNewUser = true

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return result, nil
}

// LoginWithEmail authenticates an email/password account.
func (s *AuthService) LoginWithEmail(ctx context.Context, input EmailLoginInput) (*LoginResult, error) {
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByProvider(ctx, domain.ProviderEmail, input.Email)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	user.LastLoginAt = ptrTime(s.now())
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	result, err := s.issueTokens(ctx, user, input.DeviceInfo, uuid.New().String())
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return result, nil
}

// --- Token lifecycle ---

// Refresh rotates a refresh token and mints a new token pair.
//
// The checks run in a fixed order: signature, stored record, reuse, expiry.
// A reused token revokes its entire family before the error is returned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, deviceInfo string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.InvalidToken()
	}

	digest := hashToken(refreshToken)
	stored, err := s.refreshTokenRepo.GetByDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.TokenNotFound()
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}

	// Reuse takes precedence over expiry: a replayed token must burn the
	// family even when it has also expired.
	if stored.Used {
		return nil, s.revokeFamily(ctx, stored, "refresh token reuse detected")
	}

	if s.now().After(stored.ExpiresAt) {
		if err := s.refreshTokenRepo.DeleteByDigest(ctx, digest); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete expired refresh token",
				slog.String("user_id", stored.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperrors.TokenExpired()
	}

	user, err := s.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, apperrors.UserNotFound(claims.Subject)
	}

	newRefresh, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	successorDevice := deviceInfo
	if successorDevice == "" {
		successorDevice = stored.DeviceInfo
	}
	now := s.now()
	successor := &domain.RefreshToken{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		TokenDigest: hashToken(newRefresh),
		DeviceInfo:  successorDevice,
		FamilyID:    stored.FamilyID,
		ExpiresAt:   now.Add(s.jwtManager.RefreshExpiry()),
		CreatedAt:   now,
	}

	if err := s.refreshTokenRepo.Rotate(ctx, digest, successor); err != nil {
		if errors.Is(err, repository.ErrTokenConsumed) {
			// Lost a concurrent rotation race: treat it as reuse.
			return nil, s.revokeFamily(ctx, stored, "concurrent refresh token rotation")
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("user_id", user.ID),
	)

	return &LoginResult{
		User: user,
		Tokens: &domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: newRefresh,
		},
		TokenType: tokenTypeBearer,
		ExpiresIn: int64(s.jwtManager.AccessExpiry().Seconds()),
	}, nil
}

// Logout invalidates a single refresh token. Unknown tokens are ignored so
// the operation stays idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := s.refreshTokenRepo.DeleteByDigest(ctx, hashToken(refreshToken)); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	return nil
}

// LogoutAll invalidates every refresh token belonging to the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refreshTokenRepo.DeleteAllByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "all sessions revoked",
		slog.String("user_id", userID),
	)

	return nil
}

// --- Account operations ---

// GetProfile retrieves a user by their ID.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile updates a user's nickname and profile image.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Nickname != nil {
		if *input.Nickname == "" {
			return nil, apperrors.InvalidInput("nickname must not be empty")
		}
		user.Nickname = *input.Nickname
	}
	if input.ProfileImageURL != nil {
		user.ProfileImageURL = *input.ProfileImageURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user profile updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// DeleteAccount removes the user's account and every session tied to it.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for delete: %w", err)
	}

	if err := s.refreshTokenRepo.DeleteAllByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishUserDeleted(ctx, user); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "account deleted",
		slog.String("user_id", user.ID),
		slog.String("provider", user.Provider),
	)

	return nil
}

// --- Helpers ---

// provisionSocialUser creates an account from resolved provider info.
func (s *AuthService) provisionSocialUser(ctx context.Context, provider string, info *identity.UserInfo) (*domain.User, error) {
	now := s.now()
	user := &domain.User{
		ID:              uuid.New().String(),
		Provider:        provider,
		ProviderID:      info.ExternalID,
		Email:           info.Email,
		Nickname:        info.Nickname,
		ProfileImageURL: info.ProfileImageURL,
		Role:            domain.RoleUser,
		TermsAgreed:     true,
		PrivacyAgreed:   true,
		LastLoginAt:     ptrTime(now),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.publishRegistered(ctx, user)

	return user, nil
}

// issueTokens mints a token pair and stores the refresh token digest under
// the given family.
func (s *AuthService) issueTokens(ctx context.Context, user *domain.User, deviceInfo, familyID string) (*LoginResult, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now()
	record := &domain.RefreshToken{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		TokenDigest: hashToken(refreshToken),
		DeviceInfo:  deviceInfo,
		FamilyID:    familyID,
		ExpiresAt:   now.Add(s.jwtManager.RefreshExpiry()),
		CreatedAt:   now,
	}

	if err := s.refreshTokenRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &LoginResult{
		User: user,
		Tokens: &domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
		TokenType: tokenTypeBearer,
		ExpiresIn: int64(s.jwtManager.AccessExpiry().Seconds()),
	}, nil
}

// revokeFamily deletes every token in the stored token's family and returns
// the revocation error. Family deletion happens before the return so a
// replayed token cannot race another refresh.
func (s *AuthService) revokeFamily(ctx context.Context, stored *domain.RefreshToken, reason string) error {
	if err := s.refreshTokenRepo.DeleteAllByFamily(ctx, stored.FamilyID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke token family",
			slog.String("user_id", stored.UserID),
			slog.String("family_id", stored.FamilyID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.WarnContext(ctx, reason,
		slog.String("user_id", stored.UserID),
		slog.String("family_id", stored.FamilyID),
	)

	return apperrors.TokenRevoked()
}

func (s *AuthService) publishRegistered(ctx context.Context, user *domain.User) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}

// hashToken returns the SHA256 hex digest of the given token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}

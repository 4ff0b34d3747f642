package http

import (
	"log/slog"
	"net/http"

	"github.com/chalkak/chalkak-server/internal/service"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
	"github.com/chalkak/chalkak-server/pkg/middleware"
	"github.com/chalkak/chalkak-server/pkg/validator"
)

// AuthHandler handles HTTP requests for auth and account endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// SocialLoginRequest is the JSON request body for a social provider login.
type SocialLoginRequest struct {
	Provider   string `json:"provider" validate:"required,oneof=kakao naver apple"`
	Credential string `json:"credential" validate:"required"`
	DeviceInfo string `json:"device_info" validate:"max=255"`
}

// RegisterRequest is the JSON request body for email registration.
type RegisterRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	Nickname      string `json:"nickname" validate:"required,min=1,max=50"`
	TermsAgreed   bool   `json:"terms_agreed"`
	PrivacyAgreed bool   `json:"privacy_agreed"`
	DeviceInfo    string `json:"device_info" validate:"max=255"`
}

// LoginRequest is the JSON request body for email login.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	DeviceInfo string `json:"device_info" validate:"max=255"`
}

// RefreshRequest is the JSON request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	DeviceInfo   string `json:"device_info" validate:"max=255"`
}

// LogoutRequest is the JSON request body for logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest is the JSON request body for profile updates.
type UpdateProfileRequest struct {
	Nickname        *string `json:"nickname" validate:"omitempty,min=1,max=50"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitempty,url"`
}

// --- Response types ---

// AuthResponse is the login/refresh response payload.
type AuthResponse struct {
	User         any    `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	IsNewUser    bool   `json:"is_new_user"`
}

func authResponse(result *service.LoginResult) AuthResponse {
	return AuthResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    result.TokenType,
		ExpiresIn:    result.ExpiresIn,
		IsNewUser:    result.IsNewUser,
	}
}

// --- Handlers ---

// SocialLogin handles POST /api/auth/social
func (h *AuthHandler) SocialLogin(w http.ResponseWriter, r *http.Request) {
	var req SocialLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.service.SocialLogin(r.Context(), service.SocialLoginInput{
		Provider:   req.Provider,
		Credential: req.Credential,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.IsNewUser {
		status = http.StatusCreated
	}
	writeJSON(w, status, response{Data: authResponse(result)})
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.service.RegisterWithEmail(r.Context(), service.EmailRegisterInput{
		Email:         req.Email,
		Password:      req.Password,
		Nickname:      req.Nickname,
		TermsAgreed:   req.TermsAgreed,
		PrivacyAgreed: req.PrivacyAgreed,
		DeviceInfo:    req.DeviceInfo,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: authResponse(result)})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.service.LoginWithEmail(r.Context(), service.EmailLoginInput{
		Email:      req.Email,
		Password:   req.Password,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: authResponse(result)})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken, req.DeviceInfo)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: authResponse(result)})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "logged out"}})
}

// LogoutAll handles POST /api/auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	if err := h.service.LogoutAll(r.Context(), userID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "all sessions revoked"}})
}

// GetProfile handles GET /api/users/me
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: user})
}

// UpdateProfile handles PUT /api/users/me
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		Nickname:        req.Nickname,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: user})
}

// DeleteAccount handles DELETE /api/users/me
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"id": userID, "status": "deleted"}})
}

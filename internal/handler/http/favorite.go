package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chalkak/chalkak-server/internal/service"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
	"github.com/chalkak/chalkak-server/pkg/middleware"
)

// FavoriteHandler handles HTTP requests for favorite endpoints.
type FavoriteHandler struct {
	service *service.FavoriteService
	logger  *slog.Logger
}

// NewFavoriteHandler creates a new favorite HTTP handler.
func NewFavoriteHandler(svc *service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{service: svc, logger: logger}
}

// List handles GET /api/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}
	page, perPage := pageParams(r)

	favorites, total, err := h.service.List(r.Context(), userID, page, perPage)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: paginated{
		Items:   favorites,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}})
}

// Add handles PUT /api/favorites/{boothId}
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}
	boothID := chi.URLParam(r, "boothId")

	if err := h.service.Add(r.Context(), userID, boothID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]any{"booth_id": boothID, "favorited": true}})
}

// Remove handles DELETE /api/favorites/{boothId}
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}
	boothID := chi.URLParam(r, "boothId")

	if err := h.service.Remove(r.Context(), userID, boothID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]any{"booth_id": boothID, "favorited": false}})
}

// Exists handles GET /api/favorites/{boothId}
func (h *FavoriteHandler) Exists(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}
	boothID := chi.URLParam(r, "boothId")

	exists, err := h.service.Exists(r.Context(), userID, boothID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]any{"booth_id": boothID, "favorited": exists}})
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chalkak/chalkak-server/internal/service"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
	"github.com/chalkak/chalkak-server/pkg/middleware"
	"github.com/chalkak/chalkak-server/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// CreateReviewRequest is the JSON request body for posting a review.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Content string `json:"content" validate:"max=2000"`
}

// UpdateReviewRequest is the JSON request body for editing a review.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Content *string `json:"content" validate:"omitempty,max=2000"`
}

// ListByBooth handles GET /api/booths/{id}/reviews
func (h *ReviewHandler) ListByBooth(w http.ResponseWriter, r *http.Request) {
	boothID := chi.URLParam(r, "id")
	page, perPage := pageParams(r)

	result, err := h.service.ListByBooth(r.Context(), boothID, page, perPage)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]any{
		"items":    result.Reviews,
		"total":    result.Total,
		"page":     page,
		"per_page": perPage,
		"stats":    result.Stats,
	}})
}

// Create handles POST /api/booths/{id}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}
	boothID := chi.URLParam(r, "id")

	var req CreateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	review, err := h.service.Create(r.Context(), service.CreateReviewInput{
		BoothID: boothID,
		UserID:  userID,
		Rating:  req.Rating,
		Content: req.Content,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: review})
}

// Update handles PUT /api/reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}
	reviewID := chi.URLParam(r, "id")

	var req UpdateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	review, err := h.service.Update(r.Context(), reviewID, userID, service.UpdateReviewInput{
		Rating:  req.Rating,
		Content: req.Content,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: review})
}

// Delete handles DELETE /api/reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeAppError(w, r, apperrors.Unauthorized("authentication required"))
		return
	}
	role := middleware.RoleFromContext(r.Context())
	reviewID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), reviewID, userID, role); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"id": reviewID, "status": "deleted"}})
}

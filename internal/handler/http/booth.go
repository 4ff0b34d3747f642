package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chalkak/chalkak-server/internal/service"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
	"github.com/chalkak/chalkak-server/pkg/validator"
)

// BoothHandler handles HTTP requests for booth endpoints.
type BoothHandler struct {
	service *service.BoothService
	logger  *slog.Logger
}

// NewBoothHandler creates a new booth HTTP handler.
func NewBoothHandler(svc *service.BoothService, logger *slog.Logger) *BoothHandler {
	return &BoothHandler{service: svc, logger: logger}
}

// CreateBoothRequest is the JSON request body for registering a booth.
type CreateBoothRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=200"`
	Brand     string  `json:"brand" validate:"max=100"`
	Address   string  `json:"address" validate:"required,min=1,max=300"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

// UpdateBoothRequest is the JSON request body for updating a booth.
type UpdateBoothRequest struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Brand     *string  `json:"brand" validate:"omitempty,max=100"`
	Address   *string  `json:"address" validate:"omitempty,min=1,max=300"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

// ReportBoothRequest is the JSON request body for suggesting a new booth.
type ReportBoothRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=100"`
	Brand         string  `json:"brand" validate:"max=50"`
	Address       string  `json:"address" validate:"required,min=1,max=255"`
	Latitude      float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude     float64 `json:"longitude" validate:"min=-180,max=180"`
	Description   string  `json:"description" validate:"max=1000"`
	ReporterName  string  `json:"reporter_name" validate:"max=100"`
	ReporterEmail string  `json:"reporter_email" validate:"omitempty,email"`
}

// List handles GET /api/booths
func (h *BoothHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)
	brand := r.URL.Query().Get("brand")

	booths, total, err := h.service.List(r.Context(), brand, page, perPage)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: paginated{
		Items:   booths,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}})
}

// Nearby handles GET /api/booths/nearby
func (h *BoothHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, ok := floatParam(r, "lat", 0)
	if !ok || r.URL.Query().Get("lat") == "" {
		writeAppError(w, r, apperrors.InvalidInput("lat query parameter is required"))
		return
	}
	lng, ok := floatParam(r, "lng", 0)
	if !ok || r.URL.Query().Get("lng") == "" {
		writeAppError(w, r, apperrors.InvalidInput("lng query parameter is required"))
		return
	}
	radius, ok := floatParam(r, "radius", 0)
	if !ok {
		writeAppError(w, r, apperrors.InvalidInput("radius must be a number"))
		return
	}

	_, limit := pageParams(r)

	booths, err := h.service.Nearby(r.Context(), lat, lng, radius, limit)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: booths})
}

// Get handles GET /api/booths/{id}
func (h *BoothHandler) Get(w http.ResponseWriter, r *http.Request) {
	boothID := chi.URLParam(r, "id")

	booth, err := h.service.Get(r.Context(), boothID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: booth})
}

// Report handles POST /api/booths/report
func (h *BoothHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportBoothRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	reportID, err := h.service.Report(r.Context(), service.ReportBoothInput{
		Name:          req.Name,
		Brand:         req.Brand,
		Address:       req.Address,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Description:   req.Description,
		ReporterName:  req.ReporterName,
		ReporterEmail: req.ReporterEmail,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, response{Data: map[string]string{
		"report_id": reportID,
		"status":    "received",
	}})
}

// Create handles POST /api/admin/booths
func (h *BoothHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBoothRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	booth, err := h.service.Create(r.Context(), service.CreateBoothInput{
		Name:      req.Name,
		Brand:     req.Brand,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: booth})
}

// Update handles PUT /api/admin/booths/{id}
func (h *BoothHandler) Update(w http.ResponseWriter, r *http.Request) {
	boothID := chi.URLParam(r, "id")

	var req UpdateBoothRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	booth, err := h.service.Update(r.Context(), boothID, service.UpdateBoothInput{
		Name:      req.Name,
		Brand:     req.Brand,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: booth})
}

// Delete handles DELETE /api/admin/booths/{id}
func (h *BoothHandler) Delete(w http.ResponseWriter, r *http.Request) {
	boothID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), boothID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"id": boothID, "status": "deleted"}})
}

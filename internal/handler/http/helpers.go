package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/chalkak/chalkak-server/pkg/httputil"
	"github.com/chalkak/chalkak-server/pkg/pagination"
)

// maxBodyBytes caps request bodies at 1MB.
const maxBodyBytes = 1 << 20

type response = httputil.Response

type errorResponse = httputil.ErrorResponse

// paginated wraps a list payload with its pagination envelope.
type paginated struct {
	Items   any `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	httputil.WriteJSON(w, status, v)
}

func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteError(w, r, err, slog.Default())
}

func writeValidationError(w http.ResponseWriter, err error) {
	httputil.WriteValidationError(w, err)
}

// decodeJSON reads a bounded JSON body into v, reporting a client error on
// malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	return true
}

// pageParams extracts page and per_page query parameters with defaults.
func pageParams(r *http.Request) (int, int) {
	p := pagination.FromRequest(r)
	return p.Page, p.PerPage
}

// floatParam parses a float query parameter, returning fallback when absent
// and reporting whether parsing succeeded.
func floatParam(r *http.Request, name string, fallback float64) (float64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("encoding response")
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorResponse{Error: message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target)
}

// writeError maps a service error onto an HTTP response. Unexpected errors
// are logged with the request logger and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *inventory.ValidationError
	switch {
	case errors.As(err, &verr):
		code := "invalid"
		if errors.Is(err, store.ErrInsufficientStock) {
			code = "insufficient_stock"
		}
		jsonResponse(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Code: code, Fields: verr.Fields})
	case errors.Is(err, store.ErrNotFound):
		jsonResponse(w, http.StatusNotFound, errorResponse{Error: "Not found.", Code: "not_found"})
	case errors.Is(err, store.ErrInvalidArgument):
		jsonResponse(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid"})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// fieldError writes a 400 response for a single malformed parameter.
func fieldError(w http.ResponseWriter, field, message string) {
	jsonResponse(w, http.StatusBadRequest, errorResponse{
		Error:  field + ": " + message,
		Code:   "invalid",
		Fields: map[string]string{field: message},
	})
}

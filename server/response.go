package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/spektr-org/catalogdash/dashboard"
	"github.com/spektr-org/catalogdash/validation"
)

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Success bool              `json:"success"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	envelope := Envelope{
		Success: status < 400,
		Data:    data,
	}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func success(w http.ResponseWriter, data any, logger zerolog.Logger) {
	writeJSON(w, http.StatusOK, data, logger)
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, message string, fields map[string]string, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	envelope := Envelope{
		Success: false,
		Error:   message,
		Fields:  fields,
	}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		logger.Error().Err(err).Msg("failed to encode error response")
	}
}

// handleError maps known errors to their HTTP status. Unknown errors
// become 500 and are logged.
func handleError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid query parameters", verr.Fields, logger)
	case errors.Is(err, errBadParam),
		errors.Is(err, dashboard.ErrUnknownView),
		errors.Is(err, dashboard.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, err.Error(), nil, logger)
	default:
		logger.Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error", nil, logger)
	}
}

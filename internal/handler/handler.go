package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"drink-rating/internal/middleware"
	"drink-rating/internal/model"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// maxJSONBodyBytes bounds JSON request bodies.
const maxJSONBodyBytes = 64 << 10

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// adminLogger tags logger with the admin who authenticated the request and
// the request id.
func adminLogger(r *http.Request, logger zerolog.Logger) zerolog.Logger {
	ctx := logger.With()
	if admin, ok := middleware.AdminFromContext(r.Context()); ok {
		ctx = ctx.Int64("admin_id", admin.ID).Str("admin", admin.Username)
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		ctx = ctx.Str("request_id", id)
	}
	return ctx.Logger()
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Debug().Str("error", code).Str("message", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps err to its HTTP status. Domain error messages are
// client-safe; anything else is logged and reported generically.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}

	status := statusForCode(de.Code)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("error", de.Code).Msg("request failed")
	} else {
		logger.Debug().Str("error", de.Code).Str("message", de.Message).Int("status", status).Msg("request rejected")
	}

	writeJSON(w, status, model.ErrorResponse{Error: de.Code, Message: de.Message})
}

// statusForCode returns the HTTP status for a domain error code.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeUnauthenticated, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.ErrCodeUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// pathID parses the named route variable as an int64 identifier.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, model.NewValidationError("invalid " + name)
	}
	return id, nil
}

// decodeJSON decodes a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.NewDomainError(model.ErrCodePayloadTooLarge, "request body too large")
		}
		return model.NewValidationError("invalid request body")
	}
	return nil
}

package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"student_tracking/backend/internal/shared"
)

// JSONError structure for error responses
type JSONError struct {
	Message string `json:"message"`
}

// JSONMessage structure for bodies that only confirm an action
type JSONMessage struct {
	Message string `json:"message"`
}

// Responder writes JSON bodies and maps service errors to status codes
type Responder struct {
	Logger *zap.Logger
	// Development exposes internal error causes to clients
	Development bool
}

// WriteJSON writes payload as the response body
func (rs *Responder) WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		rs.Logger.Warn("failed to write JSON response", zap.Error(err))
	}
}

// WriteJSONError writes a {"message": ...} body
func (rs *Responder) WriteJSONError(w http.ResponseWriter, status int, message string) {
	rs.WriteJSON(w, status, JSONError{Message: message})
}

// WriteError translates a service error to an HTTP response.
// Internal failures are logged and masked outside development.
func (rs *Responder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *shared.AppError
	if !errors.As(err, &appErr) {
		appErr = &shared.AppError{Kind: shared.KindInternal, Message: "internal server error", Err: err}
	}

	status := StatusFor(appErr.Kind)
	if status < http.StatusInternalServerError {
		rs.WriteJSONError(w, status, appErr.Message)
		return
	}

	rs.Logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))

	message := "internal server error"
	if rs.Development {
		message = err.Error()
	}
	rs.WriteJSONError(w, status, message)
}

// StatusFor maps an error kind to its HTTP status.
// Conflicts answer 400 for client compatibility.
func StatusFor(kind shared.ErrorKind) int {
	switch kind {
	case shared.KindValidation, shared.KindConflict:
		return http.StatusBadRequest
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON reads the request body into dst
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return shared.NewValidationError("Invalid request body")
	}
	return nil
}

// ExtractToken extracts the token from the Authorization header (Bearer <token>)
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	// Expect header: "Bearer <token>"
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BrandonDHaskell/qrgate/internal/qrgate/service"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP. Unknown errors are 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyCode):
		return http.StatusBadRequest, "empty_code"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrRoleNotLoginCapable):
		return http.StatusForbidden, "role_not_login_capable"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusForbidden, "invalid_credentials"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSelfDeletion):
		return http.StatusConflict, "self_deletion"
	case errors.Is(err, service.ErrSelfDemotion):
		return http.StatusConflict, "self_demotion"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

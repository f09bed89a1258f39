package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/mesh-intelligence/ellie/pkg/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// StatusFor maps an operation error to its HTTP status code.
func StatusFor(err error) int {
	switch types.KindOf(err) {
	case types.ErrValidation, types.ErrConflict:
		return http.StatusBadRequest
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrBusy:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes err with its mapped status. Errors outside the domain taxonomy
// are logged and reported without detail.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if types.KindOf(err) == nil {
		h.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		msg = "internal error"
	}
	writeError(w, status, msg)
}

// decode reads a JSON object body into dst.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return types.ErrInvalidBody
	}
	return nil
}

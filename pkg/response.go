package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// APIResponse, HTTP yüzeyindeki tüm yanıtlar için standart format.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON, başarılı bir yanıt gönderir.
func JSON(w http.ResponseWriter, status int, data any) {
	writeResponse(w, status, APIResponse{Success: true, Data: data})
}

// Error, hata yanıtı gönderir.
// Domain error'ları uygun HTTP status code'a çevrilir; altyapı hatalarının
// iç metni dışarı sızdırılmaz.
func Error(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}

	writeResponse(w, status, APIResponse{Success: false, Error: msg})
}

// ErrorWithMessage, özel mesajlı hata yanıtı gönderir.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	writeResponse(w, status, APIResponse{Success: false, Error: message})
}

func writeResponse(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// mapErrorToStatus, domain error'ları HTTP status code'larına eşler.
// errors.Is() wrap edilmiş error'ları da doğru eşler.
func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrPolicyBlocked):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyDeleted):
		return http.StatusGone
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

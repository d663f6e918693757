// Package response writes the JSON envelope every API route answers with
package response

import (
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alchemorsel/ingredients/pkg/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool                 `json:"success"`
	Data    interface{}          `json:"data,omitempty"`
	Error   *errors.ErrorDetails `json:"error,omitempty"`
	Message string               `json:"message,omitempty"`
}

// JSON writes a successful response carrying data
func JSON(w http.ResponseWriter, status int, data interface{}, message string) {
	write(w, status, APIResponse{Success: true, Data: data, Message: message})
}

// Error writes err as a failed response. Errors that are not AppErrors
// are reported as internal errors without their details.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.Wrap(err, "Internal server error")
	details := errors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())).Error
	if appErr.Code == errors.CodeInternal {
		details.Details = ""
	}
	write(w, appErr.StatusCode(), APIResponse{Success: false, Error: &details, Message: appErr.Message})
}

func write(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("Failed to encode JSON response", zap.Error(err))
	}
}

package common

import (
	"encoding/json"
	"net/http"

	"eventpipe/pkg/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MetaInfo contains metadata about the response
type MetaInfo struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// RespondError sends an error response
func RespondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// RespondWithMeta sends a response with metadata
func RespondWithMeta(w http.ResponseWriter, status int, data interface{}, meta *MetaInfo) {
	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta:    meta,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// RespondAppError maps an AppError (or a plain error) onto the envelope,
// using the error's own HTTP status when it carries one.
func RespondAppError(w http.ResponseWriter, err error) {
	if appErr := errors.GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		response := APIResponse{
			Success: false,
			Error: &ErrorInfo{
				Code:    string(appErr.Type),
				Message: appErr.Message,
				Details: appErr.Details,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(response)
		return
	}

	RespondError(w, http.StatusInternalServerError, string(errors.ErrorTypeInternal), err.Error())
}

// ExtractRequestID extracts the request ID from the request
func ExtractRequestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	if id := r.Header.Get("X-Amzn-Trace-Id"); id != "" {
		return id
	}
	return ""
}

package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries a machine-readable code and a human message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes shared by handlers and understood by the client.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidCreds = "INVALID_CREDENTIALS"
	CodeUserDisabled = "USER_DISABLED"
	CodeLimitReached = "EMPLOYEE_LIMIT_REACHED"
	CodeEmailExists  = "EMAIL_EXISTS"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeExpired      = "EXPIRED"
	CodeAccepted     = "ALREADY_ACCEPTED"
	CodeCancelled    = "CANCELLED"
	CodeDisabled     = "PROJECT_DISABLED"
	CodeInvalidOp    = "INVALID_OPERATION"
	CodeServer       = "SERVER_ERROR"
)

// JSON writes a success response using the common envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: true, Data: data})
}

// Message writes a success response that only carries a message.
func Message(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: true, Message: message})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Error: &ErrorBody{Code: code, Message: message}})
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("respond: encode payload failed", zap.Error(err))
	}
}

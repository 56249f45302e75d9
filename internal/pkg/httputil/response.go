package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/founders-outreach/internal/pkg/logger"
)

// MaxJSONBody caps request bodies decoded by Decode.
const MaxJSONBody = 10 << 20

// ErrorResponse is the error envelope of the operator API.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// JSON writes data as JSON with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("json encode failed", "error", err)
	}
}

// HTML writes a fixed page. Pages are never cached since they confirm a
// state change.
func HTML(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(page)); err != nil {
		logger.Debug("html write failed", "error", err)
	}
}

func OK(w http.ResponseWriter, data any)      { JSON(w, http.StatusOK, data) }
func Created(w http.ResponseWriter, data any) { JSON(w, http.StatusCreated, data) }

// Error writes a client error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

func BadRequest(w http.ResponseWriter, message string)   { Error(w, http.StatusBadRequest, message) }
func Unauthorized(w http.ResponseWriter, message string) { Error(w, http.StatusUnauthorized, message) }
func NotFound(w http.ResponseWriter, message string)     { Error(w, http.StatusNotFound, message) }
func Conflict(w http.ResponseWriter, message string)     { Error(w, http.StatusConflict, message) }

// ServerError logs err against the request id and answers with message and
// optional details. The error text itself never reaches the client.
func ServerError(w http.ResponseWriter, r *http.Request, err error, message string, details any) {
	reqID := middleware.GetReqID(r.Context())
	logger.Error(message, "error", err, "request_id", reqID, "method", r.Method, "path", r.URL.Path)
	JSON(w, http.StatusInternalServerError, ErrorResponse{Error: message, RequestID: reqID, Details: details})
}

// InternalError is ServerError with the generic message.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	ServerError(w, r, err, "internal server error", nil)
}

// Decode reads a JSON body into dst. On failure it writes a 400 and returns
// false.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

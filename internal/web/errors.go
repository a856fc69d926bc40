package web

// errors.go provides unified error response handling for the web layer.
//
// Technical errors are logged with the request ID for correlation, and the
// client receives the core.MapError message: a JSON body for API calls or
// an HTML fragment for HTMX requests.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/logging"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/sheets"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/web/views"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status of a service error.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoSource), errors.Is(err, errInvalidForm):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownCourse), errors.Is(err, core.ErrUploadNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDayExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrInvalidDayName),
		errors.Is(err, core.ErrEmptySource),
		errors.Is(err, core.ErrNoValidRows),
		errors.Is(err, core.ErrUnreadableInput),
		errors.Is(err, core.ErrEmptyWorkbook),
		errors.Is(err, core.ErrSheetsNotConfigured),
		errors.Is(err, sheets.ErrInvalidURL),
		errors.Is(err, sheets.ErrMissingToken):
		return http.StatusBadRequest
	case strings.Contains(err.Error(), "invalid conflict policy"):
		return http.StatusBadRequest
	case strings.Contains(err.Error(), "fetch sheet"):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail responds with the status chosen by statusFor.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusFor(err))
}

// respondError logs the technical error and writes a user-friendly
// response in the format the client expects.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= 500 || !core.IsUserFacing(err) {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	switch {
	case isHTMX(r):
		s.renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, statusCode)
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func (s *Server) renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := views.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		s.log.Error("render error alert", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

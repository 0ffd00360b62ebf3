package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
)

// envelope is the body of every response.
type envelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Code      string    `json:"code,omitempty"`
	Data      any       `json:"data,omitempty"`
	Details   []string  `json:"details,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const codeInternal = "INTERNAL_ERROR"

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data, Timestamp: time.Now().UTC()})
}

func statusFor(k parking.Kind) int {
	switch k {
	case parking.KindValidation:
		return http.StatusBadRequest
	case parking.KindNotFound:
		return http.StatusNotFound
	case parking.KindConflict:
		return http.StatusConflict
	case parking.KindPayment:
		return http.StatusPaymentRequired
	case parking.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// errorWriter renders errors into the envelope. Causes are only exposed
// when debug is set.
type errorWriter struct {
	log   *slog.Logger
	debug bool
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	e.writeWithFallback(w, r, err, http.StatusInternalServerError)
}

// writeWithFallback uses fallback for errors outside the domain taxonomy.
func (e errorWriter) writeWithFallback(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	body := envelope{Success: false, Timestamp: time.Now().UTC()}
	status := fallback

	var de *parking.Error
	if errors.As(err, &de) {
		status = statusFor(de.Kind)
		body.Code = string(de.Kind)
		body.Message = de.Message
		body.Details = de.Details
	} else {
		body.Code = codeInternal
		body.Message = "Internal server error"
	}
	if e.debug {
		body.Detail = err.Error()
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	e.log.Log(r.Context(), level, "request failed",
		"method", r.Method, "path", r.URL.Path, "status", status, "code", body.Code,
		"request_id", middleware.GetReqID(r.Context()), "error", err)

	writeJSON(w, status, body)
}

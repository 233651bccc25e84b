package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
)

// maxJSONBody caps API request bodies. Form uploads have their own limit.
const maxJSONBody = 1 << 20

type errorBody struct {
	Error  string              `json:"error"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("request body is empty")
		}
		return apperr.Invalid("invalid request body: %v", err)
	}
	return nil
}

// statusFor maps a service error onto an HTTP status and a message that is
// safe to show the caller.
func statusFor(err error) (int, string) {
	if verr, ok := apperr.AsValidation(err); ok {
		return http.StatusBadRequest, verr.Message
	}
	switch {
	case errors.Is(err, apperr.ErrNotAuthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, apperr.ErrNotAuthorized):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, err.Error()
	}
	var up *apperr.UpstreamError
	if errors.As(err, &up) {
		return http.StatusServiceUnavailable, "storage unavailable"
	}
	return http.StatusInternalServerError, "internal server error"
}

// respondErr writes the JSON error envelope for err and logs server-side
// failures.
func respondErr(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("requestId", chimw.GetReqID(r.Context())),
			zap.Int("status", status),
			zap.Error(err))
	}
	body := errorBody{Error: msg}
	if verr, ok := apperr.AsValidation(err); ok {
		body.Fields = verr.Fields
	}
	writeJSON(w, status, body)
}

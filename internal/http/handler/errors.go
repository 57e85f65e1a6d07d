package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sandeepkv93/shortlink-backend/internal/http/response"
	"github.com/sandeepkv93/shortlink-backend/internal/service"
)

var statusByCode = map[string]int{
	service.CodeValidation:     http.StatusBadRequest,
	service.CodeConflict:       http.StatusConflict,
	service.CodeUnauthorized:   http.StatusUnauthorized,
	service.CodeForbidden:      http.StatusForbidden,
	service.CodeNotFound:       http.StatusNotFound,
	service.CodeExpired:        http.StatusBadRequest,
	service.CodeDispatchFailed: http.StatusInternalServerError,
	service.CodeInternal:       http.StatusInternalServerError,
}

func statusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders a service error. Internal causes are logged and replaced
// with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := service.ErrorCode(err)
	status := statusFor(code)
	switch code {
	case service.CodeInternal:
		slog.ErrorContext(r.Context(), "request failed", "operation", op, "request_id", chimiddleware.GetReqID(r.Context()), "error", err)
		response.Error(w, r, status, code, "internal server error", nil)
	case service.CodeDispatchFailed:
		slog.ErrorContext(r.Context(), "email dispatch failed", "operation", op, "request_id", chimiddleware.GetReqID(r.Context()), "error", err)
		response.Error(w, r, status, code, "failed to send email", nil)
	default:
		response.Error(w, r, status, code, err.Error(), nil)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func writeBadBody(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, http.StatusBadRequest, service.CodeValidation, "invalid request body", nil)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/liao/sommelier/internal/wine"
)

// ErrorCategory 错误分类，同时作为响应中的 code
type ErrorCategory string

const (
	ErrCatValidation       ErrorCategory = "validation"
	ErrCatNotFound         ErrorCategory = "not_found"
	ErrCatRateLimit        ErrorCategory = "rate_limit"
	ErrCatIndexUnavailable ErrorCategory = "index_unavailable"
	ErrCatTimeout          ErrorCategory = "timeout"
	ErrCatUnknown          ErrorCategory = "unknown"
)

// AppError 带分类与 HTTP 状态码的错误
type AppError struct {
	Category   ErrorCategory
	Message    string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func NewValidationError(msg string) *AppError {
	return &AppError{Category: ErrCatValidation, Message: msg, StatusCode: http.StatusBadRequest}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Category: ErrCatNotFound, Message: msg, StatusCode: http.StatusNotFound}
}

// FromError 把领域错误映射为 AppError
func FromError(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, wine.ErrEmptyQuery):
		return &AppError{Category: ErrCatValidation, Message: err.Error(), StatusCode: http.StatusBadRequest, Err: err}
	case errors.Is(err, wine.ErrIndexUnavailable):
		return &AppError{Category: ErrCatIndexUnavailable, Message: err.Error(), StatusCode: http.StatusServiceUnavailable, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &AppError{Category: ErrCatTimeout, Message: "request timed out", StatusCode: http.StatusGatewayTimeout, Err: err}
	default:
		return &AppError{Category: ErrCatUnknown, Message: "internal server error", StatusCode: http.StatusInternalServerError, Err: err}
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "code", appErr.Category, "error", err)
	}
	writeJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr.Message, Code: string(appErr.Category)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response failed", "error", err)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"storyline/internal/contextutil"
	"storyline/internal/service"
	"storyline/internal/timeline"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

var validate = newValidator()

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates its struct tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &service.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &service.ValidationError{Field: fe.Field(), Message: fmt.Sprintf("failed %q check", fe.Tag())}
		}
		return &service.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, ctx context.Context, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, ctx context.Context, status int, resp ErrorResponse) {
	writeJSON(w, ctx, status, resp)
}

// handleServiceError maps service errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "validation error", "field", validationErr.Field, "error", validationErr.Message)
		writeError(w, ctx, http.StatusBadRequest, ErrorResponse{Error: validationErr.Error(), Field: validationErr.Field})
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		logger.WarnContext(ctx, "resource not found", "error", err)
		writeError(w, ctx, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	if errors.Is(err, service.ErrDiscarded) {
		logger.InfoContext(ctx, "result discarded", "error", err)
		writeError(w, ctx, http.StatusConflict, ErrorResponse{Error: err.Error(), Retryable: true})
		return
	}

	if errors.Is(err, service.ErrClosed) {
		writeError(w, ctx, http.StatusGone, ErrorResponse{Error: err.Error()})
		return
	}

	if errors.Is(err, service.ErrUnavailable) {
		writeError(w, ctx, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}

	var malformedErr *timeline.MalformedResponseError
	if errors.As(err, &malformedErr) {
		logger.ErrorContext(ctx, "malformed response from generation service", "error", err)
		writeError(w, ctx, http.StatusBadGateway, ErrorResponse{Error: "generation service returned an unusable response", Retryable: true})
		return
	}

	var netErr *timeline.NetworkError
	if errors.As(err, &netErr) {
		logger.ErrorContext(ctx, "external service error", "op", netErr.Op, "error", err)
		writeError(w, ctx, http.StatusServiceUnavailable, ErrorResponse{Error: "external service unavailable", Retryable: true})
		return
	}

	logger.ErrorContext(ctx, defaultMsg, "error", err)
	writeError(w, ctx, http.StatusInternalServerError, ErrorResponse{Error: defaultMsg})
}

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/localq/localq/api"
	"github.com/localq/localq/internal/server/database"
)

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// sendError writes a structured error payload.
func sendError(w http.ResponseWriter, code int, kind, message string) {
	writeJSON(w, code, api.Error{
		Code:    code,
		Kind:    kind,
		Message: message,
	})
}

// statusForKind maps a store error kind to an HTTP status code.
func statusForKind(kind database.ErrorKind) int {
	switch kind {
	case database.KindNotFound:
		return http.StatusNotFound
	case database.KindStoreFailure:
		return http.StatusInternalServerError
	default:
		// Validation, limit, and confirmation failures are caller errors.
		return http.StatusBadRequest
	}
}

// sendStoreError maps a store error to a response, logging unexpected
// failures without leaking them to the client.
func sendStoreError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := database.KindOf(err)
	code := statusForKind(kind)

	if code >= http.StatusInternalServerError {
		logger.Error("Store operation failed", "error", err)
		sendError(w, code, string(kind), "Database error")
		return
	}

	sendError(w, code, string(kind), err.Error())
}

// decodeAndValidate parses the request body into dst and runs struct
// validation. The returned error message is safe to send to the client.
func decodeAndValidate(v *validator.Validate, r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	err := v.Struct(dst)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed on validation: %s", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("validation failed: %s", strings.Join(msgs, ", "))
	}

	return err
}

package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/ftsearch"
)

type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeValidationFailed     errorCode = "validation_failed"
	codeUnknownProperty      errorCode = "unknown_property"
	codeUnknownFilterField   errorCode = "unknown_filter_field"
	codeLanguageNotSupported errorCode = "language_not_supported"
	codeDocumentNotFound     errorCode = "document_not_found"
	codePinRuleNotFound      errorCode = "pin_rule_not_found"
	codeAlreadyExists        errorCode = "already_exists"
	codeHookFailed           errorCode = "hook_failed"
	codeUnauthorized         errorCode = "unauthorized"
	codeCancelled            errorCode = "cancelled"
	codeInternalError        errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// sentinels are the errors whose text is safe to show to clients.
var sentinels = []error{
	ftsearch.ErrUnknownProperty,
	ftsearch.ErrInvalidParams,
	ftsearch.ErrLanguageNotSupported,
	ftsearch.ErrInvalidSchema,
	ftsearch.ErrUnknownFilterField,
	ftsearch.ErrDocumentNotFound,
	ftsearch.ErrAlreadyExists,
	ftsearch.ErrHookFailed,
}

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		unknownPropertyHandler,
		sentinelHandler(ftsearch.ErrInvalidParams, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(ftsearch.ErrInvalidSchema, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(ftsearch.ErrUnknownFilterField, http.StatusBadRequest, codeUnknownFilterField),
		sentinelHandler(ftsearch.ErrLanguageNotSupported, http.StatusBadRequest, codeLanguageNotSupported),
		sentinelHandler(ftsearch.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(ftsearch.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(ftsearch.ErrHookFailed, http.StatusUnprocessableEntity, codeHookFailed),
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// unknownPropertyHandler reports the offending property and the valid ones.
func unknownPropertyHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, ftsearch.ErrUnknownProperty) {
		return false
	}
	var upe *ftsearch.UnknownPropertyError
	if errors.As(err, &upe) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":     codeUnknownProperty,
			"message":  upe.Error(),
			"property": upe.Property,
			"valid":    upe.Valid,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, codeUnknownProperty, msg)
	return true
}

// batchErrorCode classifies the error of one batch item.
func batchErrorCode(err error) errorCode {
	switch {
	case errors.Is(err, ftsearch.ErrDocumentNotFound):
		return codeDocumentNotFound
	case errors.Is(err, ftsearch.ErrAlreadyExists):
		return codeAlreadyExists
	case errors.Is(err, ftsearch.ErrInvalidSchema), errors.Is(err, ftsearch.ErrInvalidParams):
		return codeValidationFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return codeCancelled
	default:
		return codeInternalError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

package sdk

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ftsearch"
)

// APIError is a non-2xx response of the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ftsearch: %d %s: %s", e.Status, e.Code, e.Message)
}

// codeSentinels maps server error codes back to engine errors.
var codeSentinels = map[string]error{
	"validation_failed":      ftsearch.ErrInvalidParams,
	"unknown_property":       ftsearch.ErrUnknownProperty,
	"unknown_filter_field":   ftsearch.ErrUnknownFilterField,
	"language_not_supported": ftsearch.ErrLanguageNotSupported,
	"document_not_found":     ftsearch.ErrDocumentNotFound,
	"pin_rule_not_found":     ftsearch.ErrDocumentNotFound,
	"already_exists":         ftsearch.ErrAlreadyExists,
	"hook_failed":            ftsearch.ErrHookFailed,
}

// Unwrap returns the engine sentinel matching the error code, if any.
// Server messages of validation failures name the violated sentinel, so
// schema errors unwrap to ErrInvalidSchema.
func (e *APIError) Unwrap() error { return sentinelFor(e.Code, e.Message) }

// ItemError is the failure of one item of a batch request.
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("ftsearch: %s: %s", e.Code, e.Message)
}

// Unwrap returns the engine sentinel matching the error code, if any.
// Cancelled items unwrap to context.Canceled.
func (e *ItemError) Unwrap() error {
	if e.Code == "cancelled" {
		return context.Canceled
	}
	return sentinelFor(e.Code, e.Message)
}

func sentinelFor(code, message string) error {
	if code == "validation_failed" && message == ftsearch.ErrInvalidSchema.Error() {
		return ftsearch.ErrInvalidSchema
	}
	return codeSentinels[code]
}

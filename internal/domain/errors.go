package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownProperty signals a reference to a property outside the searchable set.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrInvalidParams signals malformed search parameters.
	ErrInvalidParams = errors.New("invalid search params")
	// ErrLanguageNotSupported signals a language hint the tokenizer cannot handle.
	ErrLanguageNotSupported = errors.New("language not supported")
	// ErrInvalidSchema signals an invalid schema definition or a document that violates it.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrUnknownFilterField signals a where-clause referencing a field the index does not hold.
	ErrUnknownFilterField = errors.New("unknown filter field")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrAlreadyExists signals a duplicate document id.
	ErrAlreadyExists = errors.New("already exists")
	// ErrHookFailed signals that a before/after search hook returned an error.
	ErrHookFailed = errors.New("search hook failed")
)

// UnknownPropertyError wraps ErrUnknownProperty with the offending name and the valid options.
type UnknownPropertyError struct {
	Property string
	Valid    []string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("%s %q: expected one of %s",
		ErrUnknownProperty.Error(), e.Property, strings.Join(e.Valid, ", "))
}

func (e *UnknownPropertyError) Unwrap() error { return ErrUnknownProperty }

// NewUnknownProperty creates an unknown property error.
func NewUnknownProperty(property string, valid []string) error {
	return &UnknownPropertyError{Property: property, Valid: valid}
}

package ftsearch

import "github.com/kailas-cloud/ftsearch/internal/domain"

// Errors returned by the engine. Match them with errors.Is.
var (
	ErrUnknownProperty      = domain.ErrUnknownProperty
	ErrInvalidParams        = domain.ErrInvalidParams
	ErrLanguageNotSupported = domain.ErrLanguageNotSupported
	ErrInvalidSchema        = domain.ErrInvalidSchema
	ErrUnknownFilterField   = domain.ErrUnknownFilterField
	ErrDocumentNotFound     = domain.ErrDocumentNotFound
	ErrAlreadyExists        = domain.ErrAlreadyExists
	ErrHookFailed           = domain.ErrHookFailed
)

// UnknownPropertyError names the offending property and the valid ones.
type UnknownPropertyError = domain.UnknownPropertyError

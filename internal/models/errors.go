package models

import "errors"

// Sentinel errors shared across the registry and knowledge layers.
// Callers branch with errors.Is; messages carry the detail.
var (
	// ErrNotFound signals a missing client profile or unresolved tenant.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSource signals a malformed knowledge source descriptor:
	// unsupported kind, or a URL without scheme/host.
	ErrInvalidSource = errors.New("invalid knowledge source")

	// ErrSourceNotFound signals a knowledge source that is well formed
	// but unreachable: missing file, failed fetch.
	ErrSourceNotFound = errors.New("knowledge source not found")

	// ErrValidation signals a profile or descriptor failing a
	// required-field or minimum-content check.
	ErrValidation = errors.New("validation failed")
)

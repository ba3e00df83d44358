// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested credential does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername indicates a username unique-constraint violation on insert.
	ErrDuplicateUsername = errors.New("duplicate username")

	// ErrValidation indicates malformed input rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrCipher indicates an encryption/decryption failure
	// (missing key material, malformed or foreign ciphertext).
	ErrCipher = errors.New("cipher failure")

	// ErrStore indicates an underlying durable-storage I/O failure.
	ErrStore = errors.New("store failure")
)

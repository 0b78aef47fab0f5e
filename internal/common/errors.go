// Package common defines the sentinel errors and shared helpers used across
// the mineralog tools. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Export pipeline errors.
	ErrInputNotFound     = errors.New("input not found")
	ErrMalformedRow      = errors.New("malformed row")
	ErrMissingName       = errors.New("missing mineral name")
	ErrMissingCapability = errors.New("encryption capability unavailable")
	ErrWriteFailure      = errors.New("write failure")
	ErrPasswordRequired  = errors.New("password required")
	ErrUnsafeName        = errors.New("unsafe media file name")

	// Archive reader errors.
	ErrInvalidArchive    = errors.New("invalid archive")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrUnsupportedSchema = errors.New("unsupported schema version")
	ErrDecryptionFailed  = errors.New("decryption failed")
)

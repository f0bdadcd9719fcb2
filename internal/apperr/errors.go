// Package apperr defines the sentinel errors shared across service and
// transport layers.
package apperr

import "errors"

var (
	// ErrNotFound covers both "does not exist" and "not owned by the
	// caller"; the two are deliberately indistinguishable.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")

	// ErrUnsupportedType rejects uploads whose declared media type is
	// outside the raster-image allow-list.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrPayloadTooLarge rejects uploads above the configured ceiling.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrFileMissing signals an attachment record whose backing binary is
	// absent from storage (record/file divergence).
	ErrFileMissing = errors.New("attachment file missing")
	// ErrStorage wraps binary read/write failures.
	ErrStorage = errors.New("storage error")
)

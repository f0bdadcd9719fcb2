// Package storage defines the attachment blob store abstraction.
package storage

import "io"

// Provider is the interface for binary attachment files. All paths are
// plain filenames relative to the uploads root.
type Provider interface {
	// Write atomically writes content to name.
	Write(name string, content []byte) error
	// Open returns a reader over the file. The caller closes it. A missing
	// file surfaces as an error satisfying errors.Is(err, os.ErrNotExist).
	Open(name string) (io.ReadCloser, error)
	// Exists reports whether the file is present.
	Exists(name string) (bool, error)
	// Delete removes the file.
	Delete(name string) error
	// List returns the names of all stored files.
	List() ([]string, error)
}

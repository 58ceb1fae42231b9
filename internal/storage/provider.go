// Package storage defines the output-directory abstraction posts are saved to.
package storage

import "github.com/starford/postconf/internal/models"

// Provider is the interface for output-directory file operations.
// Paths are relative to Root.
type Provider interface {
	// Root returns the absolute output directory.
	Root() string
	// Exists reports whether path is occupied by any file system entry.
	Exists(path string) (bool, error)
	// List returns metadata for the .md files directly in dir.
	List(dir string) ([]models.PostFile, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Create writes content to a new file at path. It never replaces an
	// existing file and leaves nothing behind when the write fails.
	Create(path string, content []byte) error
}

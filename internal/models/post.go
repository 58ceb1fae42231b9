// Package models defines the domain types for postconf.
package models

import "time"

// PostFile is the lightweight listing entry for a Markdown file in the output directory.
type PostFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is a detached, read-only copy of an Article.
type Snapshot struct {
	Title      string   `json:"title" yaml:"title"`
	Date       string   `json:"date" yaml:"date"`
	Categories []string `json:"categories" yaml:"categories"`
	Tags       []string `json:"tags" yaml:"tags"`
}

// Package writer turns an Article into a post file on disk.
package writer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/postconf/internal/apperr"
	"github.com/starford/postconf/internal/frontmatter"
	"github.com/starford/postconf/internal/models"
	"github.com/starford/postconf/internal/storage"
)

// Ext is the extension of every post file.
const Ext = ".md"

// DeriveFilename returns "{date}-{title}.md" with each space in the title
// replaced by a hyphen. Nothing else is changed.
func DeriveFilename(a *models.Article) string {
	return a.DateString() + "-" + strings.ReplaceAll(a.Title(), " ", "-") + Ext
}

// checkTitle enforces the save preconditions on the title. Titles with a
// path separator or NUL are refused rather than rewritten, so the file
// name always matches DeriveFilename.
func checkTitle(title string) error {
	if title == "" {
		return apperr.ErrEmptyTitle
	}
	if strings.ContainsAny(title, "/\\\x00") {
		return fmt.Errorf("%q: %w", title, apperr.ErrUnsafeTitle)
	}
	return nil
}

// Writer saves posts into one output directory.
type Writer struct {
	store storage.Provider
}

// New returns a Writer for store.
func New(store storage.Provider) *Writer {
	return &Writer{store: store}
}

// Save writes a as a new post file and returns its absolute path. The
// title is checked before any file system access. An occupied path fails
// with apperr.ErrAlreadyExists and is left untouched. a is only read.
func (w *Writer) Save(a *models.Article) (string, error) {
	if err := checkTitle(a.Title()); err != nil {
		return "", err
	}
	name := DeriveFilename(a)
	abs := filepath.Join(w.store.Root(), name)

	exists, err := w.store.Exists(name)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%s: %w", abs, apperr.ErrAlreadyExists)
	}

	// Render fully before the destination is opened.
	doc, err := frontmatter.Document(a)
	if err != nil {
		return "", err
	}
	if err := w.store.Create(name, doc); err != nil {
		return "", err
	}
	return abs, nil
}

// Save writes a into outputDir. See Writer.Save.
func Save(a *models.Article, outputDir string) (string, error) {
	if err := checkTitle(a.Title()); err != nil {
		return "", err
	}
	store, err := storage.NewFS(outputDir)
	if err != nil {
		return "", err
	}
	return New(store).Save(a)
}

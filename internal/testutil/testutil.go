// Package testutil provides shared test helpers for output directories and indexes.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/postconf/internal/index"
	"github.com/starford/postconf/internal/models"
	"github.com/starford/postconf/internal/storage"
)

// TestDB opens a SQLite index in the test's temp dir; it is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "postconf-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestOutput creates a temporary output directory with a storage.Provider.
func TestOutput(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// TestArticle builds an article or fails the test.
func TestArticle(t *testing.T, title, date string, categories, tags []string) *models.Article {
	t.Helper()
	a, err := models.New(title, date, categories, tags)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// WriteFile writes a file under dir, failing the test on error.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// QuietLogger discards everything below error.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

package index

import (
	"log/slog"

	"github.com/starford/postconf/internal/checksum"
	"github.com/starford/postconf/internal/frontmatter"
	"github.com/starford/postconf/internal/storage"
)

// Sync walks the output directory and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeletePost(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile parses a post file and upserts it. Files without front matter
// are indexed too, using the first heading as title.
func IndexFile(db PostIndex, path string, data []byte) error {
	res, err := frontmatter.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertPost(PostRow{
		Path:       path,
		Title:      res.Title,
		Date:       res.Date,
		Categories: res.Categories,
		Tags:       res.Tags,
		Checksum:   checksum.Sum(data),
	}, res.Body)
}

package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/postconf/internal/apperr"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	Path       string
	Title      string
	Date       string
	Categories []string
	Tags       []string
	Checksum   string
	UpdatedAt  time.Time
}

// ListFilter narrows and pages ListPosts. Empty Tag or Category matches all.
type ListFilter struct {
	Limit    int
	Offset   int
	Tag      string
	Category string
}

// Term is a category or tag with the number of posts using it.
type Term struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertPost inserts or replaces a post, its FTS entry, and its terms within a transaction.
func (db *DB) UpsertPost(p PostRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	catsJSON, _ := json.Marshal(nonNil(p.Categories))
	tagsJSON, _ := json.Marshal(nonNil(p.Tags))
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO posts (path, title, date, categories, tags, body, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			date       = excluded.date,
			categories = excluded.categories,
			tags       = excluded.tags,
			body       = excluded.body,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, p.Path, p.Title, p.Date, string(catsJSON), string(tagsJSON), body, p.Checksum, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, p, body); err != nil {
		return err
	}

	// Replace terms: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM post_terms WHERE path = ?`, p.Path); err != nil {
		return fmt.Errorf("index: clear terms: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO post_terms (path, kind, term, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare term insert: %w", err)
	}
	defer stmt.Close()
	for kind, terms := range map[string][]string{TermCategory: p.Categories, TermTag: p.Tags} {
		for i, term := range terms {
			if _, err := stmt.Exec(p.Path, kind, term, i); err != nil {
				return fmt.Errorf("index: insert term: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeletePost removes a post, its FTS entry, and its terms.
func (db *DB) DeletePost(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM post_terms WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM posts WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a post, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil // not found is fine
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path to checksum for every indexed post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

const postColumns = `path, title, date, categories, tags, checksum, updated_at`

// GetPost returns one indexed post or apperr.ErrNotFound.
func (db *DB) GetPost(path string) (*PostRow, error) {
	row := db.conn.QueryRow(`SELECT `+postColumns+` FROM posts WHERE path = ?`, path)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: post %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get post: %w", err)
	}
	return p, nil
}

const listWhere = `
	WHERE (? = '' OR EXISTS (SELECT 1 FROM post_terms t WHERE t.path = posts.path AND t.kind = 'tag' AND t.term = ?))
	  AND (? = '' OR EXISTS (SELECT 1 FROM post_terms t WHERE t.path = posts.path AND t.kind = 'category' AND t.term = ?))
`

// ListPosts returns posts newest first together with the unpaged total.
func (db *DB) ListPosts(f ListFilter) ([]PostRow, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	args := []any{f.Tag, f.Tag, f.Category, f.Category}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`+listWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+postColumns+` FROM posts`+listWhere+`
		ORDER BY date DESC, path
		LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// Terms returns every distinct term of kind, most used first.
func (db *DB) Terms(kind string) ([]Term, error) {
	rows, err := db.conn.Query(`
		SELECT term, count(*) AS n
		FROM post_terms
		WHERE kind = ?
		GROUP BY term
		ORDER BY n DESC, term
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("index: terms: %w", err)
	}
	defer rows.Close()

	out := []Term{}
	for rows.Next() {
		var t Term
		if err := rows.Scan(&t.Name, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*PostRow, error) {
	var (
		p          PostRow
		cats, tags string
	)
	if err := s.Scan(&p.Path, &p.Title, &p.Date, &cats, &tags, &p.Checksum, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cats), &p.Categories); err != nil {
		return nil, fmt.Errorf("index: decode categories of %s: %w", p.Path, err)
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("index: decode tags of %s: %w", p.Path, err)
	}
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

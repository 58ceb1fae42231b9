// Package frontmatter renders post metadata as a YAML front-matter block
// and reads saved posts back.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	adrg "github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/starford/postconf/internal/models"
)

// Delimiter opens and closes the front-matter block.
const Delimiter = "---"

// ErrMissing is returned by ParseStrict when a file has no front matter.
var ErrMissing = errors.New("frontmatter: missing")

// Serialize renders a as a YAML mapping with keys title, date, categories
// and tags, in that order. Output is stable for equal input and carries no
// trailing newline. Serialize does not validate a.
func Serialize(a *models.Article) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(a.Snapshot()); err != nil {
		return "", fmt.Errorf("frontmatter: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("frontmatter: encode: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Document returns the complete file content for a: the serialized
// mapping between two delimiter lines.
func Document(a *models.Article) ([]byte, error) {
	y, err := Serialize(a)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(y) + 2*len(Delimiter) + 3)
	buf.WriteString(Delimiter + "\n")
	buf.WriteString(y)
	buf.WriteString("\n" + Delimiter + "\n")
	return buf.Bytes(), nil
}

// Result holds what was read back from a post file.
type Result struct {
	Title          string
	Date           string
	Categories     []string
	Tags           []string
	Body           string
	HasFrontMatter bool
}

// Metadata returns the front-matter fields as a snapshot.
func (r *Result) Metadata() models.Snapshot {
	return models.Snapshot{
		Title:      r.Title,
		Date:       r.Date,
		Categories: nonNil(r.Categories),
		Tags:       nonNil(r.Tags),
	}
}

type envelope struct {
	Title      string   `yaml:"title"`
	Date       string   `yaml:"date"`
	Categories []string `yaml:"categories"`
	Tags       []string `yaml:"tags"`
}

// Parse reads a Markdown file. Files without front matter are accepted;
// the whole content becomes the body and the title falls back to the
// first H1 heading.
func Parse(data []byte) (*Result, error) {
	return parse(data, false)
}

// ParseStrict is Parse for files that must start with front matter.
func ParseStrict(data []byte) (*Result, error) {
	return parse(data, true)
}

func parse(data []byte, strict bool) (*Result, error) {
	var env envelope
	body, err := adrg.MustParse(bytes.NewReader(data), &env)
	switch {
	case errors.Is(err, adrg.ErrNotFound):
		if strict {
			return nil, ErrMissing
		}
		return &Result{
			Body:  string(data),
			Title: deriveTitle("", string(data)),
		}, nil
	case err != nil:
		return nil, fmt.Errorf("frontmatter: parse: %w", err)
	}

	return &Result{
		Title:          deriveTitle(env.Title, string(body)),
		Date:           env.Date,
		Categories:     env.Categories,
		Tags:           env.Tags,
		Body:           string(body),
		HasFrontMatter: true,
	}, nil
}

// deriveTitle prefers the front-matter title, then the first H1 heading.
func deriveTitle(fm, body string) string {
	if fm != "" {
		return fm
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

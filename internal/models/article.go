package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/starford/postconf/internal/apperr"
	"github.com/starford/postconf/internal/datefield"
	"github.com/starford/postconf/internal/textbuf"
)

// Article holds the editable metadata of one blog post.
//
// An Article is not safe for concurrent use. Every mutating method either
// succeeds or leaves the Article exactly as it was.
type Article struct {
	title      string
	date       string
	categories []string
	tags       []string
}

// New builds an Article from initial values. An empty date means today.
// The lists go through AddCategory and AddTag, so duplicates are rejected.
func New(title, date string, categories, tags []string) (*Article, error) {
	a := &Article{title: title}
	if date == "" {
		a.SetDate(datefield.Today())
	} else if err := a.SetDateString(date); err != nil {
		return nil, err
	}
	for _, c := range categories {
		if err := a.AddCategory(c); err != nil {
			return nil, err
		}
	}
	for _, t := range tags {
		if err := a.AddTag(t); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Title returns the title.
func (a *Article) Title() string { return a.title }

// SetTitle replaces the title. Empty is allowed while editing.
func (a *Article) SetTitle(s string) { a.title = s }

// TitleBuffer returns an editing handle over the title.
func (a *Article) TitleBuffer() *textbuf.Buffer {
	return textbuf.New(
		func() string { return a.title },
		func(s string) { a.title = s },
	)
}

// SetDate stores d in canonical form.
func (a *Article) SetDate(d datefield.Date) {
	a.date = datefield.Format(d)
}

// SetDateString validates s and stores it.
func (a *Article) SetDateString(s string) error {
	d, err := datefield.Parse(s)
	if err != nil {
		return err
	}
	a.SetDate(d)
	return nil
}

// Date parses the stored date. It only fails if the Article was built
// without going through SetDate.
func (a *Article) Date() (datefield.Date, error) {
	return datefield.Parse(a.date)
}

// DateString returns the stored date as is.
func (a *Article) DateString() string { return a.date }

// Categories returns a copy of the categories in insertion order.
func (a *Article) Categories() []string { return slices.Clone(a.categories) }

// Tags returns a copy of the tags in insertion order.
func (a *Article) Tags() []string { return slices.Clone(a.tags) }

// AddCategory appends name unless it is already present.
func (a *Article) AddCategory(name string) error {
	out, err := addUnique(a.categories, name, "category")
	if err != nil {
		return err
	}
	a.categories = out
	return nil
}

// DeleteCategory removes the category at index.
func (a *Article) DeleteCategory(index int) error {
	out, err := deleteAt(a.categories, index, "category")
	if err != nil {
		return err
	}
	a.categories = out
	return nil
}

// AddTag appends name unless it is already present.
func (a *Article) AddTag(name string) error {
	out, err := addUnique(a.tags, name, "tag")
	if err != nil {
		return err
	}
	a.tags = out
	return nil
}

// DeleteTag removes the tag at index.
func (a *Article) DeleteTag(index int) error {
	out, err := deleteAt(a.tags, index, "tag")
	if err != nil {
		return err
	}
	a.tags = out
	return nil
}

// CategoriesText joins the categories with spaces, for display only.
func (a *Article) CategoriesText() string { return strings.Join(a.categories, " ") }

// TagsText joins the tags with spaces, for display only.
func (a *Article) TagsText() string { return strings.Join(a.tags, " ") }

// Snapshot returns a copy that shares no memory with a.
// Lists are never nil so they serialize as empty sequences.
func (a *Article) Snapshot() Snapshot {
	return Snapshot{
		Title:      a.title,
		Date:       a.date,
		Categories: nonNil(slices.Clone(a.categories)),
		Tags:       nonNil(slices.Clone(a.tags)),
	}
}

func addUnique(list []string, name, kind string) ([]string, error) {
	if slices.Contains(list, name) {
		return nil, fmt.Errorf("%s %q: %w", kind, name, apperr.ErrDuplicateEntry)
	}
	return append(list, name), nil
}

func deleteAt(list []string, index int, kind string) ([]string, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("delete %s %d: %w", kind, index, apperr.ErrEmptyCollection)
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("delete %s %d (have %d): %w", kind, index, len(list), apperr.ErrIndexOutOfBounds)
	}
	return slices.Delete(list, index, index+1), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

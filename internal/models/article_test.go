package models

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/starford/postconf/internal/apperr"
	"github.com/starford/postconf/internal/datefield"
)

func mustNew(t *testing.T, title, date string, categories, tags []string) *Article {
	t.Helper()
	a, err := New(title, date, categories, tags)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_DefaultsDateToToday(t *testing.T) {
	a := mustNew(t, "", "", nil, nil)
	d, err := a.Date()
	if err != nil {
		t.Fatalf("Date: %v", err)
	}
	if today := datefield.Today(); d != today {
		t.Errorf("date = %v, want %v", d, today)
	}
}

func TestNew_RejectsInvalidDate(t *testing.T) {
	_, err := New("x", "2024-13-01", nil, nil)
	if !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestNew_RejectsDuplicateInitialValues(t *testing.T) {
	_, err := New("x", "2024-01-05", []string{"go", "go"}, nil)
	if !errors.Is(err, apperr.ErrDuplicateEntry) {
		t.Errorf("err = %v, want ErrDuplicateEntry", err)
	}
}

func TestAddCategory_Duplicate(t *testing.T) {
	a := mustNew(t, "", "2024-01-05", nil, nil)
	if err := a.AddCategory("x"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := a.AddCategory("x")
	if !errors.Is(err, apperr.ErrDuplicateEntry) {
		t.Errorf("second add err = %v, want ErrDuplicateEntry", err)
	}
	if got := a.Categories(); len(got) != 1 {
		t.Errorf("categories = %v, want length 1", got)
	}
}

func TestAddCategory_CaseSensitive(t *testing.T) {
	a := mustNew(t, "", "2024-01-05", []string{"Go"}, nil)
	if err := a.AddCategory("go"); err != nil {
		t.Errorf("different case should be accepted: %v", err)
	}
	if got := a.Categories(); !slices.Equal(got, []string{"Go", "go"}) {
		t.Errorf("categories = %v", got)
	}
}

func TestDeleteCategory(t *testing.T) {
	a := mustNew(t, "", "2024-01-05", []string{"a", "b"}, nil)

	if err := a.DeleteCategory(5); !errors.Is(err, apperr.ErrIndexOutOfBounds) {
		t.Errorf("delete 5 err = %v, want ErrIndexOutOfBounds", err)
	}
	if got := a.Categories(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("failed delete changed categories: %v", got)
	}
	if err := a.DeleteCategory(-1); !errors.Is(err, apperr.ErrIndexOutOfBounds) {
		t.Errorf("delete -1 err = %v, want ErrIndexOutOfBounds", err)
	}

	if err := a.DeleteCategory(0); err != nil {
		t.Fatalf("delete 0: %v", err)
	}
	if got := a.Categories(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("categories = %v, want [b]", got)
	}
}

func TestDeleteTag_Empty(t *testing.T) {
	a := mustNew(t, "", "2024-01-05", nil, nil)
	if err := a.DeleteTag(0); !errors.Is(err, apperr.ErrEmptyCollection) {
		t.Errorf("err = %v, want ErrEmptyCollection", err)
	}
}

func TestTags_IndependentOfCategories(t *testing.T) {
	a := mustNew(t, "", "2024-01-05", []string{"shared"}, nil)
	if err := a.AddTag("shared"); err != nil {
		t.Fatalf("tag with same name as category should be accepted: %v", err)
	}
	if err := a.DeleteTag(0); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if len(a.Tags()) != 0 || len(a.Categories()) != 1 {
		t.Errorf("tags = %v, categories = %v", a.Tags(), a.Categories())
	}
}

func TestDelete_PreservesOrder(t *testing.T) {
	a := mustNew(t, "", "2024-01-05", nil, []string{"a", "b", "c", "d"})
	if err := a.DeleteTag(1); err != nil {
		t.Fatal(err)
	}
	if got := a.Tags(); !slices.Equal(got, []string{"a", "c", "d"}) {
		t.Errorf("tags = %v", got)
	}
}

func TestJoinedText(t *testing.T) {
	a := mustNew(t, "", "2024-01-05", []string{"tech", "life"}, []string{"rust", "gui"})
	if a.CategoriesText() != "tech life" {
		t.Errorf("CategoriesText = %q", a.CategoriesText())
	}
	if a.TagsText() != "rust gui" {
		t.Errorf("TagsText = %q", a.TagsText())
	}
}

func TestSetDateString_InvalidLeavesDate(t *testing.T) {
	a := mustNew(t, "", "2024-01-05", nil, nil)
	if err := a.SetDateString("2024-02-30"); !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
	if a.DateString() != "2024-01-05" {
		t.Errorf("date changed to %q", a.DateString())
	}
}

func TestSetDate(t *testing.T) {
	a := mustNew(t, "", "2024-01-05", nil, nil)
	a.SetDate(datefield.Date{Year: 2025, Month: time.July, Day: 9})
	if a.DateString() != "2025-07-09" {
		t.Errorf("date = %q", a.DateString())
	}
}

func TestDate_CorruptedState(t *testing.T) {
	a := &Article{date: "not-a-date"}
	if _, err := a.Date(); !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestTitleBuffer_EditsTitle(t *testing.T) {
	a := mustNew(t, "Hello", "2024-01-05", nil, nil)
	buf := a.TitleBuffer()
	if _, err := buf.Insert(" World", 5); err != nil {
		t.Fatal(err)
	}
	if a.Title() != "Hello World" {
		t.Errorf("title = %q", a.Title())
	}
	if _, err := buf.Insert("x", 100); !errors.Is(err, apperr.ErrIndexOutOfBounds) {
		t.Errorf("err = %v, want ErrIndexOutOfBounds", err)
	}
	if a.Title() != "Hello World" {
		t.Errorf("failed insert changed title to %q", a.Title())
	}
	if got := buf.Take(); got != "Hello World" || a.Title() != "" {
		t.Errorf("Take = %q, title = %q", got, a.Title())
	}
}

func TestSnapshot_Detached(t *testing.T) {
	a := mustNew(t, "T", "2024-01-05", []string{"a"}, nil)
	s := a.Snapshot()
	if s.Tags == nil || len(s.Tags) != 0 {
		t.Errorf("empty tags should be non-nil empty slice, got %#v", s.Tags)
	}
	s.Categories[0] = "mutated"
	if a.Categories()[0] != "a" {
		t.Error("snapshot shares memory with article")
	}
	c := a.Categories()
	c[0] = "mutated"
	if a.Categories()[0] != "a" {
		t.Error("Categories() shares memory with article")
	}
}

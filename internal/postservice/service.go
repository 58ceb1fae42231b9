// Package postservice owns one editing session: an article, the directory it
// is saved into, and the optional post index.
package postservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/starford/postconf/internal/apperr"
	"github.com/starford/postconf/internal/checksum"
	"github.com/starford/postconf/internal/frontmatter"
	"github.com/starford/postconf/internal/index"
	"github.com/starford/postconf/internal/models"
	"github.com/starford/postconf/internal/storage"
	"github.com/starford/postconf/internal/writer"
)

var (
	// ErrNoIndex is returned by catalog reads when no index is attached.
	ErrNoIndex = errors.New("post index not available")
	// ErrUnknownEdit reports a TitleEdit whose Op is not one of EditOps.
	ErrUnknownEdit = errors.New("unknown title edit op")
)

// Title edit operations.
const (
	EditInsert      = "insert"
	EditDeleteRange = "delete_range"
	EditClear       = "clear"
	EditReplace     = "replace"
	EditTake        = "take"
)

// EditOps lists the accepted TitleEdit.Op values.
var EditOps = []string{EditInsert, EditDeleteRange, EditClear, EditReplace, EditTake}

// Publisher receives session and post change notifications.
type Publisher interface {
	PublishSession(snapshot any)
	PublishPostEvent(kind, path string)
}

// State is the session as seen by clients.
type State struct {
	models.Snapshot
	OutputDir string `json:"output_dir"`
}

// TitleEdit is one character-offset edit of the title.
type TitleEdit struct {
	Op    string
	Text  string
	At    int
	Start int
	End   int
}

// TitleEditResult reports the outcome of a TitleEdit.
type TitleEditResult struct {
	Title    string `json:"title"`
	Inserted int    `json:"inserted,omitempty"`
	Taken    string `json:"taken,omitempty"`
}

// SaveResult describes a saved post.
type SaveResult struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Checksum string `json:"checksum"`
	Indexed  bool   `json:"indexed"`
}

// PostDetail is a saved post read back from disk.
type PostDetail struct {
	models.Snapshot
	Path     string `json:"path"`
	Body     string `json:"body"`
	Checksum string `json:"checksum"`
}

// PostListItem is one entry of a ListPosts page.
type PostListItem struct {
	models.Snapshot
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

// Vocabulary holds every category and tag already used by saved posts.
type Vocabulary struct {
	Categories []index.Term `json:"categories"`
	Tags       []index.Term `json:"tags"`
}

// Option configures a Service.
type Option func(*Service)

// WithIndex attaches a post index covering the initial output directory.
func WithIndex(db index.PostIndex) Option {
	return func(s *Service) { s.db = db }
}

// WithPublisher sets the receiver of change notifications.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service serializes every operation on the session behind one mutex.
type Service struct {
	mu        sync.Mutex
	article   *models.Article
	store     storage.Provider
	db        index.PostIndex
	indexRoot string
	events    Publisher
	logger    *slog.Logger
}

// NewService creates a session over article saving into store.
func NewService(article *models.Article, store storage.Provider, opts ...Option) *Service {
	s := &Service{
		article: article,
		store:   store,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.db != nil {
		s.indexRoot = store.Root()
	}
	return s
}

// Snapshot returns the current session state.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// SetTitle replaces the title.
func (s *Service) SetTitle(title string) State {
	return s.mutate(func() error {
		s.article.SetTitle(title)
		return nil
	})
}

// EditTitle applies one edit through the title buffer.
func (s *Service) EditTitle(e TitleEdit) (TitleEditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.article.TitleBuffer()
	var res TitleEditResult
	switch e.Op {
	case EditInsert:
		n, err := buf.Insert(e.Text, e.At)
		if err != nil {
			return res, err
		}
		res.Inserted = n
	case EditDeleteRange:
		if err := buf.DeleteRange(e.Start, e.End); err != nil {
			return res, err
		}
	case EditClear:
		buf.Clear()
	case EditReplace:
		buf.Replace(e.Text)
	case EditTake:
		res.Taken = buf.Take()
	default:
		return res, fmt.Errorf("title edit %q: %w", e.Op, ErrUnknownEdit)
	}
	res.Title = buf.String()
	s.publishLocked()
	return res, nil
}

// SetDate parses and stores a YYYY-MM-DD date.
func (s *Service) SetDate(date string) (State, error) {
	return s.mutateErr(func() error { return s.article.SetDateString(date) })
}

// AddCategory appends a category.
func (s *Service) AddCategory(name string) (State, error) {
	return s.mutateErr(func() error { return s.article.AddCategory(name) })
}

// DeleteCategory removes the category at index.
func (s *Service) DeleteCategory(index int) (State, error) {
	return s.mutateErr(func() error { return s.article.DeleteCategory(index) })
}

// AddTag appends a tag.
func (s *Service) AddTag(name string) (State, error) {
	return s.mutateErr(func() error { return s.article.AddTag(name) })
}

// DeleteTag removes the tag at index.
func (s *Service) DeleteTag(index int) (State, error) {
	return s.mutateErr(func() error { return s.article.DeleteTag(index) })
}

// SetOutputDir points later saves at dir, which must be an existing directory.
// Posts saved outside the indexed directory are not indexed.
func (s *Service) SetOutputDir(dir string) (State, error) {
	store, err := storage.NewFS(dir)
	if err != nil {
		return State{}, err
	}
	return s.mutateErr(func() error {
		s.store = store
		return nil
	})
}

// Save writes the article as a new post. The session stays open and the
// article is unchanged. A failure to index is logged, not returned, since
// the file is already on disk.
func (s *Service) Save(_ context.Context) (*SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	abs, err := writer.New(s.store).Save(s.article)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(abs)
	res := &SaveResult{Path: abs, Name: name}

	data, err := s.store.Read(name)
	if err != nil {
		s.logger.Warn("read back saved post failed", slog.String("path", abs), slog.String("error", err.Error()))
	} else {
		res.Checksum = checksum.Sum(data)
		if s.indexedLocked() {
			if err := index.IndexFile(s.db, name, data); err != nil {
				s.logger.Warn("index saved post failed", slog.String("path", abs), slog.String("error", err.Error()))
			} else {
				res.Indexed = true
			}
		}
	}

	s.logger.Info("post saved", slog.String("path", abs))
	if s.events != nil {
		s.events.PublishPostEvent("created", name)
	}
	return res, nil
}

// ListPosts returns a page of indexed posts and the total match count.
func (s *Service) ListPosts(_ context.Context, f index.ListFilter) ([]PostListItem, int, error) {
	if s.db == nil {
		return nil, 0, ErrNoIndex
	}
	rows, total, err := s.db.ListPosts(f)
	if err != nil {
		return nil, 0, err
	}
	items := make([]PostListItem, len(rows))
	for i, r := range rows {
		items[i] = PostListItem{
			Snapshot: models.Snapshot{
				Title:      r.Title,
				Date:       r.Date,
				Categories: nonNil(r.Categories),
				Tags:       nonNil(r.Tags),
			},
			Path:     r.Path,
			Checksum: r.Checksum,
		}
	}
	return items, total, nil
}

// GetPost reads a saved post from the indexed directory, or from the
// current output directory when no index is attached. Only top-level
// Markdown files are posts; any other path is not found.
func (s *Service) GetPost(_ context.Context, path string) (*PostDetail, error) {
	if !isPostName(path) {
		return nil, fmt.Errorf("%s: %w", path, apperr.ErrNotFound)
	}
	store, err := s.postsStore()
	if err != nil {
		return nil, err
	}
	data, err := store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	res, err := frontmatter.Parse(data)
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Snapshot: res.Metadata(),
		Path:     path,
		Body:     res.Body,
		Checksum: checksum.Sum(data),
	}, nil
}

// Search runs a full-text query over indexed posts.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return nil, ErrNoIndex
	}
	return s.db.Search(query, limit)
}

// Vocabulary returns the categories and tags used by indexed posts.
func (s *Service) Vocabulary(_ context.Context) (*Vocabulary, error) {
	if s.db == nil {
		return nil, ErrNoIndex
	}
	cats, err := s.db.Terms(index.TermCategory)
	if err != nil {
		return nil, err
	}
	tags, err := s.db.Terms(index.TermTag)
	if err != nil {
		return nil, err
	}
	return &Vocabulary{Categories: cats, Tags: tags}, nil
}

func (s *Service) postsStore() (storage.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil && s.store.Root() != s.indexRoot {
		return storage.NewFS(s.indexRoot)
	}
	return s.store, nil
}

func isPostName(name string) bool {
	return name != "" &&
		filepath.Base(name) == name &&
		!strings.ContainsRune(name, '\\') &&
		!strings.HasPrefix(name, ".") &&
		filepath.Ext(name) == writer.Ext
}

func (s *Service) indexedLocked() bool {
	return s.db != nil && s.store.Root() == s.indexRoot
}

func (s *Service) mutate(fn func() error) State {
	st, _ := s.mutateErr(fn)
	return st
}

// mutateErr runs fn under the lock and publishes the new state on success.
func (s *Service) mutateErr(fn func() error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		return State{}, err
	}
	s.publishLocked()
	return s.stateLocked(), nil
}

func (s *Service) publishLocked() {
	if s.events != nil {
		s.events.PublishSession(s.stateLocked())
	}
}

func (s *Service) stateLocked() State {
	return State{Snapshot: s.article.Snapshot(), OutputDir: s.store.Root()}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

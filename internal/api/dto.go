package api

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/postconf/internal/index"
	"github.com/starford/postconf/internal/postservice"
)

// TitleRequest is the request body for replacing the title.
type TitleRequest struct {
	Title *string `json:"title" example:"Hello World" validate:"required"`
}

// Validate requires the title key; an empty title is allowed while editing.
func (r TitleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NotNil),
	)
}

// TitleEditRequest is one character-offset edit of the title.
type TitleEditRequest struct {
	Op    string `json:"op" example:"insert" enums:"insert,delete_range,clear,replace,take" validate:"required"`
	Text  string `json:"text,omitempty" example:" World"`
	At    int    `json:"at,omitempty" example:"5"`
	Start int    `json:"start,omitempty" example:"0"`
	End   int    `json:"end,omitempty" example:"5"`
}

// Validate checks the operation name.
func (r TitleEditRequest) Validate() error {
	ops := make([]any, len(postservice.EditOps))
	for i, op := range postservice.EditOps {
		ops[i] = op
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Op, validation.Required, validation.In(ops...)),
	)
}

func (r TitleEditRequest) edit() postservice.TitleEdit {
	return postservice.TitleEdit{Op: r.Op, Text: r.Text, At: r.At, Start: r.Start, End: r.End}
}

// DateRequest is the request body for setting the publication date.
type DateRequest struct {
	Date string `json:"date" example:"2024-01-05" validate:"required"`
}

// Validate requires a date; its format is checked by the session.
func (r DateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Date, validation.Required),
	)
}

// TermRequest is the request body for adding a category or tag.
type TermRequest struct {
	Name string `json:"name" example:"golang" validate:"required"`
}

var errBlank = errors.New("must not be blank")

// Validate rejects empty and whitespace-only names.
func (r TermRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.By(notBlank)),
	)
}

func notBlank(v any) error {
	if s, _ := v.(string); strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}

// OutputDirRequest is the request body for changing the output directory.
type OutputDirRequest struct {
	Dir string `json:"dir" example:"./posts" validate:"required"`
}

// Validate requires a directory.
func (r OutputDirRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Dir, validation.Required),
	)
}

// SessionResponse is the session state (aliased from the domain layer).
type SessionResponse = postservice.State

// SaveResponse describes a saved post (aliased from the domain layer).
type SaveResponse = postservice.SaveResult

// PostDetail is a saved post read back from disk (aliased from the domain layer).
type PostDetail = postservice.PostDetail

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []postservice.PostListItem `json:"posts" validate:"required"`
	Total int                        `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

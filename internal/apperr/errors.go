// Package apperr defines the sentinel errors shared across postconf.
// Call sites wrap them with the offending value so a single line can be
// shown to the user; callers match with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidFormat reports a date string that is not a valid YYYY-MM-DD.
	ErrInvalidFormat = errors.New("invalid date format (want YYYY-MM-DD)")
	// ErrDuplicateEntry reports a category or tag that is already present.
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrEmptyCollection reports a delete on an empty category or tag list.
	ErrEmptyCollection = errors.New("collection is empty")
	// ErrIndexOutOfBounds reports an index or character offset outside the valid range.
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	// ErrEmptyTitle reports a save attempted with a blank title.
	ErrEmptyTitle = errors.New("title is empty")
	// ErrUnsafeTitle reports a title that cannot be turned into a file name.
	ErrUnsafeTitle = errors.New("title is not a safe file name")
)

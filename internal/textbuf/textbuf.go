// Package textbuf gives a text-editing surface scoped access to a single
// string field it does not own. Offsets are in characters (runes), not bytes.
package textbuf

import (
	"fmt"
	"unicode/utf8"

	"github.com/starford/postconf/internal/apperr"
)

// Buffer edits a string through a get/set pair. It holds no copy of the
// text, so every call sees the owner's current value. A Buffer must not
// outlive its owner, and only one Buffer should edit a field at a time.
type Buffer struct {
	get func() string
	set func(string)
}

// New binds a Buffer to the field reached through get and set.
func New(get func() string, set func(string)) *Buffer {
	return &Buffer{get: get, set: set}
}

// String returns the current content.
func (b *Buffer) String() string {
	return b.get()
}

// Len returns the number of characters in the field.
func (b *Buffer) Len() int {
	return utf8.RuneCountInString(b.get())
}

// Insert places text before the character at offset at and returns the
// number of characters inserted. at may equal Len to append.
func (b *Buffer) Insert(text string, at int) (int, error) {
	cur := b.get()
	n := utf8.RuneCountInString(cur)
	if at < 0 || at > n {
		return 0, fmt.Errorf("insert at %d (length %d): %w", at, n, apperr.ErrIndexOutOfBounds)
	}
	i := byteOffset(cur, at)
	b.set(cur[:i] + text + cur[i:])
	return utf8.RuneCountInString(text), nil
}

// DeleteRange removes characters [start, end).
func (b *Buffer) DeleteRange(start, end int) error {
	cur := b.get()
	n := utf8.RuneCountInString(cur)
	if start < 0 || start > end || end > n {
		return fmt.Errorf("delete [%d, %d) (length %d): %w", start, end, n, apperr.ErrIndexOutOfBounds)
	}
	b.set(cur[:byteOffset(cur, start)] + cur[byteOffset(cur, end):])
	return nil
}

// Clear empties the field.
func (b *Buffer) Clear() {
	b.set("")
}

// Replace sets the field to exactly text.
func (b *Buffer) Replace(text string) {
	b.set(text)
}

// Take empties the field and returns what it held.
func (b *Buffer) Take() string {
	cur := b.get()
	b.set("")
	return cur
}

// byteOffset converts a character offset into a byte offset within s.
// The caller has already checked 0 <= char <= RuneCount(s).
func byteOffset(s string, char int) int {
	if char == 0 {
		return 0
	}
	seen := 0
	for i := range s {
		if seen == char {
			return i
		}
		seen++
	}
	return len(s)
}

// Package datefield parses and formats the publication date of a post.
// Only the fixed YYYY-MM-DD form is accepted.
package datefield

import (
	"fmt"
	"regexp"
	"time"

	"github.com/starford/postconf/internal/apperr"
)

// Layout is the only accepted date layout.
const Layout = "2006-01-02"

var shapeRe = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)

// Date is a calendar date without time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Of returns the calendar date of t in t's location.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the local calendar date.
func Today() Date {
	return Of(time.Now())
}

// Parse validates s against Layout and the calendar.
// "2024-1-05", "2024-13-01" and "2023-02-29" are all rejected.
func Parse(s string) (Date, error) {
	if !shapeRe.MatchString(s) {
		return Date{}, fmt.Errorf("%q: %w", s, apperr.ErrInvalidFormat)
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%q: %w", s, apperr.ErrInvalidFormat)
	}
	return Of(t), nil
}

// Format renders d using Layout.
func Format(d Date) string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return Format(d)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

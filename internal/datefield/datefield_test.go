package datefield

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/postconf/internal/apperr"
)

func TestParse_Valid(t *testing.T) {
	d, err := Parse("2024-01-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Date{Year: 2024, Month: time.January, Day: 5}
	if d != want {
		t.Errorf("date = %+v, want %+v", d, want)
	}
}

func TestParse_LeapDay(t *testing.T) {
	if _, err := Parse("2024-02-29"); err != nil {
		t.Errorf("2024-02-29 should be valid: %v", err)
	}
	if _, err := Parse("2023-02-29"); !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Errorf("2023-02-29 err = %v, want ErrInvalidFormat", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{
		"",
		"2024-1-05",
		"2024-01-5",
		"24-01-05",
		"2024/01/05",
		"2024-13-01",
		"2024-00-10",
		"2024-04-31",
		"2024-01-00",
		" 2024-01-05",
		"2024-01-05 ",
		"2024-01-05T00:00:00Z",
		"yesterday",
		"２０２４-01-05",
	}
	for _, s := range cases {
		if _, err := Parse(s); !errors.Is(err, apperr.ErrInvalidFormat) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidFormat", s, err)
		}
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	start := time.Date(1999, time.December, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3*366; i += 7 {
		d := Of(start.AddDate(0, 0, i))
		got, err := Parse(Format(d))
		if err != nil {
			t.Fatalf("Parse(Format(%v)): %v", d, err)
		}
		if got != d {
			t.Fatalf("round trip = %+v, want %+v", got, d)
		}
	}
}

func TestFormat_ZeroPadded(t *testing.T) {
	d := Date{Year: 987, Month: time.March, Day: 4}
	if got := Format(d); got != "0987-03-04" {
		t.Errorf("Format = %q", got)
	}
}

func TestToday_MatchesClock(t *testing.T) {
	before := Of(time.Now())
	got := Today()
	after := Of(time.Now())
	if got != before && got != after {
		t.Errorf("Today() = %v, want %v or %v", got, before, after)
	}
}

func TestTime(t *testing.T) {
	d := Date{Year: 2024, Month: time.January, Day: 5}
	tm := d.Time(time.UTC)
	if tm.Format(Layout) != "2024-01-05" || tm.Hour() != 0 {
		t.Errorf("Time = %v", tm)
	}
	if d.IsZero() || !(Date{}).IsZero() {
		t.Error("IsZero mismatch")
	}
}

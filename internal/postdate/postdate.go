// Package postdate normalizes free-form ISO-8601 timestamps from spreadsheet cells to UTC.
package postdate

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/textset/internal/domain"
)

// Fractional seconds are accepted after any seconds field without being named in the layout.
var layouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02T15Z07:00",
	"2006-01-02T15",
	"2006-01-02",
	"20060102T150405Z0700",
	"20060102T150405Z07",
	"20060102T150405",
	"20060102",
	"2006-01",
}

// ParseError reports a value no supported layout accepts.
type ParseError struct {
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid date format for post_date: %q", e.Value)
}

func (e *ParseError) Unwrap() error { return domain.ErrInvalidDate }

// Normalize parses raw as an ISO-8601 timestamp and returns the instant in UTC.
// Values without a zone are read as UTC.
func Normalize(raw string) (time.Time, error) {
	s := canonical(raw)
	if s == "" {
		return time.Time{}, &ParseError{Value: raw}
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ParseError{Value: raw}
}

// canonical trims raw, upper-cases the T and Z designators and turns a space
// date/time separator into T.
func canonical(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case 't':
			return 'T'
		case 'z':
			return 'Z'
		}
		return r
	}, s)
	if len(s) > 10 && s[10] == ' ' && s[4] == '-' {
		s = s[:10] + "T" + strings.TrimLeft(s[11:], " ")
	}
	// "+03:00" style offsets after a space ("2024-01-02T10:00:00 +03:00").
	if i := strings.LastIndexByte(s, ' '); i > 10 {
		s = s[:i] + s[i+1:]
	}
	return s
}

// Package natural turns loosely written dates ("next friday", "tomorrow")
// into the YYYY-MM-DD form records are stored with.
package natural

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const dateLayout = "2006-01-02"

// ErrNoDate is returned when the text contains nothing that reads as a date.
var ErrNoDate = errors.New("no date found")

var (
	parser     *when.Parser
	parserOnce sync.Once
)

func getParser() *when.Parser {
	parserOnce.Do(func() {
		parser = when.New(nil)
		parser.Add(en.All...)
		parser.Add(common.All...)
	})
	return parser
}

// Resolve returns the calendar date text refers to, relative to base, and
// its weekday name. ISO dates are taken as they are.
func Resolve(text string, base time.Time) (date, dayName string, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", ErrNoDate
	}

	if t, perr := time.ParseInLocation(dateLayout, text, base.Location()); perr == nil {
		return t.Format(dateLayout), t.Weekday().String(), nil
	}

	r, err := getParser().Parse(text, base)
	if err != nil {
		return "", "", fmt.Errorf("parse date %q: %w", text, err)
	}
	if r == nil {
		return "", "", fmt.Errorf("%w in %q", ErrNoDate, text)
	}
	return r.Time.Format(dateLayout), r.Time.Weekday().String(), nil
}

// DayName returns the weekday of an ISO date, or "" when date is not one.
func DayName(date string) string {
	t, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}

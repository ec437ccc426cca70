// Package format renders dates, amounts and counts for the en-IN locale.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// IST is India Standard Time
var IST = time.FixedZone("IST", 5*60*60+30*60)

const dateLayout = "2 Jan 2006, 03:04 pm"

// Formatter formats dates in a fixed location
type Formatter struct {
	loc *time.Location
}

// New returns a Formatter for loc; nil means IST
func New(loc *time.Location) *Formatter {
	if loc == nil {
		loc = IST
	}
	return &Formatter{loc: loc}
}

// Date formats t like "19 Oct 2026, 02:30 pm"
func (f *Formatter) Date(t time.Time) string {
	return t.In(f.loc).Format(dateLayout)
}

// DateString parses an RFC 3339 timestamp or a plain yyyy-mm-dd date and formats it
func (f *Formatter) DateString(s string) (string, error) {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, f.loc); err == nil {
			return f.Date(t), nil
		}
	}
	return "", fmt.Errorf("unrecognised date %q", s)
}

// Date formats t in IST
func Date(t time.Time) string {
	return New(IST).Date(t)
}

// Currency formats amount as Indian rupees, e.g. "₹1,23,456.78"
func Currency(amount float64) string {
	paise := int64(math.Round(math.Abs(amount) * 100))
	s := fmt.Sprintf("₹%s.%02d", group(uint64(paise/100)), paise%100)
	if amount < 0 && paise != 0 {
		return "-" + s
	}
	return s
}

// Number formats n with Indian digit grouping, e.g. "12,34,567"
func Number(n int64) string {
	if n < 0 {
		return "-" + group(uint64(-(n+1))+1)
	}
	return group(uint64(n))
}

// group inserts separators after the last three digits and then every two
func group(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}

	head, tail := s[:len(s)-3], s[len(s)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}

// Currency is the package-level Currency
func (f *Formatter) Currency(amount float64) string {
	return Currency(amount)
}

// Number is the package-level Number
func (f *Formatter) Number(n int64) string {
	return Number(n)
}

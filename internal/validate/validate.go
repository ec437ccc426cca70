// Package validate checks form values against per-field rules.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rule constrains a single field. Zero values disable a check.
type Rule struct {
	Required  bool
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	Min       *float64
	Max       *float64
}

// Rules maps field names to their rule
type Rules map[string]Rule

// Errors maps field names to a single message each
type Errors map[string]string

// Bound returns a pointer for Rule.Min and Rule.Max
func Bound(v float64) *float64 {
	return &v
}

// Valid reports whether no field failed
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Fields returns the failing field names in sorted order
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		msgs = append(msgs, e[f])
	}
	return strings.Join(msgs, "; ")
}

// Validate checks values against rules. A field missing from values is
// treated as empty. Each field reports the first rule it violates, in the
// order required, min length, max length, pattern, min, max. Empty
// optional fields are not checked further.
func Validate(values map[string]string, rules Rules) Errors {
	errs := Errors{}
	for field, rule := range rules {
		if msg := check(field, values[field], rule); msg != "" {
			errs[field] = msg
		}
	}
	return errs
}

func check(field, value string, rule Rule) string {
	if value == "" {
		if rule.Required {
			return fmt.Sprintf("%s is required", field)
		}
		return ""
	}

	length := utf8.RuneCountInString(value)
	if rule.MinLength > 0 && length < rule.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", field, rule.MinLength)
	}
	if rule.MaxLength > 0 && length > rule.MaxLength {
		return fmt.Sprintf("%s must not exceed %d characters", field, rule.MaxLength)
	}
	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		return fmt.Sprintf("%s format is invalid", field)
	}

	if rule.Min == nil && rule.Max == nil {
		return ""
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Sprintf("%s must be a number", field)
	}
	if rule.Min != nil && n < *rule.Min {
		return fmt.Sprintf("%s must be at least %s", field, formatBound(*rule.Min))
	}
	if rule.Max != nil && n > *rule.Max {
		return fmt.Sprintf("%s must not exceed %s", field, formatBound(*rule.Max))
	}
	return ""
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package admin

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/showroom-admin/backoffice/internal/shared"
)

// InputLayouts are the accepted timestamp formats, datetime-local first.
var InputLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FormLayout renders timestamps for datetime-local inputs.
const FormLayout = "2006-01-02T15:04"

// Input overlays submitted values onto current entity values. Every accessor
// returns current when the field was not submitted, so partial submissions
// (inline edits, views with hidden fields) leave other columns untouched.
type Input struct {
	values url.Values
	errs   shared.ValidationError
}

// NewInput wraps submitted values.
func NewInput(values url.Values) *Input {
	return &Input{values: values}
}

// Has reports whether name was submitted.
func (in *Input) Has(name string) bool {
	if _, ok := in.values[name]; ok {
		return true
	}
	_, ok := in.values[PresentMarker(name)]
	return ok
}

// String returns the trimmed submitted value.
func (in *Input) String(name, current string) string {
	if !in.Has(name) {
		return current
	}
	return strings.TrimSpace(in.values.Get(name))
}

// Bool reads a checkbox.
func (in *Input) Bool(name string, current bool) bool {
	if !in.Has(name) {
		return current
	}
	switch strings.ToLower(strings.TrimSpace(in.values.Get(name))) {
	case "1", "true", "on", "yes", "y":
		return true
	default:
		return false
	}
}

// ID reads a required reference id; empty yields 0.
func (in *Input) ID(name string, current int64) int64 {
	if !in.Has(name) {
		return current
	}
	id := in.OptionalID(name, nil)
	if id == nil {
		return 0
	}
	return *id
}

// OptionalID reads a nullable reference id.
func (in *Input) OptionalID(name string, current *int64) *int64 {
	if !in.Has(name) {
		return current
	}
	raw := strings.TrimSpace(in.values.Get(name))
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		in.errs.Add(name, "Not a valid choice")
		return current
	}
	return &id
}

// IDs reads a multi reference.
func (in *Input) IDs(name string, current []int64) []int64 {
	if !in.Has(name) {
		return current
	}
	var ids []int64
	for _, raw := range in.values[name] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				in.errs.Add(name, "Not a valid choice")
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids
}

// Time reads a nullable timestamp.
func (in *Input) Time(name string, current *time.Time) *time.Time {
	if !in.Has(name) {
		return current
	}
	raw := strings.TrimSpace(in.values.Get(name))
	if raw == "" {
		return nil
	}
	if t, ok := ParseTime(raw); ok {
		return &t
	}
	in.errs.Add(name, "Not a valid date/time")
	return current
}

// Err returns the conversion errors collected so far.
func (in *Input) Err() error {
	return in.errs.OrNil()
}

// ParseTime parses raw using InputLayouts in UTC.
func ParseTime(raw string) (time.Time, bool) {
	for _, layout := range InputLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders t for forms; nil yields "".
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(FormLayout)
}

// DisplayTime renders t for lists and details; nil yields "".
func DisplayTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("02 Jan 2006 15:04")
}

// FormatID renders an optional id.
func FormatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// JoinIDs renders ids as a comma separated list.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

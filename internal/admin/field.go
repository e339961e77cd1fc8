package admin

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FieldKind selects how a field is rendered and parsed.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindPassword FieldKind = "password"
	KindBool     FieldKind = "bool"
	KindDateTime FieldKind = "datetime"
	KindRef      FieldKind = "ref"
	KindRefMulti FieldKind = "ref_multi"
)

// Option is a selectable value of a reference field.
type Option struct {
	Value string
	Label string
}

// OptionsFunc loads the choices of a reference field.
type OptionsFunc func(ctx context.Context) ([]Option, error)

// Field describes one column of a resource.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	// ReadOnly fields are displayed but never offered in forms.
	ReadOnly bool
	MaxLen   int
	Options  OptionsFunc
}

// A cases.Caser keeps state between calls, so each render takes its own.
var titleCasers = sync.Pool{
	New: func() any { return cases.Title(language.English) },
}

// DisplayLabel returns Label or a title-cased form of Name.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	caser := titleCasers.Get().(cases.Caser)
	defer titleCasers.Put(caser)
	return caser.String(strings.ReplaceAll(f.Name, "_", " "))
}

// HasOptions reports whether the field renders as a select.
func (f Field) HasOptions() bool {
	return (f.Kind == KindRef || f.Kind == KindRefMulti) && f.Options != nil
}

// PresentMarker is posted alongside checkbox and multi-select inputs so an
// empty submission can be told apart from an absent field.
func PresentMarker(name string) string {
	return name + "__present"
}

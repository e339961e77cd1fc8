package admin

import (
	"slices"

	"github.com/showroom-admin/backoffice/internal/rbac"
)

// Policy declares who may use a view and which fields each surface shows.
type Policy struct {
	// Role grants access; superuser passes every policy.
	Role string

	CanCreate      bool
	CanEdit        bool
	CanDelete      bool
	CanExport      bool
	CanViewDetails bool

	ListExclude    []string
	DetailsExclude []string
	FormExclude    []string
	// EditExclude hides fields from the edit form only.
	EditExclude []string

	// Editable columns can be changed from the list, even when CanEdit is off.
	Editable   []string
	Searchable []string
	Filters    []string
}

// Allows reports whether p may open the view.
func (p Policy) Allows(principal *rbac.Principal) bool {
	return principal != nil && principal.HasRole(p.Role)
}

// ListFields returns the columns of the list and the CSV export.
func (p Policy) ListFields(fields []Field) []Field {
	return visible(fields, p.ListExclude, false)
}

// DetailFields returns the fields of the details page.
func (p Policy) DetailFields(fields []Field) []Field {
	return visible(fields, p.DetailsExclude, false)
}

// FormFields returns the inputs of the create or edit form.
func (p Policy) FormFields(fields []Field, editing bool) []Field {
	exclude := p.FormExclude
	if editing {
		exclude = append(slices.Clone(p.FormExclude), p.EditExclude...)
	}
	return visible(fields, exclude, true)
}

// InlineEditable reports whether name may be changed from the list.
func (p Policy) InlineEditable(fields []Field, name string) bool {
	if !slices.Contains(p.Editable, name) {
		return false
	}
	for _, f := range p.ListFields(fields) {
		if f.Name == name {
			return !f.ReadOnly
		}
	}
	return false
}

// SearchColumns returns the searchable columns that exist on the resource.
func (p Policy) SearchColumns(fields []Field) []string {
	return existing(fields, p.Searchable)
}

// FilterFields returns the filterable fields that exist on the resource.
func (p Policy) FilterFields(fields []Field) []Field {
	var out []Field
	for _, name := range p.Filters {
		for _, f := range fields {
			if f.Name == name && f.Kind != KindPassword {
				out = append(out, f)
			}
		}
	}
	return out
}

// visible drops excluded fields and password fields. Password fields survive
// only in forms, where they render as write-only inputs.
func visible(fields []Field, exclude []string, form bool) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if slices.Contains(exclude, f.Name) {
			continue
		}
		if f.Kind == KindPassword && !form {
			continue
		}
		if form && f.ReadOnly {
			continue
		}
		out = append(out, f)
	}
	return out
}

func existing(fields []Field, names []string) []string {
	var out []string
	for _, name := range names {
		for _, f := range fields {
			if f.Name == name && f.Kind != KindPassword {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

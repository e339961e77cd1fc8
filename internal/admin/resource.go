package admin

import (
	"context"
	"net/url"
	"strings"

	"github.com/showroom-admin/backoffice/internal/shared"
)

// Record is the generic representation of one entity row.
type Record struct {
	ID    int64
	Label string
	// Values holds the form representation keyed by field name. Multi
	// references are comma separated ids.
	Values map[string]string
	// Display overrides Values for human-facing output.
	Display map[string]string
}

// DisplayValue returns the human-facing value of field name.
func (r Record) DisplayValue(name string) string {
	if v, ok := r.Display[name]; ok {
		return v
	}
	return r.Values[name]
}

// MultiValue splits a multi-reference value into ids.
func (r Record) MultiValue(name string) []string {
	raw := strings.TrimSpace(r.Values[name])
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// Resource adapts one entity to the admin views.
type Resource interface {
	// Entity names the audited entity.
	Entity() string
	Fields() []Field
	List(ctx context.Context, q shared.ListQuery) ([]Record, int, error)
	Get(ctx context.Context, id int64) (Record, error)
	// Create and Update receive only the fields allowed by the view. Update
	// leaves fields absent from values unchanged.
	Create(ctx context.Context, values url.Values) (int64, error)
	Update(ctx context.Context, id int64, values url.Values) error
	Delete(ctx context.Context, id int64) error
}

package audit

import (
	"context"
	"net/url"

	"github.com/showroom-admin/backoffice/internal/admin"
	"github.com/showroom-admin/backoffice/internal/shared"
)

var (
	actionOptions = []admin.Option{
		{Value: shared.AuditCreate, Label: "Create"},
		{Value: shared.AuditUpdate, Label: "Update"},
		{Value: shared.AuditInline, Label: "Inline update"},
		{Value: shared.AuditDelete, Label: "Delete"},
	}
	entityOptions = []admin.Option{
		{Value: "role", Label: "Role"},
		{Value: "user", Label: "User"},
		{Value: "branch", Label: "Branch"},
		{Value: "car", Label: "Car"},
		{Value: "order", Label: "Order"},
		{Value: "seva_order", Label: "Seva order"},
		{Value: "m88_order", Label: "M88 order"},
		{Value: "qualified_order", Label: "Qualified order"},
	}
)

// Resource exposes the audit log to the admin.
type Resource struct {
	service *Service
}

// NewResource builds the admin adapter.
func NewResource(service *Service) *Resource {
	return &Resource{service: service}
}

// View returns the superuser-only, read-only audit view.
func (r *Resource) View() admin.View {
	return admin.View{
		Name:     "Audit Log",
		Endpoint: "audit",
		Resource: r,
		Policy: admin.Policy{
			Role:           shared.RoleSuperuser,
			CanExport:      true,
			CanViewDetails: true,
			ListExclude:    []string{"meta"},
			Searchable:     []string{"actor", "entity_id"},
			Filters:        []string{"action", "entity"},
		},
	}
}

func (r *Resource) Entity() string { return "audit_log" }

func (r *Resource) Fields() []admin.Field {
	return []admin.Field{
		{Name: "occurred_at", Label: "When", Kind: admin.KindDateTime, ReadOnly: true},
		{Name: "actor", Kind: admin.KindText, ReadOnly: true},
		{Name: "action", Kind: admin.KindRef, ReadOnly: true, Options: staticOptions(actionOptions)},
		{Name: "entity", Kind: admin.KindRef, ReadOnly: true, Options: staticOptions(entityOptions)},
		{Name: "entity_id", Label: "Record", Kind: admin.KindText, ReadOnly: true},
		{Name: "meta", Label: "Changes", Kind: admin.KindText, ReadOnly: true},
	}
}

func (r *Resource) List(ctx context.Context, q shared.ListQuery) ([]admin.Record, int, error) {
	items, total, err := r.service.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]admin.Record, len(items))
	for i, e := range items {
		out[i] = record(e)
	}
	return out, total, nil
}

func (r *Resource) Get(ctx context.Context, id int64) (admin.Record, error) {
	e, err := r.service.Get(ctx, id)
	if err != nil {
		return admin.Record{}, err
	}
	return record(e), nil
}

func (r *Resource) Create(context.Context, url.Values) (int64, error) { return 0, ErrReadOnly }

func (r *Resource) Update(context.Context, int64, url.Values) error { return ErrReadOnly }

func (r *Resource) Delete(context.Context, int64) error { return ErrReadOnly }

func staticOptions(opts []admin.Option) admin.OptionsFunc {
	return func(context.Context) ([]admin.Option, error) { return opts, nil }
}

func record(e Entry) admin.Record {
	actor := e.ActorEmail
	if actor == "" && e.ActorID != nil {
		actor = "#" + admin.FormatID(e.ActorID)
	}
	return admin.Record{
		ID:    e.ID,
		Label: e.Entity + " #" + e.EntityID,
		Values: map[string]string{
			"occurred_at": admin.FormatTime(&e.OccurredAt),
			"actor":       actor,
			"action":      e.Action,
			"entity":      e.Entity,
			"entity_id":   e.EntityID,
			"meta":        e.Meta,
		},
		Display: map[string]string{
			"occurred_at": admin.DisplayTime(&e.OccurredAt),
			"action":      label(actionOptions, e.Action),
			"entity":      label(entityOptions, e.Entity),
		},
	}
}

func label(opts []admin.Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

var _ admin.Resource = (*Resource)(nil)

package roles

import (
	"context"
	"net/url"

	"github.com/showroom-admin/backoffice/internal/admin"
	"github.com/showroom-admin/backoffice/internal/shared"
)

// Resource exposes roles to the admin.
type Resource struct {
	service *Service
}

// NewResource builds the admin adapter.
func NewResource(service *Service) *Resource {
	return &Resource{service: service}
}

// View returns the superuser-only roles view.
func (r *Resource) View() admin.View {
	return admin.View{
		Name:     "Roles",
		Endpoint: "roles",
		Resource: r,
		Policy: admin.Policy{
			Role:           shared.RoleSuperuser,
			CanCreate:      true,
			CanEdit:        true,
			CanDelete:      true,
			CanExport:      true,
			CanViewDetails: true,
			Searchable:     []string{"name", "description"},
		},
	}
}

func (r *Resource) Entity() string { return "role" }

func (r *Resource) Fields() []admin.Field {
	return []admin.Field{
		{Name: "name", Kind: admin.KindText, Required: true, MaxLen: 80},
		{Name: "description", Kind: admin.KindText, MaxLen: 255},
	}
}

func (r *Resource) List(ctx context.Context, q shared.ListQuery) ([]admin.Record, int, error) {
	items, total, err := r.service.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]admin.Record, len(items))
	for i, role := range items {
		out[i] = record(role)
	}
	return out, total, nil
}

func (r *Resource) Get(ctx context.Context, id int64) (admin.Record, error) {
	role, err := r.service.Get(ctx, id)
	if err != nil {
		return admin.Record{}, err
	}
	return record(role), nil
}

func (r *Resource) Create(ctx context.Context, values url.Values) (int64, error) {
	form, err := formFrom(values, Role{})
	if err != nil {
		return 0, err
	}
	return r.service.Create(ctx, form)
}

func (r *Resource) Update(ctx context.Context, id int64, values url.Values) error {
	current, err := r.service.Get(ctx, id)
	if err != nil {
		return err
	}
	form, err := formFrom(values, current)
	if err != nil {
		return err
	}
	return r.service.Update(ctx, id, form)
}

func (r *Resource) Delete(ctx context.Context, id int64) error {
	return r.service.Delete(ctx, id)
}

// Options lists roles for multi-select inputs.
func (r *Resource) Options(ctx context.Context) ([]admin.Option, error) {
	items, _, err := r.service.List(ctx, shared.ListQuery{})
	if err != nil {
		return nil, err
	}
	out := make([]admin.Option, len(items))
	for i, role := range items {
		out[i] = admin.Option{Value: admin.FormatID(&role.ID), Label: role.Name}
	}
	return out, nil
}

func formFrom(values url.Values, current Role) (RoleForm, error) {
	in := admin.NewInput(values)
	form := RoleForm{
		Name:        in.String("name", current.Name),
		Description: in.String("description", current.Description),
	}
	return form, in.Err()
}

func record(role Role) admin.Record {
	return admin.Record{
		ID:    role.ID,
		Label: role.Name,
		Values: map[string]string{
			"name":        role.Name,
			"description": role.Description,
		},
	}
}

var _ admin.Resource = (*Resource)(nil)

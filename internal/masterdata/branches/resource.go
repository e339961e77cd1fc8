package branches

import (
	"context"
	"net/url"
	"strconv"

	"github.com/showroom-admin/backoffice/internal/admin"
	"github.com/showroom-admin/backoffice/internal/shared"
)

// Resource exposes branches to the admin.
type Resource struct {
	service *Service
}

func NewResource(service *Service) *Resource {
	return &Resource{service: service}
}

// View returns the superuser-only branches view.
func (r *Resource) View() admin.View {
	return admin.View{
		Name:     "Branches",
		Endpoint: "branches",
		Resource: r,
		Policy: admin.Policy{
			Role:           shared.RoleSuperuser,
			CanCreate:      true,
			CanEdit:        true,
			CanDelete:      true,
			CanExport:      true,
			CanViewDetails: true,
			Editable:       []string{"code"},
			Searchable:     []string{"code", "description"},
			Filters:        []string{"code"},
		},
	}
}

func (r *Resource) Entity() string { return "branch" }

func (r *Resource) Fields() []admin.Field {
	return []admin.Field{
		{Name: "code", Label: "Branch Code", Kind: admin.KindText, Required: true, MaxLen: 10},
		{Name: "description", Label: "Branch Description", Kind: admin.KindText, MaxLen: 50},
	}
}

func (r *Resource) List(ctx context.Context, q shared.ListQuery) ([]admin.Record, int, error) {
	items, total, err := r.service.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]admin.Record, len(items))
	for i, b := range items {
		out[i] = toRecord(b)
	}
	return out, total, nil
}

func (r *Resource) Get(ctx context.Context, id int64) (admin.Record, error) {
	b, err := r.service.Get(ctx, id)
	if err != nil {
		return admin.Record{}, err
	}
	return toRecord(b), nil
}

func (r *Resource) Create(ctx context.Context, values url.Values) (int64, error) {
	in := admin.NewInput(values)
	form := BranchForm{Code: in.String("code", ""), Description: in.String("description", "")}
	b, err := r.service.Create(ctx, form)
	return b.ID, err
}

func (r *Resource) Update(ctx context.Context, id int64, values url.Values) error {
	current, err := r.service.Get(ctx, id)
	if err != nil {
		return err
	}
	in := admin.NewInput(values)
	form := BranchForm{
		Code:        in.String("code", current.Code),
		Description: in.String("description", current.Description),
	}
	return r.service.Update(ctx, id, form)
}

func (r *Resource) Delete(ctx context.Context, id int64) error {
	return r.service.Delete(ctx, id)
}

// Options lists branches for reference selects.
func (r *Resource) Options(ctx context.Context) ([]admin.Option, error) {
	items, _, err := r.service.List(ctx, shared.ListQuery{})
	if err != nil {
		return nil, err
	}
	out := make([]admin.Option, len(items))
	for i, b := range items {
		out[i] = admin.Option{Value: strconv.FormatInt(b.ID, 10), Label: b.Code + " · " + b.Label()}
	}
	return out, nil
}

func toRecord(b Branch) admin.Record {
	return admin.Record{
		ID:     b.ID,
		Label:  b.Label(),
		Values: map[string]string{"code": b.Code, "description": b.Description},
	}
}

var _ admin.Resource = (*Resource)(nil)

package cars

import (
	"context"
	"net/url"
	"strconv"

	"github.com/showroom-admin/backoffice/internal/admin"
	"github.com/showroom-admin/backoffice/internal/shared"
)

// Resource exposes cars to the admin.
type Resource struct {
	service  *Service
	branches admin.OptionsFunc
}

func NewResource(service *Service, branches admin.OptionsFunc) *Resource {
	return &Resource{service: service, branches: branches}
}

// View returns the superuser-only cars view. Plate and branch can be
// reassigned from the list.
func (r *Resource) View() admin.View {
	return admin.View{
		Name:     "Cars",
		Endpoint: "cars",
		Resource: r,
		Policy: admin.Policy{
			Role:           shared.RoleSuperuser,
			CanCreate:      true,
			CanEdit:        true,
			CanDelete:      true,
			CanExport:      true,
			CanViewDetails: true,
			Editable:       []string{"plate_no", "branch"},
			Searchable:     []string{"brand", "model", "variant", "plate_no"},
			Filters:        []string{"brand", "model", "variant", "fuel", "transmission"},
		},
	}
}

func (r *Resource) Entity() string { return "car" }

func (r *Resource) Fields() []admin.Field {
	return []admin.Field{
		{Name: "brand", Kind: admin.KindText, MaxLen: 50},
		{Name: "model", Label: "Type", Kind: admin.KindText, MaxLen: 50},
		{Name: "variant", Kind: admin.KindText, MaxLen: 50},
		{Name: "fuel", Kind: admin.KindText, MaxLen: 50},
		{Name: "transmission", Kind: admin.KindText, MaxLen: 50},
		{Name: "plate_no", Label: "Plate No", Kind: admin.KindText, MaxLen: 15},
		{Name: "branch", Kind: admin.KindRef, Required: true, Options: r.branches},
	}
}

func (r *Resource) List(ctx context.Context, q shared.ListQuery) ([]admin.Record, int, error) {
	items, total, err := r.service.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]admin.Record, len(items))
	for i, c := range items {
		out[i] = toRecord(c)
	}
	return out, total, nil
}

func (r *Resource) Get(ctx context.Context, id int64) (admin.Record, error) {
	c, err := r.service.Get(ctx, id)
	if err != nil {
		return admin.Record{}, err
	}
	return toRecord(c), nil
}

func (r *Resource) Create(ctx context.Context, values url.Values) (int64, error) {
	form, err := formFrom(values, Car{})
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

// Options lists cars for order forms.
func (r *Resource) Options(ctx context.Context) ([]admin.Option, error) {
	items, _, err := r.service.List(ctx, shared.ListQuery{})
	if err != nil {
		return nil, err
	}
	out := make([]admin.Option, len(items))
	for i, c := range items {
		out[i] = admin.Option{Value: strconv.FormatInt(c.ID, 10), Label: c.Label()}
	}
	return out, nil
}

func formFrom(values url.Values, current Car) (CarForm, error) {
	in := admin.NewInput(values)
	form := CarForm{
		Brand:        in.String("brand", current.Brand),
		Model:        in.String("model", current.Model),
		Variant:      in.String("variant", current.Variant),
		Fuel:         in.String("fuel", current.Fuel),
		Transmission: in.String("transmission", current.Transmission),
		PlateNo:      in.String("plate_no", current.PlateNo),
		BranchID:     in.ID("branch", current.BranchID),
	}
	return form, in.Err()
}

func toRecord(c Car) admin.Record {
	return admin.Record{
		ID:    c.ID,
		Label: c.Label(),
		Values: map[string]string{
			"brand":        c.Brand,
			"model":        c.Model,
			"variant":      c.Variant,
			"fuel":         c.Fuel,
			"transmission": c.Transmission,
			"plate_no":     c.PlateNo,
			"branch":       strconv.FormatInt(c.BranchID, 10),
		},
		Display: map[string]string{"branch": c.BranchCode},
	}
}

var _ admin.Resource = (*Resource)(nil)

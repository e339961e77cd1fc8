package users

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/showroom-admin/backoffice/internal/admin"
	"github.com/showroom-admin/backoffice/internal/shared"
)

// Resource exposes users to the admin.
type Resource struct {
	service *Service
	roles   admin.OptionsFunc
}

// NewResource builds the admin adapter. roles feeds the role multi-select.
func NewResource(service *Service, roles admin.OptionsFunc) *Resource {
	return &Resource{service: service, roles: roles}
}

// View returns the superuser-only users view. Names and email can be fixed
// straight from the list.
func (r *Resource) View() admin.View {
	return admin.View{
		Name:     "Users",
		Endpoint: "users",
		Resource: r,
		Policy: admin.Policy{
			Role:           shared.RoleSuperuser,
			CanCreate:      true,
			CanEdit:        true,
			CanDelete:      true,
			CanExport:      true,
			CanViewDetails: true,
			Editable:       []string{"email", "first_name", "last_name"},
			Searchable:     []string{"email", "first_name", "last_name"},
			Filters:        []string{"email", "first_name", "last_name", "active"},
		},
	}
}

func (r *Resource) Entity() string { return "user" }

func (r *Resource) Fields() []admin.Field {
	return []admin.Field{
		{Name: "first_name", Kind: admin.KindText, MaxLen: 255},
		{Name: "last_name", Kind: admin.KindText, MaxLen: 255},
		{Name: "email", Kind: admin.KindEmail, Required: true, MaxLen: 255},
		{Name: "password", Kind: admin.KindPassword},
		{Name: "active", Kind: admin.KindBool},
		{Name: "confirmed_at", Kind: admin.KindDateTime},
		{Name: "roles", Kind: admin.KindRefMulti, Options: r.roles},
	}
}

func (r *Resource) List(ctx context.Context, q shared.ListQuery) ([]admin.Record, int, error) {
	items, total, err := r.service.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]admin.Record, len(items))
	for i, u := range items {
		out[i] = toRecord(u)
	}
	return out, total, nil
}

func (r *Resource) Get(ctx context.Context, id int64) (admin.Record, error) {
	u, err := r.service.Get(ctx, id)
	if err != nil {
		return admin.Record{}, err
	}
	return toRecord(u), nil
}

func (r *Resource) Create(ctx context.Context, values url.Values) (int64, error) {
	form, err := formFrom(values, User{Active: true})
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

// Options lists users for salesperson selects.
func (r *Resource) Options(ctx context.Context) ([]admin.Option, error) {
	items, _, err := r.service.List(ctx, shared.ListQuery{SortBy: "email"})
	if err != nil {
		return nil, err
	}
	out := make([]admin.Option, len(items))
	for i, u := range items {
		out[i] = admin.Option{Value: strconv.FormatInt(u.ID, 10), Label: u.DisplayName()}
	}
	return out, nil
}

func formFrom(values url.Values, current User) (UserForm, error) {
	in := admin.NewInput(values)
	form := UserForm{
		FirstName:   in.String("first_name", current.FirstName),
		LastName:    in.String("last_name", current.LastName),
		Email:       in.String("email", current.Email),
		Password:    values.Get("password"),
		Active:      in.Bool("active", current.Active),
		ConfirmedAt: in.Time("confirmed_at", current.ConfirmedAt),
		RoleIDs:     in.IDs("roles", current.RoleIDs),
	}
	return form, in.Err()
}

func toRecord(u User) admin.Record {
	return admin.Record{
		ID:    u.ID,
		Label: u.Email,
		Values: map[string]string{
			"first_name":   u.FirstName,
			"last_name":    u.LastName,
			"email":        u.Email,
			"active":       strconv.FormatBool(u.Active),
			"confirmed_at": admin.FormatTime(u.ConfirmedAt),
			"roles":        admin.JoinIDs(u.RoleIDs),
		},
		Display: map[string]string{
			"active":       yesNo(u.Active),
			"confirmed_at": admin.DisplayTime(u.ConfirmedAt),
			"roles":        strings.Join(u.RoleNames, ", "),
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

var _ admin.Resource = (*Resource)(nil)

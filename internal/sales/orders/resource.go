package orders

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/showroom-admin/backoffice/internal/admin"
	"github.com/showroom-admin/backoffice/internal/shared"
)

// Refs feeds the reference selects of order forms.
type Refs struct {
	Users    admin.OptionsFunc
	Cars     admin.OptionsFunc
	Branches admin.OptionsFunc
}

// Resource exposes the orders of one kind to the admin. The KindOrder
// resource lists every kind and creates plain orders.
type Resource struct {
	service *Service
	kind    Kind
	refs    Refs
}

func NewResource(service *Service, kind Kind, refs Refs) *Resource {
	return &Resource{service: service, kind: kind, refs: refs}
}

// View returns the admin view of the resource's kind.
func (r *Resource) View() admin.View {
	v := admin.View{Resource: r}
	p := admin.Policy{
		CanCreate:      true,
		CanEdit:        true,
		CanDelete:      true,
		CanExport:      true,
		CanViewDetails: true,
	}
	switch r.kind {
	case KindSeva:
		v.Name, v.Endpoint = "Seva Orders", "sevaorders"
		p.Role = shared.RoleSeva
		p.Editable = []string{"customer_name", "customer_address", "customer_phone"}
		p.ListExclude = []string{"user", "qualified"}
	case KindM88:
		v.Name, v.Endpoint = "M88 Orders", "m88orders"
		p.Role = shared.RoleM88
		p.CanEdit = false
		p.Editable = []string{"customer_name", "customer_address", "customer_phone", "branch"}
		p.ListExclude = []string{"user", "source", "qualified"}
	case KindQualified:
		v.Name, v.Endpoint = "Qualified Orders", "qualifiedorders"
		p.Role = shared.RoleSales
		p.CanEdit = false
		p.Editable = []string{"received_at", "updated_stage_at", "appointment_at", "walkin_at"}
	default:
		v.Name, v.Endpoint = "Orders", "orders"
		p.Role = shared.RoleSuperuser
		p.Editable = []string{"user"}
		p.EditExclude = []string{"customer_name"}
		p.Searchable = []string{"customer_name", "customer_phone"}
		p.Filters = []string{"user", "kind"}
		v.Policy = p
		return v
	}
	p.DetailsExclude = p.ListExclude
	p.FormExclude = p.ListExclude
	p.Searchable = p.Editable
	p.Filters = p.Editable
	v.Policy = p
	return v
}

func (r *Resource) Entity() string { return string(r.kind) }

// listKind is the kind filter of list, get and delete.
func (r *Resource) listKind() Kind {
	if r.kind == KindOrder {
		return ""
	}
	return r.kind
}

// channelField names the channel order id field of the kind.
func (r *Resource) channelField() string {
	switch r.kind {
	case KindSeva:
		return "seva_order_id"
	case KindM88:
		return "m88_order_id"
	}
	return ""
}

func (r *Resource) Fields() []admin.Field {
	var fields []admin.Field
	if r.kind == KindOrder {
		fields = append(fields, admin.Field{Name: "kind", Label: "Type", Kind: admin.KindText, ReadOnly: true})
	}
	fields = append(fields,
		admin.Field{Name: "order_date", Kind: admin.KindDateTime},
		admin.Field{Name: "source", Kind: admin.KindText, MaxLen: 20},
		admin.Field{Name: "customer_name", Kind: admin.KindText, MaxLen: 50},
		admin.Field{Name: "customer_address", Kind: admin.KindText, MaxLen: 50},
		admin.Field{Name: "customer_phone", Kind: admin.KindText, MaxLen: 13},
		admin.Field{Name: "user", Label: "Sales", Kind: admin.KindRef, Options: r.refs.Users},
		admin.Field{Name: "car", Kind: admin.KindRef, Required: true, Options: r.refs.Cars},
	)
	if r.kind != KindQualified {
		fields = append(fields, admin.Field{Name: "qualified", Label: "Qualified Order", Kind: admin.KindRef, Options: r.qualifiedOptions})
	}
	fields = append(fields, admin.Field{Name: "branch", Kind: admin.KindRef, Options: r.refs.Branches})

	switch r.kind {
	case KindSeva:
		fields = append(fields,
			admin.Field{Name: "seva_order_id", Label: "Seva Order ID", Kind: admin.KindText, MaxLen: 50},
			admin.Field{Name: "event", Kind: admin.KindText, MaxLen: 50},
			admin.Field{Name: "voucher_code", Kind: admin.KindText, MaxLen: 50},
			admin.Field{Name: "bundling", Kind: admin.KindText, MaxLen: 50},
		)
	case KindM88:
		fields = append(fields,
			admin.Field{Name: "m88_order_id", Label: "M88 Order ID", Kind: admin.KindText, MaxLen: 50},
			admin.Field{Name: "appointment_at", Label: "Appointment", Kind: admin.KindDateTime},
		)
	case KindQualified:
		fields = append(fields,
			admin.Field{Name: "received_at", Label: "Receive", Kind: admin.KindDateTime},
			admin.Field{Name: "updated_stage_at", Label: "Update", Kind: admin.KindDateTime},
			admin.Field{Name: "appointment_at", Label: "Appointment", Kind: admin.KindDateTime},
			admin.Field{Name: "walkin_at", Label: "Walkin", Kind: admin.KindDateTime},
			admin.Field{Name: "orders", Kind: admin.KindText, ReadOnly: true},
		)
	}
	return fields
}

func (r *Resource) List(ctx context.Context, q shared.ListQuery) ([]admin.Record, int, error) {
	items, total, err := r.service.List(ctx, r.listKind(), q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]admin.Record, len(items))
	for i, o := range items {
		out[i] = r.toRecord(o)
	}
	return out, total, nil
}

func (r *Resource) Get(ctx context.Context, id int64) (admin.Record, error) {
	o, err := r.service.Get(ctx, r.listKind(), id)
	if err != nil {
		return admin.Record{}, err
	}
	return r.toRecord(o), nil
}

func (r *Resource) Create(ctx context.Context, values url.Values) (int64, error) {
	form, err := r.formFrom(values, Order{Kind: r.kind})
	if err != nil {
		return 0, err
	}
	id, err := r.service.Create(ctx, r.kind, form)
	return id, r.renameChannel(err)
}

func (r *Resource) Update(ctx context.Context, id int64, values url.Values) error {
	current, err := r.service.Get(ctx, r.listKind(), id)
	if err != nil {
		return err
	}
	form, err := r.formFrom(values, current.Order)
	if err != nil {
		return err
	}
	return r.renameChannel(r.service.Update(ctx, current.Kind, id, form))
}

func (r *Resource) Delete(ctx context.Context, id int64) error {
	return r.service.Delete(ctx, r.listKind(), id)
}

func (r *Resource) qualifiedOptions(ctx context.Context) ([]admin.Option, error) {
	items, _, err := r.service.List(ctx, KindQualified, shared.ListQuery{})
	if err != nil {
		return nil, err
	}
	out := make([]admin.Option, len(items))
	for i, o := range items {
		out[i] = admin.Option{Value: strconv.FormatInt(o.ID, 10), Label: "#" + strconv.FormatInt(o.ID, 10) + " " + o.Label()}
	}
	return out, nil
}

func (r *Resource) formFrom(values url.Values, current Order) (OrderForm, error) {
	in := admin.NewInput(values)
	form := FormOf(current)
	form.OrderDate = in.Time("order_date", current.OrderDate)
	form.Source = in.String("source", current.Source)
	form.CustomerName = in.String("customer_name", current.CustomerName)
	form.CustomerAddress = in.String("customer_address", current.CustomerAddress)
	form.CustomerPhone = in.String("customer_phone", current.CustomerPhone)
	form.UserID = in.OptionalID("user", current.UserID)
	form.CarID = in.ID("car", current.CarID)
	form.BranchID = in.OptionalID("branch", current.BranchID)
	if r.kind != KindQualified {
		form.QualifiedID = in.OptionalID("qualified", current.QualifiedID)
	}
	switch r.kind {
	case KindSeva, KindM88:
		form.ChannelOrderID = in.String(r.channelField(), current.ChannelOrderID)
	}
	switch r.kind {
	case KindSeva:
		form.Event = in.String("event", current.Event)
		form.VoucherCode = in.String("voucher_code", current.VoucherCode)
		form.Bundling = in.String("bundling", current.Bundling)
	case KindM88:
		form.AppointmentAt = in.Time("appointment_at", current.AppointmentAt)
	case KindQualified:
		form.ReceivedAt = in.Time("received_at", current.ReceivedAt)
		form.UpdatedStageAt = in.Time("updated_stage_at", current.UpdatedStageAt)
		form.AppointmentAt = in.Time("appointment_at", current.AppointmentAt)
		form.WalkinAt = in.Time("walkin_at", current.WalkinAt)
	}
	return form, in.Err()
}

// renameChannel reports channel order id errors under the view's field name.
func (r *Resource) renameChannel(err error) error {
	field := r.channelField()
	var vErr *shared.ValidationError
	if field == "" || !errors.As(err, &vErr) {
		return err
	}
	if msg, ok := vErr.Fields["channel_order_id"]; ok {
		delete(vErr.Fields, "channel_order_id")
		vErr.Add(field, msg)
	}
	return vErr
}

func (r *Resource) toRecord(o OrderWithDetails) admin.Record {
	rec := admin.Record{
		ID:    o.ID,
		Label: o.Label(),
		Values: map[string]string{
			"kind":             string(o.Kind),
			"order_date":       admin.FormatTime(o.OrderDate),
			"source":           o.Source,
			"customer_name":    o.CustomerName,
			"customer_address": o.CustomerAddress,
			"customer_phone":   o.CustomerPhone,
			"user":             admin.FormatID(o.UserID),
			"car":              strconv.FormatInt(o.CarID, 10),
			"qualified":        admin.FormatID(o.QualifiedID),
			"branch":           admin.FormatID(o.BranchID),
		},
		Display: map[string]string{
			"order_date": admin.DisplayTime(o.OrderDate),
			"user":       o.UserName,
			"car":        o.CarLabel,
			"qualified":  o.QualifiedLabel,
			"branch":     o.BranchCode,
		},
	}
	if field := r.channelField(); field != "" {
		rec.Values[field] = o.ChannelOrderID
	}
	times := map[string]*time.Time{}
	switch r.kind {
	case KindSeva:
		rec.Values["event"] = o.Event
		rec.Values["voucher_code"] = o.VoucherCode
		rec.Values["bundling"] = o.Bundling
	case KindM88:
		times["appointment_at"] = o.AppointmentAt
	case KindQualified:
		times["received_at"] = o.ReceivedAt
		times["updated_stage_at"] = o.UpdatedStageAt
		times["appointment_at"] = o.AppointmentAt
		times["walkin_at"] = o.WalkinAt
		rec.Values["orders"] = strconv.Itoa(o.GroupedOrders)
	}
	for name, t := range times {
		rec.Values[name] = admin.FormatTime(t)
		rec.Display[name] = admin.DisplayTime(t)
	}
	return rec
}

var _ admin.Resource = (*Resource)(nil)

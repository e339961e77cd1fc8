package orders

import (
	"context"
	"net/url"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showroom-admin/backoffice/internal/admin"
	"github.com/showroom-admin/backoffice/internal/shared"
)

type stubRepo struct {
	orders map[int64]OrderWithDetails
	refs   map[Ref]map[int64]bool
	nextID int64
}

func newStubRepo(orders ...Order) *stubRepo {
	s := &stubRepo{
		orders: make(map[int64]OrderWithDetails),
		refs: map[Ref]map[int64]bool{
			RefCar:       {1: true, 2: true},
			RefBranch:    {1: true},
			RefUser:      {10: true},
			RefQualified: {},
		},
	}
	for _, o := range orders {
		s.put(o)
	}
	return s
}

func (s *stubRepo) put(o Order) {
	s.orders[o.ID] = OrderWithDetails{Order: o}
	if o.Kind == KindQualified {
		s.refs[RefQualified][o.ID] = true
	}
	s.nextID = max(s.nextID, o.ID)
}

func (s *stubRepo) List(_ context.Context, kind Kind, _ shared.ListQuery) ([]OrderWithDetails, int, error) {
	var out []OrderWithDetails
	for _, o := range s.orders {
		if kind == "" || o.Kind == kind {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *stubRepo) Get(_ context.Context, kind Kind, id int64) (OrderWithDetails, error) {
	o, ok := s.orders[id]
	if !ok || (kind != "" && o.Kind != kind) {
		return OrderWithDetails{}, shared.ErrNotFound
	}
	return o, nil
}

func (s *stubRepo) Exists(_ context.Context, ref Ref, id int64) (bool, error) {
	return s.refs[ref][id], nil
}

func (s *stubRepo) Create(_ context.Context, o Order) (int64, error) {
	o.ID = s.nextID + 1
	s.put(o)
	return o.ID, nil
}

func (s *stubRepo) Update(_ context.Context, o Order) error {
	cur, ok := s.orders[o.ID]
	if !ok || cur.Kind != o.Kind {
		return shared.ErrNotFound
	}
	s.put(o)
	return nil
}

func (s *stubRepo) Delete(_ context.Context, kind Kind, id int64) error {
	o, ok := s.orders[id]
	if !ok || (kind != "" && o.Kind != kind) {
		return shared.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	return vErr.Fields
}

func TestCreateOrderRequiresCar(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), KindOrder, OrderForm{CustomerName: "Budi"})

	assert.Equal(t, "This field is required", fieldErrors(t, err)["car"])
	assert.Empty(t, repo.orders)
}

func TestCreateOrderRejectsUnknownReferences(t *testing.T) {
	svc := NewService(newStubRepo())
	user, branch := int64(99), int64(42)

	_, err := svc.Create(context.Background(), KindOrder, OrderForm{CarID: 7, UserID: &user, BranchID: &branch})

	fields := fieldErrors(t, err)
	assert.Equal(t, invalidChoice, fields["car"])
	assert.Equal(t, invalidChoice, fields["user"])
	assert.Equal(t, invalidChoice, fields["branch"])
}

func TestCreateOrderWithValidCar(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	date := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	id, err := svc.Create(context.Background(), KindOrder, OrderForm{
		CarID:        1,
		CustomerName: " Budi ",
		OrderDate:    &date,
		Source:       "walk in",
		Event:        "ignored for plain orders",
	})

	require.NoError(t, err)
	o := repo.orders[id]
	assert.Equal(t, KindOrder, o.Kind)
	assert.Equal(t, "Budi", o.CustomerName)
	assert.Equal(t, "walk in", o.Source)
	assert.Empty(t, o.Event)
}

func TestChannelSourcePinning(t *testing.T) {
	cases := []struct {
		kind   Kind
		source string
		want   string
		ok     bool
	}{
		{KindSeva, "", SourceSeva, true},
		{KindSeva, "SEVA", SourceSeva, true},
		{KindSeva, "m88", "", false},
		{KindM88, "", SourceM88, true},
		{KindM88, "seva", "", false},
		{KindQualified, "", SourceSales, true},
		{KindQualified, "sales", SourceSales, true},
		{KindQualified, "web", "", false},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind)+"/"+tc.source, func(t *testing.T) {
			repo := newStubRepo()
			svc := NewService(repo)

			id, err := svc.Create(context.Background(), tc.kind, OrderForm{CarID: 1, Source: tc.source})

			if !tc.ok {
				assert.Equal(t, "Must be "+tc.kind.ChannelSource(), fieldErrors(t, err)["source"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, repo.orders[id].Source)
		})
	}
}

func TestQualifiedReferenceMustBeQualifiedOrder(t *testing.T) {
	repo := newStubRepo(
		Order{ID: 1, Kind: KindQualified, CarID: 1, Source: SourceSales},
		Order{ID: 2, Kind: KindSeva, CarID: 1, Source: SourceSeva},
	)
	svc := NewService(repo)
	qualified, seva := int64(1), int64(2)

	_, err := svc.Create(context.Background(), KindOrder, OrderForm{CarID: 1, QualifiedID: &seva})
	assert.Equal(t, invalidChoice, fieldErrors(t, err)["qualified"])

	id, err := svc.Create(context.Background(), KindOrder, OrderForm{CarID: 1, QualifiedID: &qualified})
	require.NoError(t, err)
	assert.Equal(t, &qualified, repo.orders[id].QualifiedID)

	err = svc.Update(context.Background(), KindQualified, 1, OrderForm{CarID: 1, QualifiedID: &qualified})
	assert.Contains(t, fieldErrors(t, err), "qualified")
}

func TestUnknownKindIsRejected(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.Create(context.Background(), Kind("lease"), OrderForm{CarID: 1})

	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestQualifiedInlineUpdateKeepsOtherColumns(t *testing.T) {
	received := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	branch := int64(1)
	repo := newStubRepo(Order{
		ID: 5, Kind: KindQualified, CarID: 2, Source: SourceSales, CustomerName: "Sari",
		BranchID: &branch, ReceivedAt: &received,
	})
	res := NewResource(NewService(repo), KindQualified, Refs{})

	require.NoError(t, res.Update(context.Background(), 5, url.Values{"walkin_at": {"2024-02-01T09:30"}}))

	o := repo.orders[5]
	require.NotNil(t, o.WalkinAt)
	assert.Equal(t, time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC), *o.WalkinAt)
	assert.Equal(t, &received, o.ReceivedAt)
	assert.Equal(t, "Sari", o.CustomerName)
	assert.Equal(t, int64(2), o.CarID)
	assert.Equal(t, &branch, o.BranchID)
}

func TestChannelViewsDoNotSeeOtherKinds(t *testing.T) {
	repo := newStubRepo(
		Order{ID: 1, Kind: KindSeva, CarID: 1, Source: SourceSeva},
		Order{ID: 2, Kind: KindM88, CarID: 1, Source: SourceM88},
	)
	svc := NewService(repo)
	seva := NewResource(svc, KindSeva, Refs{})
	all := NewResource(svc, KindOrder, Refs{})

	records, total, err := seva.List(context.Background(), shared.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(1), records[0].ID)

	_, err = seva.Get(context.Background(), 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, seva.Delete(context.Background(), 2), shared.ErrNotFound)

	_, total, err = all.List(context.Background(), shared.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestBaseViewEditKeepsChannelKind(t *testing.T) {
	repo := newStubRepo(Order{ID: 1, Kind: KindSeva, CarID: 1, Source: SourceSeva, ChannelOrderID: "SV-1", Event: "Expo"})
	res := NewResource(NewService(repo), KindOrder, Refs{})

	require.NoError(t, res.Update(context.Background(), 1, url.Values{"user": {"10"}}))

	o := repo.orders[1]
	assert.Equal(t, KindSeva, o.Kind)
	assert.Equal(t, "SV-1", o.ChannelOrderID)
	assert.Equal(t, "Expo", o.Event)
	assert.Equal(t, int64(10), *o.UserID)
}

func TestChannelOrderIDErrorsUseViewField(t *testing.T) {
	res := NewResource(NewService(newStubRepo()), KindSeva, Refs{})
	long := make([]byte, 51)
	for i := range long {
		long[i] = 'x'
	}

	_, err := res.Create(context.Background(), url.Values{"car": {"1"}, "seva_order_id": {string(long)}})

	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "seva_order_id")
	assert.NotContains(t, fields, "channel_order_id")
}

func TestViewPolicies(t *testing.T) {
	svc := NewService(newStubRepo())

	qualified := NewResource(svc, KindQualified, Refs{})
	v := qualified.View()
	assert.Equal(t, "qualifiedorders", v.Endpoint)
	assert.Equal(t, shared.RoleSales, v.Policy.Role)
	assert.False(t, v.Policy.CanEdit)
	for _, name := range []string{"received_at", "updated_stage_at", "appointment_at", "walkin_at"} {
		assert.True(t, v.Policy.InlineEditable(qualified.Fields(), name), name)
	}
	assert.False(t, v.Policy.InlineEditable(qualified.Fields(), "customer_name"))
	assert.False(t, v.Policy.InlineEditable(qualified.Fields(), "orders"))

	seva := NewResource(svc, KindSeva, Refs{})
	v = seva.View()
	assert.Equal(t, shared.RoleSeva, v.Policy.Role)
	assert.True(t, v.Policy.CanEdit)
	for _, f := range v.Policy.FormFields(seva.Fields(), false) {
		assert.NotContains(t, []string{"user", "qualified"}, f.Name)
	}

	m88 := NewResource(svc, KindM88, Refs{})
	v = m88.View()
	assert.Equal(t, shared.RoleM88, v.Policy.Role)
	assert.False(t, v.Policy.CanEdit)
	assert.True(t, v.Policy.InlineEditable(m88.Fields(), "branch"))
	for _, f := range v.Policy.ListFields(m88.Fields()) {
		assert.NotContains(t, []string{"user", "source", "qualified"}, f.Name)
	}

	all := NewResource(svc, KindOrder, Refs{})
	v = all.View()
	assert.Equal(t, shared.RoleSuperuser, v.Policy.Role)
	var editNames []string
	for _, f := range v.Policy.FormFields(all.Fields(), true) {
		editNames = append(editNames, f.Name)
	}
	assert.NotContains(t, editNames, "customer_name")
	assert.NotContains(t, editNames, "kind")
	assert.True(t, v.Policy.InlineEditable(all.Fields(), "user"))
	assert.Equal(t, admin.KindRef, all.Fields()[6].Kind)
}

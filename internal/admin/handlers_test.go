package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showroom-admin/backoffice/internal/rbac"
	"github.com/showroom-admin/backoffice/internal/shared"
	"github.com/showroom-admin/backoffice/internal/view"
)

const secretHash = "$2a$10$abcdefghijklmnopqrstuvCDEFGHIJKLMNOPQRSTUVWXYZ012345"

type fakeResource struct {
	mu      sync.Mutex
	entity  string
	fields  []Field
	records map[int64]Record
	nextID  int64
	updates []url.Values
}

func newFakeResource(entity string, fields []Field, records ...Record) *fakeResource {
	r := &fakeResource{entity: entity, fields: fields, records: make(map[int64]Record)}
	for _, rec := range records {
		r.records[rec.ID] = rec
		if rec.ID > r.nextID {
			r.nextID = rec.ID
		}
	}
	return r
}

func (r *fakeResource) Entity() string  { return r.entity }
func (r *fakeResource) Fields() []Field { return r.fields }

func (r *fakeResource) List(_ context.Context, q shared.ListQuery) ([]Record, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []Record
	for _, id := range ids {
		rec := r.records[id]
		if q.Search != "" && !strings.Contains(strings.ToLower(rec.Label), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, rec)
	}
	total := len(out)
	if q.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, total, nil
}

func (r *fakeResource) Get(_ context.Context, id int64) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, shared.ErrNotFound
	}
	return rec, nil
}

func (r *fakeResource) Create(_ context.Context, values url.Values) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if strings.TrimSpace(values.Get("customer_name")) == "" {
		return 0, shared.NewValidationError("customer_name", "This field is required")
	}
	r.nextID++
	rec := Record{ID: r.nextID, Label: values.Get("customer_name"), Values: map[string]string{}}
	for k := range values {
		rec.Values[k] = values.Get(k)
	}
	r.records[rec.ID] = rec
	return rec.ID, nil
}

func (r *fakeResource) Update(_ context.Context, id int64, values url.Values) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	r.updates = append(r.updates, values)
	for k := range values {
		rec.Values[k] = values.Get(k)
	}
	return nil
}

func (r *fakeResource) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []shared.AuditLog
}

func (f *fakeAuditor) Record(_ context.Context, log shared.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, log)
	return nil
}

type harness struct {
	router    http.Handler
	qualified *fakeResource
	seva      *fakeResource
	users     *fakeResource
	audit     *fakeAuditor
	principal *rbac.Principal
}

func orderFields() []Field {
	return []Field{
		{Name: "customer_name", Kind: KindText, Required: true, MaxLen: 50},
		{Name: "received_at", Label: "Receive", Kind: KindDateTime},
		{Name: "updated_stage_at", Label: "Update", Kind: KindDateTime},
		{Name: "appointment_at", Label: "Appointment", Kind: KindDateTime},
		{Name: "walkin_at", Label: "Walkin", Kind: KindDateTime},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "backoffice_session", "secret", time.Hour, false)

	engine, err := view.NewEngine()
	require.NoError(t, err)

	h := &harness{audit: &fakeAuditor{}}
	h.qualified = newFakeResource("qualified_order", orderFields(), Record{
		ID:     1,
		Label:  "Budi",
		Values: map[string]string{"customer_name": "Budi", "received_at": "2024-01-02T10:00"},
	})
	h.seva = newFakeResource("seva_order", orderFields(), Record{
		ID:     7,
		Label:  "Sari",
		Values: map[string]string{"customer_name": "Sari"},
	})
	h.users = newFakeResource("user", []Field{
		{Name: "email", Kind: KindEmail, Required: true},
		{Name: "password", Kind: KindPassword},
		{Name: "active", Kind: KindBool},
	}, Record{
		ID:     3,
		Label:  "admin@example.com",
		Values: map[string]string{"email": "admin@example.com", "password": secretHash, "active": "true"},
	})

	a := New(Config{
		Templates: engine,
		CSRF:      shared.NewCSRFManager("csrf-secret"),
		RBAC:      rbac.Middleware{},
		Audit:     h.audit,
	})
	a.AddView(View{Name: "Users", Endpoint: "users", Resource: h.users, Policy: Policy{
		Role: shared.RoleSuperuser, CanCreate: true, CanEdit: true, CanDelete: true, CanExport: true, CanViewDetails: true,
		Editable: []string{"email"},
	}})
	a.AddView(View{Name: "Seva Orders", Endpoint: "sevaorders", Resource: h.seva, Policy: Policy{
		Role: shared.RoleSeva, CanCreate: true, CanEdit: true, CanDelete: true, CanExport: true, CanViewDetails: true,
		Editable: []string{"customer_name"},
	}})
	a.AddView(View{Name: "Qualified Orders", Endpoint: "qualifiedorders", Resource: h.qualified, Policy: Policy{
		Role: shared.RoleSales, CanCreate: true, CanDelete: true, CanExport: true, CanViewDetails: true,
		Editable: []string{"received_at", "updated_stage_at", "appointment_at", "walkin_at"},
	}})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			if h.principal != nil {
				ctx = rbac.ContextWithPrincipal(ctx, h.principal)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route(BasePath, a.MountRoutes)
	h.router = r
	return h
}

func (h *harness) as(roles ...string) *harness {
	h.principal = &rbac.Principal{ID: 42, Email: "someone@example.com", Active: true, Roles: roles}
	return h
}

func (h *harness) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (h *harness) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestAnonymousIsRedirectedToLogin(t *testing.T) {
	h := newHarness(t)

	rec := h.get("/admin/qualifiedorders/?page=2")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape("/admin/qualifiedorders/?page=2"), rec.Header().Get("Location"))
}

func TestInactivePrincipalIsRedirectedToLogin(t *testing.T) {
	h := newHarness(t).as(shared.RoleSuperuser)
	h.principal.Active = false

	rec := h.get("/admin/")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?next="))
}

func TestSalesUserForbiddenOnSevaView(t *testing.T) {
	h := newHarness(t).as(shared.RoleSales)

	assert.Equal(t, http.StatusForbidden, h.get("/admin/sevaorders/").Code)
	assert.Equal(t, http.StatusForbidden, h.get("/admin/sevaorders/7").Code)

	rec := h.post("/admin/sevaorders/7/inline", url.Values{"name": {"customer_name"}, "value": {"Hacked"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = h.post("/admin/sevaorders/7/delete", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Empty(t, h.seva.updates)
	_, err := h.seva.Get(context.Background(), 7)
	assert.NoError(t, err)
}

func TestSalesUserSeesQualifiedViewWithInlineEditOnly(t *testing.T) {
	h := newHarness(t).as(shared.RoleSales)

	rec := h.get("/admin/qualifiedorders/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, name := range []string{"received_at", "updated_stage_at", "appointment_at", "walkin_at"} {
		assert.Contains(t, body, `name="name" value="`+name+`"`)
	}
	assert.NotContains(t, body, `name="name" value="customer_name"`)
	assert.NotContains(t, body, "/admin/qualifiedorders/1/edit")
	assert.Contains(t, body, "/admin/qualifiedorders/1/delete")
	assert.NotContains(t, body, "/admin/sevaorders/")
	assert.NotContains(t, body, "/admin/users/")

	assert.Equal(t, http.StatusForbidden, h.get("/admin/qualifiedorders/1/edit").Code)
	rec = h.post("/admin/qualifiedorders/1/edit", url.Values{"customer_name": {"Other"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInlineEditRestrictedToEditableColumns(t *testing.T) {
	h := newHarness(t).as(shared.RoleSales)

	rec := h.post("/admin/qualifiedorders/1/inline", url.Values{"name": {"customer_name"}, "value": {"Other"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.post("/admin/qualifiedorders/1/inline", url.Values{
		"name":  {"walkin_at"},
		"value": {"2024-02-01T09:30"},
		"next":  {"/admin/qualifiedorders/?page=1"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/qualifiedorders/?page=1", rec.Header().Get("Location"))
	require.Len(t, h.qualified.updates, 1)
	assert.Equal(t, url.Values{"walkin_at": {"2024-02-01T09:30"}}, h.qualified.updates[0])

	require.Len(t, h.audit.entries, 1)
	assert.Equal(t, shared.AuditInline, h.audit.entries[0].Action)
	assert.Equal(t, int64(42), h.audit.entries[0].ActorID)
	assert.Equal(t, "1", h.audit.entries[0].EntityID)
}

func TestInlineEditIgnoresExternalNext(t *testing.T) {
	h := newHarness(t).as(shared.RoleSales)

	rec := h.post("/admin/qualifiedorders/1/inline", url.Values{
		"name":  {"received_at"},
		"value": {""},
		"next":  {"https://evil.example.com/"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/qualifiedorders/", rec.Header().Get("Location"))
}

func TestSuperuserAccessesEveryView(t *testing.T) {
	h := newHarness(t).as(shared.RoleSuperuser)

	for _, target := range []string{
		"/admin/",
		"/admin/users/",
		"/admin/sevaorders/",
		"/admin/qualifiedorders/",
		"/admin/sevaorders/7",
		"/admin/sevaorders/7/edit",
		"/admin/sevaorders/new",
	} {
		assert.Equal(t, http.StatusOK, h.get(target).Code, target)
	}
}

func TestPasswordNeverRendered(t *testing.T) {
	h := newHarness(t).as(shared.RoleSuperuser)

	for _, target := range []string{"/admin/users/", "/admin/users/3", "/admin/users/export.csv"} {
		rec := h.get(target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.NotContains(t, rec.Body.String(), secretHash, target)
		assert.NotContains(t, rec.Body.String(), "Password", target)
	}

	rec := h.get("/admin/users/3/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), secretHash)
	assert.Contains(t, rec.Body.String(), `type="password"`)
}

func TestCreateValidationErrorRerendersForm(t *testing.T) {
	h := newHarness(t).as(shared.RoleSeva)

	rec := h.post("/admin/sevaorders/new", url.Values{"customer_name": {" "}, "unknown": {"x"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required")

	rec = h.post("/admin/sevaorders/new", url.Values{"customer_name": {"Rina"}, "unknown": {"x"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/sevaorders/", rec.Header().Get("Location"))
	created, err := h.seva.Get(context.Background(), 8)
	require.NoError(t, err)
	assert.NotContains(t, created.Values, "unknown")
	require.Len(t, h.audit.entries, 1)
	assert.Equal(t, shared.AuditCreate, h.audit.entries[0].Action)
}

func TestDeleteMissingRecordFlashesError(t *testing.T) {
	h := newHarness(t).as(shared.RoleSeva)

	rec := h.post("/admin/sevaorders/99/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, h.audit.entries)

	rec = h.post("/admin/sevaorders/7/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	_, err := h.seva.Get(context.Background(), 7)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDetailsUnknownRecordIsNotFound(t *testing.T) {
	h := newHarness(t).as(shared.RoleSeva)

	assert.Equal(t, http.StatusNotFound, h.get("/admin/sevaorders/99").Code)
	assert.Equal(t, http.StatusNotFound, h.get("/admin/sevaorders/abc").Code)
}

func TestIndexListsAccessibleViews(t *testing.T) {
	h := newHarness(t).as(shared.RoleSeva, shared.RoleSales)

	rec := h.get("/admin/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Seva Orders")
	assert.Contains(t, body, "Qualified Orders")
	assert.NotContains(t, body, `href="/admin/users/"`)
}

func TestExportWritesListColumns(t *testing.T) {
	h := newHarness(t).as(shared.RoleSales)

	rec := h.get("/admin/qualifiedorders/export.csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Customer Name,Receive,Update,Appointment,Walkin", lines[0])
	assert.Equal(t, "Budi,2024-01-02T10:00,,,", lines[1])
}

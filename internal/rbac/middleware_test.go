package rbac

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showroom-admin/backoffice/internal/shared"
)

func loadSession(t *testing.T, userID int64) (*shared.Session, *http.Request) {
	t.Helper()
	_, client := newRedis(t)
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	if userID > 0 {
		sess.SetUser(userID)
	}
	return sess, req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func principalRecorder(got **Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestLoadPrincipal(t *testing.T) {
	store := newStubStore(
		Principal{ID: 5, Email: "sari@example.com", Active: true, Roles: []string{"seva"}},
		Principal{ID: 6, Email: "gone@example.com", Active: false},
	)
	m := Middleware{Service: NewService(store, nil, 0)}

	t.Run("active user", func(t *testing.T) {
		sess, req := loadSession(t, 5)
		var got *Principal
		rr := httptest.NewRecorder()
		m.LoadPrincipal(principalRecorder(&got)).ServeHTTP(rr, req)

		require.NotNil(t, got)
		assert.Equal(t, "sari@example.com", got.Email)
		_, ok := sess.UserID()
		assert.True(t, ok)
	})

	t.Run("inactive user is logged out", func(t *testing.T) {
		sess, req := loadSession(t, 6)
		var got *Principal
		m.LoadPrincipal(principalRecorder(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.Nil(t, got)
		_, ok := sess.UserID()
		assert.False(t, ok)
	})

	t.Run("deleted user is logged out", func(t *testing.T) {
		sess, req := loadSession(t, 99)
		var got *Principal
		m.LoadPrincipal(principalRecorder(&got)).ServeHTTP(httptest.NewRecorder(), req)

		assert.Nil(t, got)
		_, ok := sess.UserID()
		assert.False(t, ok)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, req := loadSession(t, 0)
		var got *Principal
		rr := httptest.NewRecorder()
		m.LoadPrincipal(principalRecorder(&got)).ServeHTTP(rr, req)

		assert.Nil(t, got)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		failing := newStubStore()
		failing.err = errors.New("connection refused")
		mw := Middleware{Service: NewService(failing, nil, 0)}
		sess, req := loadSession(t, 5)
		rr := httptest.NewRecorder()
		mw.LoadPrincipal(principalRecorder(new(*Principal))).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		_, ok := sess.UserID()
		assert.True(t, ok, "session survives transient failures")
	})
}

func TestRequireRole(t *testing.T) {
	forbidden := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("no access"))
	})
	m := Middleware{Forbidden: forbidden}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := m.RequireRole(shared.RoleSeva)(ok)

	serve := func(p *Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/sevaorders/?page=2", nil)
		if p != nil {
			req = req.WithContext(ContextWithPrincipal(req.Context(), p))
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	rr := serve(nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fadmin%2Fsevaorders%2F%3Fpage%3D2", rr.Header().Get("Location"))

	rr = serve(&Principal{ID: 1, Active: false, Roles: []string{"seva"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = serve(&Principal{ID: 2, Active: true, Roles: []string{"sales"}})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "no access", rr.Body.String())

	assert.Equal(t, http.StatusOK, serve(&Principal{ID: 3, Active: true, Roles: []string{"seva"}}).Code)
	assert.Equal(t, http.StatusOK, serve(&Principal{ID: 4, Active: true, Roles: []string{"superuser"}}).Code)
}

func TestRequireRoleDefaultForbidden(t *testing.T) {
	handler := Middleware{}.RequireRole(shared.RoleM88)(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodGet, "/admin/m88orders/", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), &Principal{ID: 1, Active: true, Roles: []string{"seva"}}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireAuthenticated(t *testing.T) {
	handler := Middleware{}.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fadmin%2F", rr.Header().Get("Location"))

	req = req.WithContext(ContextWithPrincipal(req.Context(), &Principal{ID: 1, Active: true, Roles: []string{"user"}}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

package roles

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showroom-admin/backoffice/internal/rbac"
	"github.com/showroom-admin/backoffice/internal/shared"
)

type principalStore map[int64]rbac.Principal

func (s principalStore) LoadPrincipal(_ context.Context, userID int64) (rbac.Principal, error) {
	p, ok := s[userID]
	if !ok {
		return rbac.Principal{}, shared.ErrNotFound
	}
	return p, nil
}

func newCachedPrincipals(t *testing.T, store principalStore) (*miniredis.Miniredis, *rbac.Service) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := rbac.NewService(store, client, time.Minute)
	for id := range store {
		_, err := svc.Principal(context.Background(), id)
		require.NoError(t, err)
	}
	return mr, svc
}

func TestDeleteRoleDropsHolderPrincipals(t *testing.T) {
	store := principalStore{
		5: {ID: 5, Active: true, Roles: []string{"superuser"}},
		6: {ID: 6, Active: true, Roles: []string{"seva"}},
	}
	mr, principals := newCachedPrincipals(t, store)
	repo := newStubRepo(Role{ID: 1, Name: "superuser"}, Role{ID: 2, Name: "seva"})
	repo.holders = map[int64][]int64{1: {5}, 2: {6}}
	svc := NewService(repo, principals, nil)

	require.NoError(t, svc.Delete(context.Background(), 1))

	assert.False(t, mr.Exists("backoffice:principal:5"))
	assert.True(t, mr.Exists("backoffice:principal:6"), "holders of other roles keep their cache")

	store[5] = rbac.Principal{ID: 5, Active: true}
	p, err := principals.Principal(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, p.HasRole(shared.RoleSeva))
}

func TestRenameRoleDropsHolderPrincipals(t *testing.T) {
	store := principalStore{
		6: {ID: 6, Active: true, Roles: []string{"seva"}},
		7: {ID: 7, Active: true, Roles: []string{"seva", "sales"}},
	}
	mr, principals := newCachedPrincipals(t, store)
	repo := newStubRepo(Role{ID: 2, Name: "seva"})
	repo.holders = map[int64][]int64{2: {6, 7}}
	svc := NewService(repo, principals, nil)

	require.NoError(t, svc.Update(context.Background(), 2, RoleForm{Name: "seva-online"}))

	assert.Equal(t, "seva-online", repo.roles[2].Name)
	assert.False(t, mr.Exists("backoffice:principal:6"))
	assert.False(t, mr.Exists("backoffice:principal:7"))
}

func TestDeleteMissingRoleKeepsCache(t *testing.T) {
	mr, principals := newCachedPrincipals(t, principalStore{5: {ID: 5, Active: true, Roles: []string{"m88"}}})
	svc := NewService(newStubRepo(), principals, nil)

	err := svc.Delete(context.Background(), 9)

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.True(t, mr.Exists("backoffice:principal:5"))
}

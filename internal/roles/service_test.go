package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showroom-admin/backoffice/internal/shared"
)

type stubRepo struct {
	roles   map[int64]Role
	nextID  int64
	created []Role
	holders map[int64][]int64
}

func newStubRepo(roles ...Role) *stubRepo {
	s := &stubRepo{roles: make(map[int64]Role)}
	for _, r := range roles {
		s.roles[r.ID] = r
		if r.ID > s.nextID {
			s.nextID = r.ID
		}
	}
	return s
}

func (s *stubRepo) List(context.Context, shared.ListQuery) ([]Role, int, error) {
	out := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (s *stubRepo) Get(_ context.Context, id int64) (Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return r, nil
}

func (s *stubRepo) NameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, r := range s.roles {
		if r.Name == name && r.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) Create(_ context.Context, role Role) (int64, error) {
	s.nextID++
	role.ID = s.nextID
	s.roles[role.ID] = role
	s.created = append(s.created, role)
	return role.ID, nil
}

func (s *stubRepo) Update(_ context.Context, role Role) error {
	if _, ok := s.roles[role.ID]; !ok {
		return shared.ErrNotFound
	}
	s.roles[role.ID] = role
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.roles, id)
	delete(s.holders, id)
	return nil
}

func (s *stubRepo) HolderIDs(_ context.Context, roleID int64) ([]int64, error) {
	return s.holders[roleID], nil
}

func TestCreateRoleNormalisesName(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)

	id, err := svc.Create(context.Background(), RoleForm{Name: "  Sales ", Description: "Sales team"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "sales", repo.created[0].Name)
}

func TestCreateRoleDuplicateName(t *testing.T) {
	svc := NewService(newStubRepo(Role{ID: 1, Name: "seva"}), nil, nil)

	_, err := svc.Create(context.Background(), RoleForm{Name: "SEVA"})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Role name already exists", vErr.Fields["name"])
}

func TestUpdateRoleKeepsOwnName(t *testing.T) {
	repo := newStubRepo(Role{ID: 1, Name: "seva"})
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.Update(context.Background(), 1, RoleForm{Name: "seva", Description: "Seva channel"}))
	assert.Equal(t, "Seva channel", repo.roles[1].Description)
}

func TestCreateRoleRequiresName(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)

	_, err := svc.Create(context.Background(), RoleForm{Name: "   "})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "This field is required", vErr.Fields["name"])
}

func TestDuplicateConstraintMapsToField(t *testing.T) {
	err := duplicateName(shared.ErrDuplicate)

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "name")
	assert.NoError(t, duplicateName(nil))
}

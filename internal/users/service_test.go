package users

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/showroom-admin/backoffice/internal/admin"
	"github.com/showroom-admin/backoffice/internal/shared"
)

type stubRepo struct {
	users   map[int64]User
	hashes  map[int64]string
	nextID  int64
	dupOnDB bool
}

func newStubRepo(users ...User) *stubRepo {
	s := &stubRepo{users: make(map[int64]User), hashes: make(map[int64]string)}
	for _, u := range users {
		s.users[u.ID] = u
		s.hashes[u.ID] = "existing-hash"
		if u.ID > s.nextID {
			s.nextID = u.ID
		}
	}
	return s
}

func (s *stubRepo) List(context.Context, shared.ListQuery) ([]User, int, error) {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (s *stubRepo) Get(_ context.Context, id int64) (User, error) {
	u, ok := s.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) Create(_ context.Context, rec record) (int64, error) {
	if s.dupOnDB {
		return 0, shared.ErrDuplicate
	}
	s.nextID++
	rec.ID = s.nextID
	s.users[rec.ID] = rec.User
	s.hashes[rec.ID] = rec.PasswordHash
	return rec.ID, nil
}

func (s *stubRepo) Update(_ context.Context, rec record) error {
	if _, ok := s.users[rec.ID]; !ok {
		return shared.ErrNotFound
	}
	s.users[rec.ID] = rec.User
	if rec.PasswordHash != "" {
		s.hashes[rec.ID] = rec.PasswordHash
	}
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type recordingInvalidator struct {
	ids []int64
}

func (r *recordingInvalidator) Invalidate(_ context.Context, id int64) error {
	r.ids = append(r.ids, id)
	return nil
}

func newTestService(repo *stubRepo) (*Service, *recordingInvalidator) {
	inv := &recordingInvalidator{}
	svc := NewService(repo, inv, nil)
	svc.cost = bcrypt.MinCost
	return svc, inv
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo)

	id, err := svc.Create(context.Background(), UserForm{
		Email:    "  Admin@Example.com ",
		Password: "correct-horse",
		Active:   true,
		RoleIDs:  []int64{2, 1, 2},
	})

	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", repo.users[id].Email)
	assert.Equal(t, []int64{1, 2}, repo.users[id].RoleIDs)
	assert.NotEqual(t, "correct-horse", repo.hashes[id])
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[id]), []byte("correct-horse")))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newStubRepo(User{ID: 1, Email: "admin@example.com"})
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), UserForm{Email: "ADMIN@example.com", Password: "correct-horse"})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, duplicateEmail, vErr.Fields["email"])
	assert.Len(t, repo.users, 1)
}

func TestCreateUserDuplicateEmailFromConstraint(t *testing.T) {
	repo := newStubRepo()
	repo.dupOnDB = true
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), UserForm{Email: "racer@example.com", Password: "correct-horse"})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, duplicateEmail, vErr.Fields["email"])
}

func TestCreateUserRequiresPasswordAndEmail(t *testing.T) {
	svc, _ := newTestService(newStubRepo())

	_, err := svc.Create(context.Background(), UserForm{Email: "not-an-email"})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "This field is required", vErr.Fields["password"])
	assert.Equal(t, "Must be a valid email address", vErr.Fields["email"])
}

func TestCreateUserPasswordByteLimit(t *testing.T) {
	repo := newStubRepo()
	svc, _ := newTestService(repo)

	// 30 runes but 90 bytes.
	_, err := svc.Create(context.Background(), UserForm{Email: "sari@example.com", Password: strings.Repeat("密", 30)})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, passwordTooLong, vErr.Fields["password"])
	assert.Empty(t, repo.users)

	id, err := svc.Create(context.Background(), UserForm{Email: "sari@example.com", Password: strings.Repeat("密", 24)})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[id]), []byte(strings.Repeat("密", 24))))
}

func TestUpdateUserPasswordByteLimit(t *testing.T) {
	repo := newStubRepo(User{ID: 1, Email: "sari@example.com"})
	svc, inv := newTestService(repo)

	err := svc.Update(context.Background(), 1, UserForm{Email: "sari@example.com", Password: strings.Repeat("é", 40)})

	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, passwordTooLong, vErr.Fields["password"])
	assert.Equal(t, "existing-hash", repo.hashes[1])
	assert.Empty(t, inv.ids)
}

func TestUpdateKeepsPasswordAndInvalidatesPrincipal(t *testing.T) {
	repo := newStubRepo(User{ID: 4, Email: "sales@example.com", Active: true})
	svc, inv := newTestService(repo)

	err := svc.Update(context.Background(), 4, UserForm{Email: "sales@example.com", FirstName: "Sari", RoleIDs: []int64{3}})

	require.NoError(t, err)
	assert.Equal(t, "existing-hash", repo.hashes[4])
	assert.Equal(t, "Sari", repo.users[4].FirstName)
	assert.Equal(t, []int64{4}, inv.ids)
}

func TestResourceInlineUpdateTouchesOnlySubmittedField(t *testing.T) {
	repo := newStubRepo(User{ID: 4, Email: "sales@example.com", FirstName: "Sari", Active: true, RoleIDs: []int64{3}})
	svc, _ := newTestService(repo)
	res := NewResource(svc, nil)

	require.NoError(t, res.Update(context.Background(), 4, url.Values{"last_name": {"Wijaya"}}))

	u := repo.users[4]
	assert.Equal(t, "Sari", u.FirstName)
	assert.Equal(t, "Wijaya", u.LastName)
	assert.True(t, u.Active)
	assert.Equal(t, []int64{3}, u.RoleIDs)
}

func TestResourceRecordOmitsPassword(t *testing.T) {
	repo := newStubRepo(User{ID: 4, Email: "sales@example.com", RoleNames: []string{"sales"}})
	svc, _ := newTestService(repo)
	res := NewResource(svc, nil)

	rec, err := res.Get(context.Background(), 4)

	require.NoError(t, err)
	assert.NotContains(t, rec.Values, "password")
	assert.Equal(t, "sales", rec.DisplayValue("roles"))

	view := res.View()
	assert.Equal(t, shared.RoleSuperuser, view.Policy.Role)
	for _, f := range view.Policy.ListFields(res.Fields()) {
		assert.NotEqual(t, admin.KindPassword, f.Kind)
	}
	assert.True(t, view.Policy.InlineEditable(res.Fields(), "email"))
}

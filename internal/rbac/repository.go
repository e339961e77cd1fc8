package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showroom-admin/backoffice/internal/shared"
)

// Store loads principals from persistent storage.
type Store interface {
	LoadPrincipal(ctx context.Context, userID int64) (Principal, error)
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PGStore.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const loadPrincipalSQL = `SELECT u.id, u.email, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), u.active,
       COALESCE(array_agg(LOWER(r.name) ORDER BY r.name) FILTER (WHERE r.id IS NOT NULL), '{}')
FROM users u
LEFT JOIN roles_users ru ON ru.user_id = u.id
LEFT JOIN roles r ON r.id = ru.role_id
WHERE u.id = $1
GROUP BY u.id`

// LoadPrincipal fetches a user together with its role names.
func (s *PGStore) LoadPrincipal(ctx context.Context, userID int64) (Principal, error) {
	var p Principal
	err := s.pool.QueryRow(ctx, loadPrincipalSQL, userID).Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Active, &p.Roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, shared.ErrNotFound
		}
		return Principal{}, err
	}
	return p, nil
}

var _ Store = (*PGStore)(nil)

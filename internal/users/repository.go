package users

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showroom-admin/backoffice/internal/platform/db"
	"github.com/showroom-admin/backoffice/internal/shared"
)

var (
	searchColumns = db.ColumnSet{
		"email":      "u.email",
		"first_name": "u.first_name",
		"last_name":  "u.last_name",
	}
	filterColumns = db.ColumnSet{
		"email":      "u.email",
		"first_name": "u.first_name",
		"last_name":  "u.last_name",
		"active":     "u.active",
	}
	sortColumns = db.ColumnSet{
		"email":        "u.email",
		"first_name":   "u.first_name",
		"last_name":    "u.last_name",
		"active":       "u.active",
		"confirmed_at": "u.confirmed_at",
	}
)

const selectUser = `SELECT u.id, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), u.email, u.active, u.confirmed_at,
       u.created_at, u.updated_at,
       COALESCE((SELECT array_agg(ru.role_id ORDER BY ru.role_id) FROM roles_users ru WHERE ru.user_id = u.id), '{}'),
       COALESCE((SELECT array_agg(r.name ORDER BY r.name) FROM roles_users ru JOIN roles r ON r.id = ru.role_id WHERE ru.user_id = u.id), '{}')
FROM users u`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Active, &u.ConfirmedAt,
		&u.CreatedAt, &u.UpdatedAt, &u.RoleIDs, &u.RoleNames)
	return u, err
}

// List returns one page of users and the total match count.
func (r *Repository) List(ctx context.Context, q shared.ListQuery) ([]User, int, error) {
	var w db.Where
	w.ApplyListQuery(q, searchColumns, filterColumns)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, selectUser+w.SQL()+db.OrderBy(q, sortColumns, "u.id ASC")+w.Page(q), w.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// Get fetches a user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
	return u, db.MapError(err)
}

// EmailTaken reports whether another user already uses email.
func (r *Repository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2`, email, excludeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts the user and its role assignments in one transaction.
func (r *Repository) Create(ctx context.Context, rec record) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO users (first_name, last_name, email, password_hash, active, confirmed_at)
VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5, $6) RETURNING id`,
			rec.FirstName, rec.LastName, rec.Email, rec.PasswordHash, rec.Active, rec.ConfirmedAt).Scan(&id)
		if err != nil {
			return err
		}
		return replaceRoles(ctx, tx, id, rec.RoleIDs)
	})
	return id, db.MapError(err)
}

// Update replaces the user columns and role assignments. An empty
// PasswordHash keeps the stored hash.
func (r *Repository) Update(ctx context.Context, rec record) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET first_name = NULLIF($1, ''), last_name = NULLIF($2, ''), email = $3,
       password_hash = COALESCE(NULLIF($4, ''), password_hash), active = $5, confirmed_at = $6, updated_at = NOW()
WHERE id = $7`,
			rec.FirstName, rec.LastName, rec.Email, rec.PasswordHash, rec.Active, rec.ConfirmedAt, rec.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return replaceRoles(ctx, tx, rec.ID, rec.RoleIDs)
	})
	return db.MapError(err)
}

// Delete removes a user. Role assignments cascade; orders are detached.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func replaceRoles(ctx context.Context, tx pgx.Tx, userID int64, roleIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM roles_users WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `INSERT INTO roles_users (user_id, role_id)
SELECT $1, r.id FROM roles r WHERE r.id = ANY($2) ON CONFLICT DO NOTHING`, userID, roleIDs)
	return err
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showroom-admin/backoffice/internal/platform/db"
	"github.com/showroom-admin/backoffice/internal/shared"
)

var (
	searchColumns = db.ColumnSet{"name": "name", "description": "description"}
	sortColumns   = db.ColumnSet{"name": "name", "description": "description"}
)

const selectRole = `SELECT id, name, COALESCE(description, ''), created_at, updated_at FROM roles`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns one page of roles and the total match count.
func (r *Repository) List(ctx context.Context, q shared.ListQuery) ([]Role, int, error) {
	var w db.Where
	w.ApplyListQuery(q, searchColumns, searchColumns)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	sql := selectRole + w.SQL() + db.OrderBy(q, sortColumns, "name ASC") + w.Page(q)
	rows, err := r.pool.Query(ctx, sql, w.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, role)
	}
	return out, total, rows.Err()
}

// Get fetches a role by id.
func (r *Repository) Get(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, selectRole+` WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	return role, db.MapError(err)
}

// NameTaken reports whether another role already uses name.
func (r *Repository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM roles WHERE LOWER(name) = LOWER($1) AND id <> $2`, name, excludeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts a role.
func (r *Repository) Create(ctx context.Context, role Role) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO roles (name, description) VALUES ($1, NULLIF($2, '')) RETURNING id`,
		role.Name, role.Description).Scan(&id)
	return id, db.MapError(err)
}

// Update replaces the role columns.
func (r *Repository) Update(ctx context.Context, role Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET name = $1, description = NULLIF($2, ''), updated_at = NOW() WHERE id = $3`,
		role.Name, role.Description, role.ID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a role and its assignments.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// HolderIDs returns the ids of users assigned the role.
func (r *Repository) HolderIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM roles_users WHERE role_id = $1 ORDER BY user_id`, roleID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

package branches

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showroom-admin/backoffice/internal/platform/db"
	"github.com/showroom-admin/backoffice/internal/shared"
)

type Repository interface {
	List(ctx context.Context, q shared.ListQuery) ([]Branch, int, error)
	Get(ctx context.Context, id int64) (Branch, error)
	CodeTaken(ctx context.Context, code string, excludeID int64) (bool, error)
	Create(ctx context.Context, branch Branch) (Branch, error)
	Update(ctx context.Context, id int64, branch Branch) error
	Delete(ctx context.Context, id int64) error
}

var columns = db.ColumnSet{"code": "code", "description": "description"}

const selectBranch = `SELECT id, code, COALESCE(description, ''), created_at, updated_at FROM branches`

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, q shared.ListQuery) ([]Branch, int, error) {
	var w db.Where
	w.ApplyListQuery(q, columns, columns)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM branches`+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, selectBranch+w.SQL()+db.OrderBy(q, columns, "code ASC")+w.Page(q), w.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var branches []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Code, &b.Description, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		branches = append(branches, b)
	}
	return branches, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Branch, error) {
	var b Branch
	err := r.db.QueryRow(ctx, selectBranch+` WHERE id = $1`, id).Scan(&b.ID, &b.Code, &b.Description, &b.CreatedAt, &b.UpdatedAt)
	return b, db.MapError(err)
}

func (r *repository) CodeTaken(ctx context.Context, code string, excludeID int64) (bool, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM branches WHERE code = $1 AND id <> $2`, code, excludeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *repository) Create(ctx context.Context, branch Branch) (Branch, error) {
	query := `INSERT INTO branches (code, description) VALUES ($1, NULLIF($2, '')) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, branch.Code, branch.Description).Scan(&branch.ID, &branch.CreatedAt, &branch.UpdatedAt)
	return branch, db.MapError(err)
}

func (r *repository) Update(ctx context.Context, id int64, branch Branch) error {
	query := `UPDATE branches SET code = $1, description = NULLIF($2, ''), updated_at = NOW() WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, branch.Code, branch.Description, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete fails with shared.ErrReferenced while cars or orders use the branch.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showroom-admin/backoffice/internal/platform/db"
	"github.com/showroom-admin/backoffice/internal/shared"
)

var (
	searchColumns = db.ColumnSet{"actor": "u.email", "entity_id": "a.entity_id"}
	filterColumns = db.ColumnSet{"action": "a.action", "entity": "a.entity"}
	sortColumns   = db.ColumnSet{"occurred_at": "a.occurred_at", "action": "a.action", "entity": "a.entity"}
)

const selectEntry = `SELECT a.id, a.occurred_at, a.actor_id, COALESCE(u.email, ''), a.action, a.entity, a.entity_id, a.meta::text
FROM audit_logs a LEFT JOIN users u ON u.id = a.actor_id`

// Repository reads audit_logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns one page of entries, newest first unless q sorts otherwise.
func (r *Repository) List(ctx context.Context, q shared.ListQuery) ([]Entry, int, error) {
	var w db.Where
	w.ApplyListQuery(q, searchColumns, filterColumns)

	var total int
	countSQL := `SELECT COUNT(*) FROM audit_logs a LEFT JOIN users u ON u.id = a.actor_id` + w.SQL()
	if err := r.pool.QueryRow(ctx, countSQL, w.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	sql := selectEntry + w.SQL() + db.OrderBy(q, sortColumns, "a.occurred_at DESC, a.id DESC") + w.Page(q)
	rows, err := r.pool.Query(ctx, sql, w.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.ActorID, &e.ActorEmail, &e.Action, &e.Entity, &e.EntityID, &e.Meta); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// Get fetches one entry.
func (r *Repository) Get(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := r.pool.QueryRow(ctx, selectEntry+` WHERE a.id = $1`, id).
		Scan(&e.ID, &e.OccurredAt, &e.ActorID, &e.ActorEmail, &e.Action, &e.Entity, &e.EntityID, &e.Meta)
	return e, db.MapError(err)
}

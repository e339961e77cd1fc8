package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showroom-admin/backoffice/internal/platform/db"
	"github.com/showroom-admin/backoffice/internal/shared"
)

// Ref names a table an order may reference.
type Ref string

const (
	RefCar       Ref = "car"
	RefBranch    Ref = "branch"
	RefUser      Ref = "user"
	RefQualified Ref = "qualified"
)

var existsSQL = map[Ref]string{
	RefCar:       `SELECT EXISTS (SELECT 1 FROM cars WHERE id = $1)`,
	RefBranch:    `SELECT EXISTS (SELECT 1 FROM branches WHERE id = $1)`,
	RefUser:      `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`,
	RefQualified: `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1 AND kind = 'qualified_order')`,
}

type Repository interface {
	List(ctx context.Context, kind Kind, q shared.ListQuery) ([]OrderWithDetails, int, error)
	Get(ctx context.Context, kind Kind, id int64) (OrderWithDetails, error)
	Exists(ctx context.Context, ref Ref, id int64) (bool, error)
	Create(ctx context.Context, order Order) (int64, error)
	Update(ctx context.Context, order Order) error
	Delete(ctx context.Context, kind Kind, id int64) error
}

var (
	searchColumns = db.ColumnSet{
		"source":           "o.source",
		"customer_name":    "o.customer_name",
		"customer_address": "o.customer_address",
		"customer_phone":   "o.customer_phone",
		"channel_order_id": "o.channel_order_id",
		"event":            "o.event",
		"voucher_code":     "o.voucher_code",
		"bundling":         "o.bundling",
		"appointment_at":   "o.appointment_at",
		"received_at":      "o.received_at",
		"updated_stage_at": "o.updated_stage_at",
		"walkin_at":        "o.walkin_at",
		"user":             "o.user_id",
		"branch":           "o.branch_id",
	}
	filterColumns = db.ColumnSet{
		"kind":             "o.kind",
		"source":           "o.source",
		"customer_name":    "o.customer_name",
		"customer_address": "o.customer_address",
		"customer_phone":   "o.customer_phone",
		"user":             "o.user_id",
		"car":              "o.car_id",
		"branch":           "o.branch_id",
		"qualified":        "o.qualified_id",
		"order_date":       "o.order_date::date",
		"appointment_at":   "o.appointment_at::date",
		"received_at":      "o.received_at::date",
		"updated_stage_at": "o.updated_stage_at::date",
		"walkin_at":        "o.walkin_at::date",
	}
	sortColumns = db.ColumnSet{
		"kind":             "o.kind",
		"order_date":       "o.order_date",
		"source":           "o.source",
		"customer_name":    "o.customer_name",
		"customer_address": "o.customer_address",
		"customer_phone":   "o.customer_phone",
		"user":             "u.email",
		"car":              "c.plate_no",
		"branch":           "b.code",
		"channel_order_id": "o.channel_order_id",
		"event":            "o.event",
		"voucher_code":     "o.voucher_code",
		"bundling":         "o.bundling",
		"appointment_at":   "o.appointment_at",
		"received_at":      "o.received_at",
		"updated_stage_at": "o.updated_stage_at",
		"walkin_at":        "o.walkin_at",
	}
)

const selectOrder = `SELECT o.id, o.kind, o.order_date, COALESCE(o.source, ''), COALESCE(o.customer_name, ''),
       COALESCE(o.customer_address, ''), COALESCE(o.customer_phone, ''), o.user_id, o.car_id, o.qualified_id, o.branch_id,
       COALESCE(o.channel_order_id, ''), COALESCE(o.event, ''), COALESCE(o.voucher_code, ''), COALESCE(o.bundling, ''),
       o.appointment_at, o.received_at, o.updated_stage_at, o.walkin_at, o.created_at, o.updated_at,
       COALESCE(NULLIF(TRIM(CONCAT_WS(' ', u.first_name, u.last_name)), ''), u.email, ''),
       CONCAT_WS(' ', c.brand, c.model, c.variant, c.fuel, c.transmission, c.plate_no),
       COALESCE('#' || q.id::text || ' ' || COALESCE(q.customer_name, ''), ''),
       COALESCE(b.code, ''),
       (SELECT COUNT(*) FROM orders g WHERE g.qualified_id = o.id)::int
FROM orders o
JOIN cars c ON c.id = o.car_id
LEFT JOIN users u ON u.id = o.user_id
LEFT JOIN orders q ON q.id = o.qualified_id
LEFT JOIN branches b ON b.id = o.branch_id`

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanOrder(row pgx.Row) (OrderWithDetails, error) {
	var o OrderWithDetails
	err := row.Scan(&o.ID, &o.Kind, &o.OrderDate, &o.Source, &o.CustomerName,
		&o.CustomerAddress, &o.CustomerPhone, &o.UserID, &o.CarID, &o.QualifiedID, &o.BranchID,
		&o.ChannelOrderID, &o.Event, &o.VoucherCode, &o.Bundling,
		&o.AppointmentAt, &o.ReceivedAt, &o.UpdatedStageAt, &o.WalkinAt, &o.CreatedAt, &o.UpdatedAt,
		&o.UserName, &o.CarLabel, &o.QualifiedLabel, &o.BranchCode, &o.GroupedOrders)
	return o, err
}

// List returns one page of orders of kind. An empty kind lists every kind.
func (r *repository) List(ctx context.Context, kind Kind, q shared.ListQuery) ([]OrderWithDetails, int, error) {
	var w db.Where
	if kind != "" {
		w.Add("o.kind = ?", string(kind))
	}
	w.ApplyListQuery(q, searchColumns, filterColumns)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	rows, err := r.db.Query(ctx, selectOrder+w.SQL()+db.OrderBy(q, sortColumns, "o.id DESC")+w.Page(q), w.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []OrderWithDetails
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, kind Kind, id int64) (OrderWithDetails, error) {
	var w db.Where
	w.Add("o.id = ?", id)
	if kind != "" {
		w.Add("o.kind = ?", string(kind))
	}
	o, err := scanOrder(r.db.QueryRow(ctx, selectOrder+w.SQL(), w.Args()...))
	return o, db.MapError(err)
}

func (r *repository) Exists(ctx context.Context, ref Ref, id int64) (bool, error) {
	query, ok := existsSQL[ref]
	if !ok {
		return false, fmt.Errorf("unknown reference %q", ref)
	}
	var exists bool
	err := r.db.QueryRow(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO orders (kind, order_date, source, customer_name, customer_address, customer_phone,
       user_id, car_id, qualified_id, branch_id, channel_order_id, event, voucher_code, bundling,
       appointment_at, received_at, updated_stage_at, walkin_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10,
        NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''), NULLIF($14, ''), $15, $16, $17, $18)
RETURNING id`,
		string(o.Kind), o.OrderDate, o.Source, o.CustomerName, o.CustomerAddress, o.CustomerPhone,
		o.UserID, o.CarID, o.QualifiedID, o.BranchID, o.ChannelOrderID, o.Event, o.VoucherCode, o.Bundling,
		o.AppointmentAt, o.ReceivedAt, o.UpdatedStageAt, o.WalkinAt).Scan(&id)
	return id, db.MapError(err)
}

// Update rewrites every column except the kind, which never changes.
func (r *repository) Update(ctx context.Context, o Order) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET order_date = $2, source = NULLIF($3, ''), customer_name = NULLIF($4, ''),
       customer_address = NULLIF($5, ''), customer_phone = NULLIF($6, ''), user_id = $7, car_id = $8,
       qualified_id = $9, branch_id = $10, channel_order_id = NULLIF($11, ''), event = NULLIF($12, ''),
       voucher_code = NULLIF($13, ''), bundling = NULLIF($14, ''), appointment_at = $15, received_at = $16,
       updated_stage_at = $17, walkin_at = $18, updated_at = NOW()
WHERE id = $1 AND kind = $19`,
		o.ID, o.OrderDate, o.Source, o.CustomerName, o.CustomerAddress, o.CustomerPhone,
		o.UserID, o.CarID, o.QualifiedID, o.BranchID, o.ChannelOrderID, o.Event, o.VoucherCode, o.Bundling,
		o.AppointmentAt, o.ReceivedAt, o.UpdatedStageAt, o.WalkinAt, string(o.Kind))
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an order of kind. Orders grouped under a deleted qualified
// order are detached by the foreign key.
func (r *repository) Delete(ctx context.Context, kind Kind, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND ($2::text = '' OR kind = $2::text)`, id, string(kind))
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

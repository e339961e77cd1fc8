package cars

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showroom-admin/backoffice/internal/platform/db"
	"github.com/showroom-admin/backoffice/internal/shared"
)

type Repository interface {
	List(ctx context.Context, q shared.ListQuery) ([]Car, int, error)
	Get(ctx context.Context, id int64) (Car, error)
	BranchExists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, car Car) (int64, error)
	Update(ctx context.Context, car Car) error
	Delete(ctx context.Context, id int64) error
}

var (
	textColumns = db.ColumnSet{
		"brand":        "c.brand",
		"model":        "c.model",
		"variant":      "c.variant",
		"fuel":         "c.fuel",
		"transmission": "c.transmission",
		"plate_no":     "c.plate_no",
	}
	filterColumns = db.ColumnSet{
		"brand":        "c.brand",
		"model":        "c.model",
		"variant":      "c.variant",
		"fuel":         "c.fuel",
		"transmission": "c.transmission",
		"branch":       "c.branch_id",
	}
	sortColumns = db.ColumnSet{
		"brand":        "c.brand",
		"model":        "c.model",
		"variant":      "c.variant",
		"fuel":         "c.fuel",
		"transmission": "c.transmission",
		"plate_no":     "c.plate_no",
		"branch":       "b.code",
	}
)

const selectCar = `SELECT c.id, COALESCE(c.brand, ''), COALESCE(c.model, ''), COALESCE(c.variant, ''), COALESCE(c.fuel, ''),
       COALESCE(c.transmission, ''), COALESCE(c.plate_no, ''), c.branch_id, b.code, c.created_at, c.updated_at
FROM cars c
JOIN branches b ON b.id = c.branch_id`

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func scanCar(row pgx.Row) (Car, error) {
	var c Car
	err := row.Scan(&c.ID, &c.Brand, &c.Model, &c.Variant, &c.Fuel, &c.Transmission, &c.PlateNo,
		&c.BranchID, &c.BranchCode, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context, q shared.ListQuery) ([]Car, int, error) {
	var w db.Where
	w.ApplyListQuery(q, textColumns, filterColumns)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cars c`+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, selectCar+w.SQL()+db.OrderBy(q, sortColumns, "c.id ASC")+w.Page(q), w.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var cars []Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, 0, err
		}
		cars = append(cars, c)
	}
	return cars, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Car, error) {
	c, err := scanCar(r.db.QueryRow(ctx, selectCar+` WHERE c.id = $1`, id))
	return c, db.MapError(err)
}

func (r *repository) BranchExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM branches WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, car Car) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO cars (brand, model, variant, fuel, transmission, plate_no, branch_id)
VALUES (NULLIF($1, ''), NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)
RETURNING id`,
		car.Brand, car.Model, car.Variant, car.Fuel, car.Transmission, car.PlateNo, car.BranchID).Scan(&id)
	return id, db.MapError(err)
}

func (r *repository) Update(ctx context.Context, car Car) error {
	tag, err := r.db.Exec(ctx, `UPDATE cars SET brand = NULLIF($1, ''), model = NULLIF($2, ''), variant = NULLIF($3, ''),
       fuel = NULLIF($4, ''), transmission = NULLIF($5, ''), plate_no = NULLIF($6, ''), branch_id = $7, updated_at = NOW()
WHERE id = $8`,
		car.Brand, car.Model, car.Variant, car.Fuel, car.Transmission, car.PlateNo, car.BranchID, car.ID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete fails with shared.ErrReferenced while orders use the car.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

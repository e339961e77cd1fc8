package cars

import (
	"strings"
	"time"
)

// Car is a vehicle held in a branch's inventory.
type Car struct {
	ID           int64     `json:"id"`
	Brand        string    `json:"brand"`
	Model        string    `json:"model"`
	Variant      string    `json:"variant"`
	Fuel         string    `json:"fuel"`
	Transmission string    `json:"transmission"`
	PlateNo      string    `json:"plate_no"`
	BranchID     int64     `json:"branch_id"`
	BranchCode   string    `json:"branch_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Label joins the descriptive columns and the plate number.
func (c Car) Label() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{c.Brand, c.Model, c.Variant, c.Fuel, c.Transmission, c.PlateNo} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

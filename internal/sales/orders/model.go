package orders

import (
	"strings"
	"time"
)

// Kind discriminates the order sub-types stored in the orders table.
type Kind string

const (
	KindOrder     Kind = "order"
	KindSeva      Kind = "seva_order"
	KindM88       Kind = "m88_order"
	KindQualified Kind = "qualified_order"
)

// Channel sources pinned by the channel order kinds.
const (
	SourceSeva  = "seva"
	SourceM88   = "m88"
	SourceSales = "sales"
)

// ChannelSource returns the source every order of kind must carry, or ""
// when the kind does not pin its source.
func (k Kind) ChannelSource() string {
	switch k {
	case KindSeva:
		return SourceSeva
	case KindM88:
		return SourceM88
	case KindQualified:
		return SourceSales
	default:
		return ""
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindOrder, KindSeva, KindM88, KindQualified:
		return true
	}
	return false
}

// Order is one row of the orders table. Channel columns are only meaningful
// for their kind.
type Order struct {
	ID              int64      `json:"id" db:"id"`
	Kind            Kind       `json:"kind" db:"kind"`
	OrderDate       *time.Time `json:"order_date,omitempty" db:"order_date"`
	Source          string     `json:"source" db:"source"`
	CustomerName    string     `json:"customer_name" db:"customer_name"`
	CustomerAddress string     `json:"customer_address" db:"customer_address"`
	CustomerPhone   string     `json:"customer_phone" db:"customer_phone"`
	UserID          *int64     `json:"user_id,omitempty" db:"user_id"`
	CarID           int64      `json:"car_id" db:"car_id"`
	QualifiedID     *int64     `json:"qualified_id,omitempty" db:"qualified_id"`
	BranchID        *int64     `json:"branch_id,omitempty" db:"branch_id"`

	// SevaOrder and M88Order
	ChannelOrderID string `json:"channel_order_id,omitempty" db:"channel_order_id"`
	// SevaOrder
	Event       string `json:"event,omitempty" db:"event"`
	VoucherCode string `json:"voucher_code,omitempty" db:"voucher_code"`
	Bundling    string `json:"bundling,omitempty" db:"bundling"`
	// M88Order and QualifiedOrder
	AppointmentAt *time.Time `json:"appointment_at,omitempty" db:"appointment_at"`
	// QualifiedOrder
	ReceivedAt     *time.Time `json:"received_at,omitempty" db:"received_at"`
	UpdatedStageAt *time.Time `json:"updated_stage_at,omitempty" db:"updated_stage_at"`
	WalkinAt       *time.Time `json:"walkin_at,omitempty" db:"walkin_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OrderWithDetails carries the display labels of the referenced rows.
type OrderWithDetails struct {
	Order
	UserName       string `json:"user_name"`
	CarLabel       string `json:"car_label"`
	QualifiedLabel string `json:"qualified_label"`
	BranchCode     string `json:"branch_code"`
	// GroupedOrders counts the orders pointing at a qualified order.
	GroupedOrders int `json:"grouped_orders"`
}

// Label names the order by customer and car.
func (o OrderWithDetails) Label() string {
	return strings.TrimSpace(o.CustomerName + " " + o.CarLabel)
}

// clearForeign zeroes the channel columns that do not belong to the kind.
func (o *Order) clearForeign() {
	if o.Kind != KindSeva && o.Kind != KindM88 {
		o.ChannelOrderID = ""
	}
	if o.Kind != KindSeva {
		o.Event, o.VoucherCode, o.Bundling = "", "", ""
	}
	if o.Kind != KindM88 && o.Kind != KindQualified {
		o.AppointmentAt = nil
	}
	if o.Kind != KindQualified {
		o.ReceivedAt, o.UpdatedStageAt, o.WalkinAt = nil, nil, nil
	}
}

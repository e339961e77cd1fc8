package orders

import "time"

// OrderForm carries validated order input for every kind.
type OrderForm struct {
	OrderDate       *time.Time `form:"order_date"`
	Source          string     `form:"source" validate:"max=20"`
	CustomerName    string     `form:"customer_name" validate:"max=50"`
	CustomerAddress string     `form:"customer_address" validate:"max=50"`
	CustomerPhone   string     `form:"customer_phone" validate:"max=13"`
	UserID          *int64     `form:"user"`
	CarID           int64      `form:"car" validate:"gt=0"`
	QualifiedID     *int64     `form:"qualified"`
	BranchID        *int64     `form:"branch"`

	ChannelOrderID string `form:"channel_order_id" validate:"max=50"`
	Event          string `form:"event" validate:"max=50"`
	VoucherCode    string `form:"voucher_code" validate:"max=50"`
	Bundling       string `form:"bundling" validate:"max=50"`

	AppointmentAt  *time.Time `form:"appointment_at"`
	ReceivedAt     *time.Time `form:"received_at"`
	UpdatedStageAt *time.Time `form:"updated_stage_at"`
	WalkinAt       *time.Time `form:"walkin_at"`
}

// FormOf returns the form representation of an existing order.
func FormOf(o Order) OrderForm {
	return OrderForm{
		OrderDate:       o.OrderDate,
		Source:          o.Source,
		CustomerName:    o.CustomerName,
		CustomerAddress: o.CustomerAddress,
		CustomerPhone:   o.CustomerPhone,
		UserID:          o.UserID,
		CarID:           o.CarID,
		QualifiedID:     o.QualifiedID,
		BranchID:        o.BranchID,
		ChannelOrderID:  o.ChannelOrderID,
		Event:           o.Event,
		VoucherCode:     o.VoucherCode,
		Bundling:        o.Bundling,
		AppointmentAt:   o.AppointmentAt,
		ReceivedAt:      o.ReceivedAt,
		UpdatedStageAt:  o.UpdatedStageAt,
		WalkinAt:        o.WalkinAt,
	}
}

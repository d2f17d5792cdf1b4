package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

// 注文から見た支払い状況
type OrderPaymentStatus string

const (
	OrderPaymentUnpaid OrderPaymentStatus = "UNPAID"
	OrderPaymentPaid   OrderPaymentStatus = "PAID"
	OrderPaymentFailed OrderPaymentStatus = "FAILED"
)

// 注文確定時点の合計を保持。明細の価格はその後変わらない。
type Order struct {
	ID              int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64              `gorm:"not null;index;uniqueIndex:uq_orders_user_idem" json:"user_id"`
	TotalAmount     int64              `gorm:"not null" json:"total_amount"`
	ShippingAddress string             `gorm:"type:text;not null" json:"shipping_address"`
	PaymentMethod   string             `gorm:"type:varchar(50);not null" json:"payment_method"`
	Status          OrderStatus        `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus   OrderPaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	IdempotencyKey  *string            `gorm:"type:varchar(255);uniqueIndex:uq_orders_user_idem" json:"-"`
	CreatedAt       time.Time          `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

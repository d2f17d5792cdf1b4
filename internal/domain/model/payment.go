package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// 1回の支払い試行。金額は注文合計のスナップショット。
type Payment struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64         `gorm:"not null;index" json:"user_id"`
	OrderID       int64         `gorm:"not null;index" json:"order_id"`
	Amount        int64         `gorm:"not null" json:"amount"`
	Method        string        `gorm:"type:varchar(50);not null" json:"method"`
	Status        PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TransactionID string        `gorm:"type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	CreatedAt     time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/domain/model"
)

// 二重送信キーの競合（同じキーが同時に入った）
var ErrDuplicateKey = errors.New("duplicate key")

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// 顧客スコープ：自分の注文だけ
	ListByUserID(ctx context.Context, userID int64, status string, page int, limit int) ([]model.Order, int64, error)
	// 出品者スコープ：自分の商品を1点以上含む注文だけ（SQL側で絞る）
	ListBySellerID(ctx context.Context, sellerID int64, status string, page int, limit int) ([]model.Order, int64, error)
	// 出品者が注文を見てよいか（明細に自分の商品を含むか）
	ContainsSellerProduct(ctx context.Context, orderID int64, sellerID int64) (bool, error)
	// 管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	// 支払い結果の波及（注文側のpayment_statusと、必要ならstatus）
	UpdatePaymentOutcome(ctx context.Context, orderID int64, paymentStatus model.OrderPaymentStatus, status *model.OrderStatus) error

	// 検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
}

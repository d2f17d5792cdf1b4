package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (int64, error)
	FindByID(ctx context.Context, paymentID int64) (model.Payment, error)
	// 読み取り直後の書き込みを直列化するためロック付きで取得
	FindByIDForUpdate(ctx context.Context, paymentID int64) (model.Payment, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.Payment, error)
	UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus) error
}

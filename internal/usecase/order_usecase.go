package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	"marketplace/internal/pricing"
	repo "marketplace/internal/repository"
)

type OrderUsecase struct {
	tx    repo.TransactionManager
	carts repo.CartRepository
	log   *slog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, carts repo.CartRepository, log *slog.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, carts: carts, log: log}
}

type OrderLineInput struct {
	ProductID int64
	Quantity  int64
}

type CreateOrderInput struct {
	Items           []OrderLineInput
	ShippingAddress string
	PaymentMethod   string
	IdempotencyKey  string
}

type ListOrdersInput struct {
	Status string
	Page   int
	Limit  int
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type PaymentAttemptOutput struct {
	ID            int64     `json:"id"`
	Amount        int64     `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type OrderOutput struct {
	ID              int64                  `json:"id"`
	UserID          int64                  `json:"user_id"`
	Status          string                 `json:"status"`
	PaymentStatus   string                 `json:"payment_status"`
	TotalAmount     int64                  `json:"total_amount"`
	ShippingAddress string                 `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	CreatedAt       time.Time              `json:"created_at"`
	Items           []OrderItemOutput      `json:"items"`
	Payments        []PaymentAttemptOutput `json:"payments,omitempty"`
}

// CreateOrder は明細入力から注文を確定する。
// 合計は必ずサーバー側で計算し、クライアントの価格は一切信用しない。
func (u *OrderUsecase) CreateOrder(ctx context.Context, callerID int64, role model.Role, in CreateOrderInput) (OrderOutput, error) {
	if callerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if role != model.RoleCustomer && role != model.RoleAdmin {
		return OrderOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "items required")
	}
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "shipping_address required")
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "payment_method required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if it.Quantity < 1 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	var out OrderOutput

	// 注文＋明細＋在庫は1トランザクション（全部入るか、何も入らないか）
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果（キー無しなら重複ガードもしない）
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, callerID, key)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if found {
				items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				out = toOrderOutput(existing, items)
				return nil
			}
		}

		// カタログ事実を1クエリで取得（N+1禁止）
		ids := make([]int64, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := r.Products().FindByIDs(ctx, ids)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 非公開商品は存在しない扱い
		facts := make(map[int64]pricing.Fact, len(products))
		for id, p := range products {
			if !p.IsActive {
				continue
			}
			facts[id] = pricing.Fact{Price: p.Price, Discount: p.Discount}
		}

		lines := make([]pricing.Line, 0, len(in.Items))
		for _, it := range in.Items {
			lines = append(lines, pricing.Line{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		quote, err := pricing.Quote(facts, lines)
		if err != nil {
			if pe, ok := pricing.AsProductNotFound(err); ok {
				return NewHTTPError(http.StatusNotFound, pe.Error())
			}
			return NewHTTPError(http.StatusBadRequest, "invalid items")
		}

		// 在庫を確定時に再チェックして減らす
		now := time.Now()
		orderItems := make([]model.OrderItem, 0, len(quote.Lines))
		for _, ln := range quote.Lines {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ln.ProductID, ln.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID:           ln.ProductID,
				ProductNameSnapshot: products[ln.ProductID].Name,
				UnitPriceSnapshot:   ln.UnitPrice,
				Quantity:            ln.Quantity,
				CreatedAt:           now,
			})
		}

		order := model.Order{
			UserID:          callerID,
			TotalAmount:     quote.Total,
			ShippingAddress: address,
			PaymentMethod:   method,
			Status:          model.OrderStatusPending,
			PaymentStatus:   model.OrderPaymentUnpaid,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if key != "" {
			order.IdempotencyKey = &key
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			// 同時に同じキーが入った場合はもう一度検索して同じ結果を返す
			if err == repo.ErrDuplicateKey && key != "" {
				ex, found, err2 := r.Orders().FindByIdempotencyKey(ctx, callerID, key)
				if err2 == nil && found {
					items, err3 := r.OrderItems().ListByOrderID(ctx, ex.ID)
					if err3 != nil {
						return NewHTTPError(http.StatusInternalServerError, "db error")
					}
					out = toOrderOutput(ex, items)
					return nil
				}
				return NewHTTPError(http.StatusConflict, "idempotency conflict")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	// 注文が真実。カートの後始末は失敗してもロールバックしない。
	u.invalidateCart(ctx, callerID, out.ID)

	return out, nil
}

// 注文確定後のカート無効化。ベストエフォートで、失敗はログだけ残す。
func (u *OrderUsecase) invalidateCart(ctx context.Context, userID int64, orderID int64) {
	cart, err := u.carts.FindActiveByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return
	}
	if err != nil {
		u.log.Warn("cart lookup after order failed", "user_id", userID, "order_id", orderID, "error", err)
		return
	}

	if err := u.carts.UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
		u.log.Warn("cart status update after order failed", "cart_id", cart.ID, "order_id", orderID, "error", err)
	}
	if err := u.carts.Clear(ctx, cart.ID); err != nil {
		u.log.Warn("cart clear after order failed", "cart_id", cart.ID, "order_id", orderID, "error", err)
	}
}

// ListOrders は呼び出し手のロールでスコープを切り替える。
// 顧客=自分の注文、出品者=自分の商品を含む注文、管理者=全件。
func (u *OrderUsecase) ListOrders(ctx context.Context, callerID int64, role model.Role, in ListOrdersInput) ([]OrderOutput, error) {
	if callerID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	status := strings.TrimSpace(in.Status)
	switch status {
	case "", "PENDING", "PROCESSING", "DELIVERED":
	default:
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var orders []model.Order
		var err error

		switch role {
		case model.RoleAdmin:
			orders, _, err = r.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{
				Page:   page,
				Limit:  limit,
				Status: status,
			})
		case model.RoleSeller:
			orders, _, err = r.Orders().ListBySellerID(ctx, callerID, status, page, limit)
		default:
			orders, _, err = r.Orders().ListByUserID(ctx, callerID, status, page, limit)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetOrderDetail(ctx context.Context, callerID int64, role model.Role, orderID int64) (OrderOutput, error) {
	if callerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 見えない注文は「存在しない扱い」にする
		switch role {
		case model.RoleAdmin:
		case model.RoleSeller:
			ok, err := r.Orders().ContainsSellerProduct(ctx, orderID, callerID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
		default:
			if o.UserID != callerID {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		payments, err := r.Payments().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		for _, p := range payments {
			out.Payments = append(out.Payments, PaymentAttemptOutput{
				ID:            p.ID,
				Amount:        p.Amount,
				Method:        p.Method,
				Status:        string(p.Status),
				TransactionID: p.TransactionID,
				CreatedAt:     p.CreatedAt,
			})
		}
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}

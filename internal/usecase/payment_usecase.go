package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/google/uuid"
)

type PaymentUsecase struct {
	tx repo.TransactionManager
}

func NewPaymentUsecase(tx repo.TransactionManager) *PaymentUsecase {
	return &PaymentUsecase{tx: tx}
}

type RecordPaymentInput struct {
	OrderID int64
	Method  string
}

type UpdatePaymentStatusInput struct {
	Status string
}

type PaymentOutput struct {
	ID            int64       `json:"id"`
	OrderID       int64       `json:"order_id"`
	UserID        int64       `json:"user_id"`
	Amount        int64       `json:"amount"`
	Method        string      `json:"method"`
	Status        string      `json:"status"`
	TransactionID string      `json:"transaction_id"`
	CreatedAt     time.Time   `json:"created_at"`
	Order         OrderOutput `json:"order"`
}

// RecordPayment は注文に対する支払い試行を記録する。
// 金額は注文合計のスナップショット。クライアントからは受け取らない。
func (u *PaymentUsecase) RecordPayment(ctx context.Context, callerID int64, role model.Role, in RecordPaymentInput) (PaymentOutput, error) {
	if callerID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if role != model.RoleCustomer && role != model.RoleAdmin {
		return PaymentOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if in.OrderID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "method required")
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, in.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		// 他人の注文は「存在しない扱い」
		if role != model.RoleAdmin && o.UserID != callerID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		now := time.Now()
		p := model.Payment{
			UserID:        o.UserID,
			OrderID:       o.ID,
			Amount:        o.TotalAmount,
			Method:        method,
			Status:        model.PaymentStatusPending,
			TransactionID: uuid.NewString(),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		paymentID, err := r.Payments().Create(ctx, p)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		p.ID = paymentID
		out = toPaymentOutput(p, o)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

// UpdatePaymentStatus は報告された支払い結果を遷移表で判定し、
// 支払いレコードと注文ステータスを同一トランザクションで更新する。
// 支払いだけCOMPLETEDで注文がUNPAID、のような中間状態は外から見えない。
func (u *PaymentUsecase) UpdatePaymentStatus(ctx context.Context, callerID int64, role model.Role, paymentID int64, in UpdatePaymentStatusInput) (PaymentOutput, error) {
	if callerID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	// 支払いステータスはセルフサービスではない
	if role != model.RoleAdmin {
		return PaymentOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	reported := model.PaymentStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	switch reported {
	case model.PaymentStatusPending, model.PaymentStatusCompleted, model.PaymentStatusFailed:
	default:
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// FOR UPDATEで取り、並行する報告を直列化する
		p, err := r.Payments().FindByIDForUpdate(ctx, paymentID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		tr, err := model.NextPaymentTransition(p.Status, reported)
		if err == model.ErrConflictingTransition {
			return NewHTTPError(http.StatusConflict, "conflicting transition")
		}
		if err != nil {
			return NewHTTPError(http.StatusBadRequest, "invalid status")
		}

		// 同じ終端の再報告は何も書かずに現状を返す
		if tr.Noop {
			out = toPaymentOutput(p, o)
			return nil
		}

		if err := r.Payments().UpdateStatus(ctx, paymentID, tr.PaymentStatus); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 注文側がすでにPAIDなら波及させない。
		// 別の支払いで確定済みの注文を、残っていたPENDING試行が巻き戻してはいけない。
		if o.PaymentStatus != model.OrderPaymentPaid {
			var nextOrderStatus *model.OrderStatus
			if tr.OrderStatus != "" {
				s := tr.OrderStatus
				nextOrderStatus = &s
			}
			if err := r.Orders().UpdatePaymentOutcome(ctx, o.ID, tr.OrderPaymentStatus, nextOrderStatus); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			o.PaymentStatus = tr.OrderPaymentStatus
			if tr.OrderStatus != "" {
				o.Status = tr.OrderStatus
			}
		}

		// 監査ログ（UPDATE_PAYMENT_STATUS）
		beforeJSON := `{"status":"` + string(p.Status) + `"}`
		afterJSON := `{"status":"` + string(tr.PaymentStatus) + `"}`
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  callerID,
			Action:       model.AuditActionUpdatePaymentStatus,
			ResourceType: model.AuditResourcePayment,
			ResourceID:   paymentID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		p.Status = tr.PaymentStatus
		out = toPaymentOutput(p, o)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

// GetPayment は所有者か管理者だけが読める。
func (u *PaymentUsecase) GetPayment(ctx context.Context, callerID int64, role model.Role, paymentID int64) (PaymentOutput, error) {
	if callerID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByID(ctx, paymentID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if role != model.RoleAdmin && p.UserID != callerID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toPaymentOutput(p, o)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

func toPaymentOutput(p model.Payment, o model.Order) PaymentOutput {
	return PaymentOutput{
		ID:            p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		Method:        p.Method,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
		Order:         toOrderOutput(o, nil),
	}
}

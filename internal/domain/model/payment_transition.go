package model

import "errors"

// 終端ステータスを矛盾した報告で上書きしようとした
var ErrConflictingTransition = errors.New("conflicting transition")

// 不明な支払いステータス
var ErrUnknownPaymentStatus = errors.New("unknown payment status")

// 支払いステータス更新が注文へ波及させる内容。
// Noopなら何も書かない（同じ終端の再報告など）。
// OrderStatusが空なら注文ステータスは変更しない。
type PaymentTransition struct {
	Noop               bool
	PaymentStatus      PaymentStatus
	OrderPaymentStatus OrderPaymentStatus
	OrderStatus        OrderStatus
}

// 遷移表：(現在の支払いステータス, 報告されたステータス) → 波及内容。
// COMPLETED/FAILEDは終端。同じ終端の再報告はNoop、矛盾する報告は拒否。
func NextPaymentTransition(current PaymentStatus, reported PaymentStatus) (PaymentTransition, error) {
	switch reported {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
	default:
		return PaymentTransition{}, ErrUnknownPaymentStatus
	}

	switch current {
	case PaymentStatusPending:
		switch reported {
		case PaymentStatusPending:
			return PaymentTransition{Noop: true}, nil
		case PaymentStatusCompleted:
			return PaymentTransition{
				PaymentStatus:      PaymentStatusCompleted,
				OrderPaymentStatus: OrderPaymentPaid,
				OrderStatus:        OrderStatusProcessing,
			}, nil
		case PaymentStatusFailed:
			// 支払い失敗は注文ステータスを進めない
			return PaymentTransition{
				PaymentStatus:      PaymentStatusFailed,
				OrderPaymentStatus: OrderPaymentFailed,
			}, nil
		}

	case PaymentStatusCompleted:
		if reported == PaymentStatusCompleted {
			return PaymentTransition{Noop: true}, nil
		}
		return PaymentTransition{}, ErrConflictingTransition

	case PaymentStatusFailed:
		if reported == PaymentStatusFailed {
			return PaymentTransition{Noop: true}, nil
		}
		return PaymentTransition{}, ErrConflictingTransition
	}

	return PaymentTransition{}, ErrUnknownPaymentStatus
}

package usecase

import (
	"context"
	"net/http"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// 管理者向けの監査ログ閲覧。書き込みは各ユースケースが行い、ここは読むだけ。
type AdminAuditUsecase struct {
	tx repo.TransactionManager
}

func NewAdminAuditUsecase(tx repo.TransactionManager) *AdminAuditUsecase {
	return &AdminAuditUsecase{tx: tx}
}

func validAuditAction(a model.AuditAction) bool {
	switch a {
	case model.AuditActionUpdateStock, model.AuditActionUpdatePaymentStatus, model.AuditActionMarkOrderDelivered:
		return true
	}
	return false
}

func validAuditResourceType(rt model.AuditResourceType) bool {
	switch rt {
	case model.AuditResourceProduct, model.AuditResourceOrder, model.AuditResourcePayment:
		return true
	}
	return false
}

func (u *AdminAuditUsecase) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit < 1 || f.Limit > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	if f.Action != nil && !validAuditAction(*f.Action) {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid action")
	}
	if f.ResourceType != nil && !validAuditResourceType(*f.ResourceType) {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
	}

	var logs []model.AuditLog

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		logs, err = r.AuditLogs().List(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}

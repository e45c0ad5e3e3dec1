package repository

import (
	"errors"

	"cakery_api/internal/domain/payment/model"
	"cakery_api/pkg/apperr"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreateAttempt(a *model.PaymentAttempt) error
	GetByCheckoutRequestID(id string) (*model.PaymentAttempt, error)
	GetLatestByAccountReference(ref string) (*model.PaymentAttempt, error)
	LatestAttempt(orderID uint) (*model.PaymentAttempt, error)

	// MarkPushed moves a queued attempt to pending and records the gateway
	// correlation ids. False when the attempt already left queued.
	MarkPushed(attemptID uint, checkoutRequestID, merchantRequestID string) (bool, error)

	// FailQueued marks a queued attempt conclusively failed (push never
	// accepted after retries).
	FailQueued(attemptID uint, resultDesc string) (bool, error)

	// Settle finalizes a pending attempt. Returns false when the attempt was
	// already settled, which is how duplicate callback delivery collapses
	// into a no-op.
	Settle(attemptID uint, status, receipt, resultDesc string) (bool, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreateAttempt(a *model.PaymentAttempt) error {
	return r.db.Create(a).Error
}

func (r *paymentRepository) GetByCheckoutRequestID(id string) (*model.PaymentAttempt, error) {
	var attempt model.PaymentAttempt
	err := r.db.Where("checkout_request_id = ?", id).First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "Payment attempt"}
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *paymentRepository) GetLatestByAccountReference(ref string) (*model.PaymentAttempt, error) {
	var attempt model.PaymentAttempt
	err := r.db.Where("account_reference = ?", ref).
		Order("created_at DESC").First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "Payment attempt"}
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *paymentRepository) LatestAttempt(orderID uint) (*model.PaymentAttempt, error) {
	var attempt model.PaymentAttempt
	err := r.db.Where("order_id = ?", orderID).
		Order("created_at DESC").First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "Payment attempt"}
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *paymentRepository) MarkPushed(attemptID uint, checkoutRequestID, merchantRequestID string) (bool, error) {
	res := r.db.Model(&model.PaymentAttempt{}).
		Where("id = ? AND status = ?", attemptID, model.AttemptQueued).
		Updates(map[string]interface{}{
			"status":              model.AttemptPending,
			"checkout_request_id": checkoutRequestID,
			"merchant_request_id": merchantRequestID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *paymentRepository) FailQueued(attemptID uint, resultDesc string) (bool, error) {
	res := r.db.Model(&model.PaymentAttempt{}).
		Where("id = ? AND status = ?", attemptID, model.AttemptQueued).
		Updates(map[string]interface{}{
			"status":      model.AttemptFailed,
			"result_desc": resultDesc,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *paymentRepository) Settle(attemptID uint, status, receipt, resultDesc string) (bool, error) {
	res := r.db.Model(&model.PaymentAttempt{}).
		Where("id = ? AND status = ?", attemptID, model.AttemptPending).
		Updates(map[string]interface{}{
			"status":         status,
			"receipt_number": receipt,
			"result_desc":    resultDesc,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

package repository

import (
	"errors"

	"warsha/internal/models"

	"gorm.io/gorm"
)

type PaymentRecordRepository struct {
	db *gorm.DB
}

func NewPaymentRecordRepository(db *gorm.DB) *PaymentRecordRepository {
	return &PaymentRecordRepository{db: db}
}

func (r *PaymentRecordRepository) Create(p *models.PaymentRecord) error {
	return r.db.Create(p).Error
}

// GetBySessionID returns (nil, nil) when no record matches, so callers can
// tell "not found" apart from a store failure.
func (r *PaymentRecordRepository) GetBySessionID(sessionID string) (*models.PaymentRecord, error) {
	return r.first("session_id = ?", sessionID)
}

func (r *PaymentRecordRepository) GetByMerchantOrderID(orderID string) (*models.PaymentRecord, error) {
	return r.first("merchant_order_id = ?", orderID)
}

func (r *PaymentRecordRepository) GetByProviderOrderRef(ref string) (*models.PaymentRecord, error) {
	return r.first("provider_order_ref = ?", ref)
}

func (r *PaymentRecordRepository) Update(p *models.PaymentRecord) error {
	return r.db.Save(p).Error
}

func (r *PaymentRecordRepository) first(query string, arg string) (*models.PaymentRecord, error) {
	if arg == "" {
		return nil, nil
	}
	var p models.PaymentRecord
	err := r.db.Where(query, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

package models

import (
	"time"
)

// Payment statuses considered "money received" by the gateway.
const (
	StatusCreated    = "CREATED"
	StatusPaid       = "PAID"
	StatusCaptured   = "CAPTURED"
	StatusAuthorized = "AUTHORIZED"
)

// IsSuccessStatus reports whether a gateway status counts as a settled payment.
func IsSuccessStatus(status string) bool {
	switch status {
	case StatusPaid, StatusCaptured, StatusAuthorized:
		return true
	}
	return false
}

// PaymentRecord is one payment attempt. SessionID is assigned by the gateway
// and may be empty right after creation if the provider response omitted it;
// MerchantOrderID is ours and is the fallback correlation key for webhooks.
type PaymentRecord struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	SessionID        string  `gorm:"size:128;index" json:"session_id"`
	MerchantOrderID  string  `gorm:"size:128;index" json:"merchant_order_id"`
	ProviderOrderRef string  `gorm:"size:128;index" json:"provider_order_ref"`
	Status           string  `gorm:"size:32;not null;index" json:"status"` // CREATED, PAID, CAPTURED, AUTHORIZED, FAILED, ...
	Amount           float64 `gorm:"type:decimal(12,2)" json:"amount"`
	Currency         string  `gorm:"size:3;default:'EGP'" json:"currency"`
	Description      string  `gorm:"size:255" json:"description"`

	CustomerEmail     string `gorm:"size:255" json:"customer_email"`
	CustomerReference string `gorm:"size:255" json:"customer_reference"`
	User              string `gorm:"type:text" json:"user"` // JSON, caller-supplied context
	Age               int    `json:"age"`
	MetaData          string `gorm:"type:text" json:"meta_data"` // JSON

	Response        string `gorm:"type:text" json:"response"`     // raw session-create payload from the gateway
	Verification    string `gorm:"type:text" json:"verification"` // raw payload of the last verification
	ReceiptSent     bool   `gorm:"default:false" json:"receipt_sent"`
	ReceiptResponse string `gorm:"type:text" json:"receipt_response"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	VerifiedAt *time.Time `json:"verified_at"`
	EmailedAt  *time.Time `json:"emailed_at"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}

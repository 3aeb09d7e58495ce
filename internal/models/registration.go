package models

import "time"

// Registration is best-effort bookkeeping for a forwarded workshop
// registration. The automation (Apps Script) owns the real submission; a
// failed row write here is logged and swallowed, never surfaced to the caller.
type Registration struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WorkshopID  string    `gorm:"size:128;index" json:"workshop_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255;not null" json:"email"`
	Phone       string    `gorm:"size:64" json:"phone"`
	Age         int       `json:"age"`
	Governorate string    `gorm:"size:128" json:"governorate"`
	Forwarded   bool      `json:"forwarded"`
	Error       string    `gorm:"type:text" json:"error"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Registration) TableName() string {
	return "registrations"
}

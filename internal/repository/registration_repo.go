package repository

import (
	"warsha/internal/models"

	"gorm.io/gorm"
)

type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) Create(reg *models.Registration) error {
	return r.db.Create(reg).Error
}

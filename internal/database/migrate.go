package database

import (
	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Vacancy{},
		&domain.ContactUnlockToken{},
		&domain.UnlockedContact{},
		&domain.Complaint{},
		&domain.ComplaintActionLog{},
		&domain.VerificationCode{},
	)
}

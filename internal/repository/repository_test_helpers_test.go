package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// sqlite allows a single writer; one pooled connection keeps concurrent
	// test goroutines queued instead of failing with lock errors.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Vacancy{},
		&domain.ContactUnlockToken{},
		&domain.UnlockedContact{},
		&domain.Complaint{},
		&domain.ComplaintActionLog{},
		&domain.VerificationCode{},
	); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func createTestVacancy(t *testing.T, db *gorm.DB, mutate func(*domain.Vacancy)) *domain.Vacancy {
	t.Helper()
	now := time.Now().UTC()
	v := &domain.Vacancy{
		Title:       "Warehouse operative",
		Country:     domain.CountryPoland,
		City:        "Warsaw",
		Category:    domain.CategoryService,
		Salary:      "1500-2500 EUR",
		Description: "Test vacancy",
		Source:      domain.SourceDirect,
		CreatedByID: 1,
		Phone:       "+48123456789",
		Whatsapp:    "+48123456789",
		PublishedAt: now,
		ExpiresAt:   now.Add(720 * time.Hour),
	}
	if mutate != nil {
		mutate(v)
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create vacancy: %v", err)
	}
	return v
}

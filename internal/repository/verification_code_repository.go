package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
)

var ErrVerificationCodeNotFound = errors.New("verification code not found")

type VerificationCodeRepository interface {
	// IssueExclusive stores a new code and, in the same transaction, marks
	// every outstanding code for the same (subject, purpose) as used.
	IssueExclusive(code *domain.VerificationCode) error
	FindActive(subject, purpose string, now time.Time) (*domain.VerificationCode, error)
	Consume(id uint, now time.Time) error
	// IncrementAttempts bumps the failed-attempt counter, saturating at the
	// cap, and returns the stored count.
	IncrementAttempts(id uint) (int, error)
	LastIssuedAt(subject, purpose string) (*time.Time, error)
}

type GormVerificationCodeRepository struct{ db *gorm.DB }

func NewVerificationCodeRepository(db *gorm.DB) VerificationCodeRepository {
	return &GormVerificationCodeRepository{db: db}
}

func (r *GormVerificationCodeRepository) IssueExclusive(code *domain.VerificationCode) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		err := tx.Model(&domain.VerificationCode{}).
			Where("subject = ? AND purpose = ? AND used = ?", code.Subject, code.Purpose, false).
			Updates(map[string]any{"used": true, "used_at": now}).Error
		if err != nil {
			return err
		}
		return tx.Create(code).Error
	})
}

func (r *GormVerificationCodeRepository) FindActive(subject, purpose string, now time.Time) (*domain.VerificationCode, error) {
	var code domain.VerificationCode
	err := r.db.
		Where("subject = ? AND purpose = ? AND used = ? AND expires_at > ?", subject, purpose, false, now).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationCodeNotFound
		}
		return nil, err
	}
	return &code, nil
}

func (r *GormVerificationCodeRepository) Consume(id uint, now time.Time) error {
	res := r.db.Model(&domain.VerificationCode{}).
		Where("id = ? AND used = ?", id, false).
		Updates(map[string]any{"used": true, "used_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVerificationCodeNotFound
	}
	return nil
}

func (r *GormVerificationCodeRepository) IncrementAttempts(id uint) (int, error) {
	res := r.db.Model(&domain.VerificationCode{}).
		Where("id = ? AND attempts < ?", id, domain.MaxCodeAttempts).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	var code domain.VerificationCode
	if err := r.db.First(&code, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrVerificationCodeNotFound
		}
		return 0, err
	}
	return code.Attempts, nil
}

func (r *GormVerificationCodeRepository) LastIssuedAt(subject, purpose string) (*time.Time, error) {
	var code domain.VerificationCode
	err := r.db.
		Where("subject = ? AND purpose = ?", subject, purpose).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := code.CreatedAt
	return &t, nil
}

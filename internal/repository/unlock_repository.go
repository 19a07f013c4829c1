package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
)

var (
	ErrUnlockTokenNotFound = errors.New("unlock token not found")
	ErrUnlockTokenExpired  = errors.New("unlock token expired")
)

type UnlockRepository interface {
	CreateToken(token *domain.ContactUnlockToken) error
	IsUnlocked(userID, vacancyID uint) (bool, error)
	// EnsureUnlocked idempotently records the durable (user, vacancy) unlock.
	EnsureUnlocked(userID, vacancyID uint) error
	// Redeem atomically consumes the newest matching token: the row is
	// deleted in the same transaction that records the unlock, so a token
	// can be redeemed at most once.
	Redeem(userID, vacancyID uint, token string, now time.Time) error
	DeleteExpiredTokens(now time.Time) (int64, error)
}

type GormUnlockRepository struct{ db *gorm.DB }

func NewUnlockRepository(db *gorm.DB) UnlockRepository {
	return &GormUnlockRepository{db: db}
}

func (r *GormUnlockRepository) CreateToken(token *domain.ContactUnlockToken) error {
	return r.db.Create(token).Error
}

func (r *GormUnlockRepository) IsUnlocked(userID, vacancyID uint) (bool, error) {
	var count int64
	err := r.db.Model(&domain.UnlockedContact{}).
		Where("user_id = ? AND vacancy_id = ?", userID, vacancyID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormUnlockRepository) EnsureUnlocked(userID, vacancyID uint) error {
	return ensureUnlocked(r.db, userID, vacancyID)
}

func ensureUnlocked(tx *gorm.DB, userID, vacancyID uint) error {
	pair := domain.UnlockedContact{UserID: userID, VacancyID: vacancyID}
	return tx.Where("user_id = ? AND vacancy_id = ?", userID, vacancyID).
		FirstOrCreate(&pair).Error
}

func (r *GormUnlockRepository) Redeem(userID, vacancyID uint, token string, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var match domain.ContactUnlockToken
		err := tx.Where("user_id = ? AND vacancy_id = ? AND token = ?", userID, vacancyID, token).
			Order("created_at DESC").
			First(&match).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnlockTokenNotFound
			}
			return err
		}
		if !match.ExpiresAt.After(now) {
			return ErrUnlockTokenExpired
		}
		// Guarded delete: if a concurrent redemption got here first the row
		// is gone and this attempt loses.
		res := tx.Where("id = ?", match.ID).Delete(&domain.ContactUnlockToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUnlockTokenNotFound
		}
		return ensureUnlocked(tx, userID, vacancyID)
	})
}

func (r *GormUnlockRepository) DeleteExpiredTokens(now time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", now).Delete(&domain.ContactUnlockToken{})
	return res.RowsAffected, res.Error
}

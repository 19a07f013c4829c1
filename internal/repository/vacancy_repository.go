package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
)

var (
	ErrVacancyNotFound = errors.New("vacancy not found")
	// ErrModerationRace is returned when concurrent moderators exhaust the
	// optimistic retry budget on the same row.
	ErrModerationRace = errors.New("vacancy moderation state changed concurrently")
)

const moderationRetries = 3

// VacancyListQuery carries the public listing filters.
type VacancyListQuery struct {
	Page           PageRequest
	Country        string
	City           string
	Category       string
	EmploymentType string
	Source         string
	Search         string
}

type VacancyRepository interface {
	Create(v *domain.Vacancy) error
	FindByID(id uint) (*domain.Vacancy, error)
	FindActiveByID(id uint, now time.Time) (*domain.Vacancy, error)
	ListPublic(q VacancyListQuery, now time.Time) (PageResult[domain.Vacancy], error)
	ListPending(now time.Time, visibilityDelay time.Duration) ([]domain.Vacancy, error)
	ListMine(userID uint) ([]domain.Vacancy, error)
	// ApplyModeration runs the moderation transition for one vacancy under an
	// optimistic flag-compare, so two concurrent decisions cannot both win.
	ApplyModeration(id uint, action domain.ModerationAction, reason string) (*domain.Vacancy, error)
	UpdateOwnerEdit(id uint, content map[string]any, mod domain.ModerationUpdate) (*domain.Vacancy, error)
	SetPhotoKey(id uint, key string) error
}

type GormVacancyRepository struct{ db *gorm.DB }

func NewVacancyRepository(db *gorm.DB) VacancyRepository {
	return &GormVacancyRepository{db: db}
}

func (r *GormVacancyRepository) Create(v *domain.Vacancy) error {
	return r.db.Create(v).Error
}

func (r *GormVacancyRepository) FindByID(id uint) (*domain.Vacancy, error) {
	var v domain.Vacancy
	if err := r.db.First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVacancyNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *GormVacancyRepository) FindActiveByID(id uint, now time.Time) (*domain.Vacancy, error) {
	var v domain.Vacancy
	err := r.db.Where("id = ? AND is_approved = ? AND expires_at > ?", id, true, now).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVacancyNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *GormVacancyRepository) ListPublic(q VacancyListQuery, now time.Time) (PageResult[domain.Vacancy], error) {
	page := normalizePageRequest(q.Page)
	tx := r.db.Model(&domain.Vacancy{}).
		Where("is_approved = ? AND expires_at > ?", true, now)

	if q.Country != "" {
		tx = tx.Where("country = ?", q.Country)
	}
	if q.City != "" {
		tx = tx.Where("LOWER(city) LIKE ?", "%"+strings.ToLower(q.City)+"%")
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.EmploymentType != "" {
		tx = tx.Where("employment_type = ?", q.EmploymentType)
	}
	if q.Source != "" {
		tx = tx.Where("source = ?", q.Source)
	}
	if q.Search != "" {
		tx = tx.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return PageResult[domain.Vacancy]{}, err
	}

	var items []domain.Vacancy
	err := tx.Order("published_at DESC").
		Offset((page.Page - 1) * page.PageSize).
		Limit(page.PageSize).
		Find(&items).Error
	if err != nil {
		return PageResult[domain.Vacancy]{}, err
	}

	return PageResult[domain.Vacancy]{
		Items:      items,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      total,
		TotalPages: calcTotalPages(total, page.PageSize),
	}, nil
}

// ListPending returns the moderation queue. A vacancy is eligible only when
// all flags are clear, the rejection reason is empty, and its last
// submission settled longer than visibilityDelay ago.
func (r *GormVacancyRepository) ListPending(now time.Time, visibilityDelay time.Duration) ([]domain.Vacancy, error) {
	visibleAfter := now.Add(-visibilityDelay)
	var items []domain.Vacancy
	err := r.db.
		Where("is_approved = ? AND is_rejected = ? AND is_editing = ?", false, false, false).
		Where("editing_started_at IS NULL OR editing_started_at <= ?", visibleAfter).
		Where("rejection_reason = ? OR rejection_reason IS NULL", "").
		Order("published_at DESC").
		Find(&items).Error
	return items, err
}

// ListMine orders the owner's vacancies pending/editing first, then
// rejected, then approved, newest first within each bucket.
func (r *GormVacancyRepository) ListMine(userID uint) ([]domain.Vacancy, error) {
	var items []domain.Vacancy
	err := r.db.
		Where("created_by_id = ?", userID).
		Order("CASE WHEN is_approved THEN 2 WHEN is_rejected THEN 1 ELSE 0 END").
		Order("published_at DESC").
		Find(&items).Error
	return items, err
}

func (r *GormVacancyRepository) ApplyModeration(id uint, action domain.ModerationAction, reason string) (*domain.Vacancy, error) {
	for attempt := 0; attempt < moderationRetries; attempt++ {
		v, err := r.FindByID(id)
		if err != nil {
			return nil, err
		}
		_, upd, err := domain.Transition(domain.StateOf(v), action, reason)
		if err != nil {
			return nil, err
		}
		// Compare-and-swap on the flags read above: a concurrent transition
		// changes them and zeroes RowsAffected, so the precondition is always
		// checked against a consistent snapshot.
		res := r.db.Model(&domain.Vacancy{}).
			Where("id = ? AND is_approved = ? AND is_rejected = ? AND is_editing = ?",
				v.ID, v.IsApproved, v.IsRejected, v.IsEditing).
			Updates(upd.Fields())
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			return r.FindByID(id)
		}
	}
	return nil, ErrModerationRace
}

func (r *GormVacancyRepository) UpdateOwnerEdit(id uint, content map[string]any, mod domain.ModerationUpdate) (*domain.Vacancy, error) {
	fields := mod.Fields()
	for k, val := range content {
		fields[k] = val
	}
	res := r.db.Model(&domain.Vacancy{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrVacancyNotFound
	}
	return r.FindByID(id)
}

func (r *GormVacancyRepository) SetPhotoKey(id uint, key string) error {
	res := r.db.Model(&domain.Vacancy{}).Where("id = ?", id).Update("photo_key", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVacancyNotFound
	}
	return nil
}

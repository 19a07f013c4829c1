package repository

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
)

var ErrComplaintNotFound = errors.New("complaint not found")

// VacancyComplaintAggregate is one row of the per-vacancy complaint
// overview shown to moderators.
type VacancyComplaintAggregate struct {
	VacancyID         uint      `json:"vacancy_id"`
	VacancyTitle      string    `json:"vacancy_title"`
	ComplaintsCount   int64     `json:"complaints_count"`
	OpenCount         int64     `json:"open_count"`
	LatestComplaintAt time.Time `json:"latest_complaint_at"`
}

// ComplaintAggregateFilter narrows the aggregate to one status or reason.
type ComplaintAggregateFilter struct {
	Status string
	Reason string
}

// ModerationActionInput describes one complaint-driven moderator action.
type ModerationActionInput struct {
	ComplaintID     uint
	ActorID         uint
	Action          domain.ModerationAction
	ActionName      string
	Note            string
	RejectionReason string
	ResolveAll      bool
	Now             time.Time
}

// ModerationActionResult reports what the action changed.
type ModerationActionResult struct {
	ComplaintID        uint                      `json:"complaint_id"`
	VacancyID          uint                      `json:"vacancy_id"`
	Action             string                    `json:"action"`
	ResolvedComplaints int64                     `json:"resolved_complaints"`
	Before             domain.ModerationSnapshot `json:"before_state"`
	After              domain.ModerationSnapshot `json:"after_state"`
}

type ComplaintRepository interface {
	Create(c *domain.Complaint) error
	FindByID(id uint) (*domain.Complaint, error)
	AggregateByVacancy(filter ComplaintAggregateFilter) ([]VacancyComplaintAggregate, error)
	// ApplyAction mutates the vacancy, resolves open complaints and appends
	// the audit row in one transaction. A failure anywhere rolls the whole
	// action back; the audit log can never miss an applied action.
	ApplyAction(in ModerationActionInput) (*ModerationActionResult, error)
	CountOpenByVacancy(vacancyID uint) (int64, error)
}

type GormComplaintRepository struct{ db *gorm.DB }

func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &GormComplaintRepository{db: db}
}

func (r *GormComplaintRepository) Create(c *domain.Complaint) error {
	if c.Status == "" {
		c.Status = domain.ComplaintStatusNew
	}
	return r.db.Create(c).Error
}

func (r *GormComplaintRepository) FindByID(id uint) (*domain.Complaint, error) {
	var c domain.Complaint
	if err := r.db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return &c, nil
}

// AggregateByVacancy groups complaints per vacancy with counts and the
// latest report time, ordered by volume then recency. Grouping happens in Go
// over the filtered join so timestamp aggregates scan identically on
// postgres and the sqlite test driver.
func (r *GormComplaintRepository) AggregateByVacancy(filter ComplaintAggregateFilter) ([]VacancyComplaintAggregate, error) {
	type joinRow struct {
		ID           uint
		VacancyID    uint
		VacancyTitle string
		Status       string
		CreatedAt    time.Time
	}

	tx := r.db.Model(&domain.Complaint{}).
		Select("complaints.id, complaints.vacancy_id, vacancies.title AS vacancy_title, complaints.status, complaints.created_at").
		Joins("JOIN vacancies ON vacancies.id = complaints.vacancy_id")
	if filter.Status != "" {
		tx = tx.Where("complaints.status = ?", filter.Status)
	}
	if filter.Reason != "" {
		tx = tx.Where("complaints.reason = ?", filter.Reason)
	}

	var joined []joinRow
	if err := tx.Find(&joined).Error; err != nil {
		return nil, err
	}

	byVacancy := make(map[uint]*VacancyComplaintAggregate)
	order := make([]uint, 0)
	open := map[string]struct{}{
		domain.ComplaintStatusNew:      {},
		domain.ComplaintStatusInReview: {},
	}
	for _, row := range joined {
		agg, ok := byVacancy[row.VacancyID]
		if !ok {
			agg = &VacancyComplaintAggregate{VacancyID: row.VacancyID, VacancyTitle: row.VacancyTitle}
			byVacancy[row.VacancyID] = agg
			order = append(order, row.VacancyID)
		}
		agg.ComplaintsCount++
		if _, isOpen := open[row.Status]; isOpen {
			agg.OpenCount++
		}
		if row.CreatedAt.After(agg.LatestComplaintAt) {
			agg.LatestComplaintAt = row.CreatedAt
		}
	}

	rows := make([]VacancyComplaintAggregate, 0, len(order))
	for _, id := range order {
		rows = append(rows, *byVacancy[id])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ComplaintsCount != rows[j].ComplaintsCount {
			return rows[i].ComplaintsCount > rows[j].ComplaintsCount
		}
		return rows[i].LatestComplaintAt.After(rows[j].LatestComplaintAt)
	})
	return rows, nil
}

func (r *GormComplaintRepository) ApplyAction(in ModerationActionInput) (*ModerationActionResult, error) {
	var result *ModerationActionResult
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var complaint domain.Complaint
		if err := tx.First(&complaint, in.ComplaintID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrComplaintNotFound
			}
			return err
		}

		var vacancy domain.Vacancy
		if err := tx.First(&vacancy, complaint.VacancyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVacancyNotFound
			}
			return err
		}

		before := domain.SnapshotOf(&vacancy)

		reason := in.RejectionReason
		if in.Action == domain.ActionReject && reason == "" {
			if reason = in.Note; reason == "" {
				reason = complaint.Reason
			}
		}
		_, upd, err := domain.ComplaintTransition(in.Action, reason)
		if err != nil {
			return err
		}
		if err := tx.Model(&domain.Vacancy{}).Where("id = ?", vacancy.ID).Updates(upd.Fields()).Error; err != nil {
			return err
		}

		after := domain.ModerationSnapshot{
			IsApproved:      upd.IsApproved,
			IsRejected:      upd.IsRejected,
			IsEditing:       upd.IsEditing,
			RejectionReason: upd.RejectionReason,
		}

		resolution := in.Note
		if resolution == "" {
			resolution = "vacancy_action:" + in.ActionName
		}
		resolveTx := tx.Model(&domain.Complaint{}).
			Where("vacancy_id = ? AND status IN ?", vacancy.ID, domain.OpenComplaintStatuses)
		if !in.ResolveAll {
			resolveTx = resolveTx.Where("id = ?", complaint.ID)
		}
		res := resolveTx.Updates(map[string]any{
			"status":          domain.ComplaintStatusResolved,
			"handled_by_id":   in.ActorID,
			"handled_at":      in.Now,
			"resolution_note": resolution,
		})
		if res.Error != nil {
			return res.Error
		}

		logRow := domain.ComplaintActionLog{
			ComplaintID: complaint.ID,
			VacancyID:   vacancy.ID,
			ActorID:     in.ActorID,
			Action:      in.ActionName,
			Note:        in.Note,
			BeforeState: before,
			AfterState:  after,
		}
		if err := tx.Create(&logRow).Error; err != nil {
			return err
		}

		result = &ModerationActionResult{
			ComplaintID:        complaint.ID,
			VacancyID:          vacancy.ID,
			Action:             in.ActionName,
			ResolvedComplaints: res.RowsAffected,
			Before:             before,
			After:              after,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *GormComplaintRepository) CountOpenByVacancy(vacancyID uint) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Complaint{}).
		Where("vacancy_id = ? AND status IN ?", vacancyID, domain.OpenComplaintStatuses).
		Count(&count).Error
	return count, err
}

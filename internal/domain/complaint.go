package domain

import "time"

const (
	ComplaintStatusNew      = "new"
	ComplaintStatusInReview = "in_review"
	ComplaintStatusResolved = "resolved"
	ComplaintStatusRejected = "rejected"
)

const (
	ComplaintReasonFraud         = "fraud"
	ComplaintReasonSpam          = "spam"
	ComplaintReasonWrongInfo     = "wrong_info"
	ComplaintReasonAlreadyFilled = "already_filled"
	ComplaintReasonOther         = "other"
)

// ComplaintReasons is the closed set of accepted report reasons.
var ComplaintReasons = map[string]struct{}{
	ComplaintReasonFraud:         {},
	ComplaintReasonSpam:          {},
	ComplaintReasonWrongInfo:     {},
	ComplaintReasonAlreadyFilled: {},
	ComplaintReasonOther:         {},
}

// Complaint is an abuse report against one vacancy. Reason, message and
// reporter are immutable after creation; only the status block moves.
type Complaint struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	VacancyID  uint   `gorm:"index;not null" json:"vacancy_id"`
	ReporterID uint   `gorm:"index;not null" json:"reporter_id"`
	Reason     string `gorm:"size:30;index;not null" json:"reason"`
	Message    string `gorm:"size:2000" json:"message"`

	Status         string     `gorm:"size:20;index;default:new" json:"status"`
	HandledByID    *uint      `gorm:"index" json:"handled_by_id,omitempty"`
	HandledAt      *time.Time `json:"handled_at,omitempty"`
	ResolutionNote string     `gorm:"size:1000" json:"resolution_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OpenComplaintStatuses are the statuses a moderation action resolves.
var OpenComplaintStatuses = []string{ComplaintStatusNew, ComplaintStatusInReview}

// ComplaintActionLog is the append-only system of record for moderator
// actions taken in response to complaints. Rows are write-once.
type ComplaintActionLog struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ComplaintID uint   `gorm:"index;not null" json:"complaint_id"`
	VacancyID   uint   `gorm:"index;not null" json:"vacancy_id"`
	ActorID     uint   `gorm:"index;not null" json:"actor_id"`
	Action      string `gorm:"size:20;not null" json:"action"`
	Note        string `gorm:"size:1000" json:"note"`

	BeforeState ModerationSnapshot `gorm:"embedded;embeddedPrefix:before_" json:"before_state"`
	AfterState  ModerationSnapshot `gorm:"embedded;embeddedPrefix:after_" json:"after_state"`

	CreatedAt time.Time `json:"created_at"`
}

// ComplaintActions is the closed set of moderation actions a complaint can
// trigger.
var ComplaintActions = map[string]ModerationAction{
	"hide":    ActionHide,
	"reject":  ActionReject,
	"restore": ActionRestore,
}

package domain

import (
	"errors"
	"time"
)

// ModerationState is the closed set of moderation states a vacancy can be
// in. The four flag columns on Vacancy are the persisted projection of this
// enumeration; StateOf is the only place that decodes them.
type ModerationState string

const (
	StatePending  ModerationState = "pending"
	StateApproved ModerationState = "approved"
	StateRejected ModerationState = "rejected"
	StateEditing  ModerationState = "editing"
)

type ModerationAction string

const (
	ActionApprove  ModerationAction = "approve"
	ActionReject   ModerationAction = "reject"
	ActionResubmit ModerationAction = "resubmit"
	ActionHide     ModerationAction = "hide"
	ActionRestore  ModerationAction = "restore"
)

// ErrVacancyEditing signals a moderator decision attempted while the owner
// is still revising the vacancy.
var ErrVacancyEditing = errors.New("vacancy is currently being edited")

// ModerationUpdate is the set of fields a transition persists. It always
// writes all five columns so a transition can never leave a stale flag
// combination behind.
type ModerationUpdate struct {
	IsApproved       bool
	IsRejected       bool
	IsEditing        bool
	RejectionReason  string
	EditingStartedAt *time.Time
}

func (u ModerationUpdate) Fields() map[string]any {
	return map[string]any{
		"is_approved":        u.IsApproved,
		"is_rejected":        u.IsRejected,
		"is_editing":         u.IsEditing,
		"rejection_reason":   u.RejectionReason,
		"editing_started_at": u.EditingStartedAt,
	}
}

// StateOf decodes the persisted flags into the state enumeration. Approved
// wins over rejected if storage ever holds an invalid combination; the
// transition function itself never produces one.
func StateOf(v *Vacancy) ModerationState {
	switch {
	case v.IsEditing:
		return StateEditing
	case v.IsApproved:
		return StateApproved
	case v.IsRejected:
		return StateRejected
	default:
		return StatePending
	}
}

// Transition computes the outcome of a moderator action against the current
// state. It returns the new state and the fields to persist, or
// ErrVacancyEditing when an approve/reject races an owner edit.
func Transition(current ModerationState, action ModerationAction, reason string) (ModerationState, ModerationUpdate, error) {
	switch action {
	case ActionApprove, ActionRestore:
		if action == ActionApprove && current == StateEditing {
			return current, ModerationUpdate{}, ErrVacancyEditing
		}
		return StateApproved, ModerationUpdate{IsApproved: true}, nil
	case ActionReject:
		if current == StateEditing {
			return current, ModerationUpdate{}, ErrVacancyEditing
		}
		return StateRejected, ModerationUpdate{IsRejected: true, RejectionReason: reason}, nil
	case ActionResubmit, ActionHide:
		return StatePending, ModerationUpdate{}, nil
	default:
		return current, ModerationUpdate{}, errors.New("unknown moderation action")
	}
}

// ComplaintTransition computes the outcome of a complaint-driven action.
// Unlike Transition, complaint actions always land their target state: an
// owner keeping the vacancy in edit mode cannot dodge a complaint-driven
// rejection. Only the direct moderator path keeps the edit conflict.
func ComplaintTransition(action ModerationAction, reason string) (ModerationState, ModerationUpdate, error) {
	switch action {
	case ActionRestore:
		return StateApproved, ModerationUpdate{IsApproved: true}, nil
	case ActionReject:
		return StateRejected, ModerationUpdate{IsRejected: true, RejectionReason: reason}, nil
	case ActionHide:
		return StatePending, ModerationUpdate{}, nil
	default:
		return StatePending, ModerationUpdate{}, errors.New("unknown moderation action")
	}
}

// SubmitUpdate returns the fields persisted when an owner submits or
// resubmits a vacancy for moderation. The timestamp feeds the pending-queue
// visibility delay.
func SubmitUpdate(now time.Time) ModerationUpdate {
	return ModerationUpdate{EditingStartedAt: &now}
}

// EditingUpdate returns the fields persisted while the owner is still
// drafting; the vacancy leaves both the public listing and the queue.
func EditingUpdate(now time.Time) ModerationUpdate {
	return ModerationUpdate{IsEditing: true, EditingStartedAt: &now}
}

// ModerationSnapshot is the audit capture of the moderation flags, taken
// before and after every complaint-driven action.
type ModerationSnapshot struct {
	IsApproved      bool   `json:"is_approved"`
	IsRejected      bool   `json:"is_rejected"`
	IsEditing       bool   `json:"is_editing"`
	RejectionReason string `gorm:"size:500" json:"rejection_reason"`
}

func SnapshotOf(v *Vacancy) ModerationSnapshot {
	return ModerationSnapshot{
		IsApproved:      v.IsApproved,
		IsRejected:      v.IsRejected,
		IsEditing:       v.IsEditing,
		RejectionReason: v.RejectionReason,
	}
}

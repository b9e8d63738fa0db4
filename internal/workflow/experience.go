package workflow

import (
	"strings"
	"time"

	"github.com/anishLS3/Placify-sub001/internal/models"
)

// MinRejectionNotes is the minimum trimmed length of rejection notes.
const MinRejectionNotes = 10

// ExperienceOptions carries the optional inputs of an experience transition.
type ExperienceOptions struct {
	Notes                string
	AddVerificationBadge bool
}

// ExperienceFields is the full set of columns a transition writes.
type ExperienceFields struct {
	Status            models.ExperienceStatus
	ModeratedBy       string
	ModerationNotes   *string
	VerificationBadge bool
	ApprovedAt        *time.Time
	RejectedAt        *time.Time
}

// Columns returns the update set keyed by column name.
func (f ExperienceFields) Columns() map[string]interface{} {
	return map[string]interface{}{
		"status":             f.Status,
		"moderated_by":       f.ModeratedBy,
		"moderation_notes":   f.ModerationNotes,
		"verification_badge": f.VerificationBadge,
		"approved_at":        f.ApprovedAt,
		"rejected_at":        f.RejectedAt,
	}
}

// Apply copies the fields onto e.
func (f ExperienceFields) Apply(e *models.Experience) {
	by := f.ModeratedBy
	e.Status = f.Status
	e.ModeratedBy = &by
	e.ModerationNotes = f.ModerationNotes
	e.VerificationBadge = f.VerificationBadge
	e.ApprovedAt = f.ApprovedAt
	e.RejectedAt = f.RejectedAt
}

// ApplyExperienceTransition checks that current may move to target and
// returns the fields to persist.
func ApplyExperienceTransition(current models.Experience, target models.ExperienceStatus, actorID string, opts ExperienceOptions, now time.Time) (ExperienceFields, error) {
	if !CanTransition(KindExperience, string(current.Status), string(target)) {
		return ExperienceFields{}, illegal(KindExperience, string(current.Status), string(target))
	}
	return ExperienceFieldsFor(target, actorID, opts, now)
}

// ExperienceFieldsFor computes the fields for moving any eligible record to
// target. Batch updates use it directly since they have no single source status.
func ExperienceFieldsFor(target models.ExperienceStatus, actorID string, opts ExperienceOptions, now time.Time) (ExperienceFields, error) {
	if !target.Valid() {
		return ExperienceFields{}, &ValidationError{Field: "status", Message: "unknown status " + string(target)}
	}
	notes := strings.TrimSpace(opts.Notes)
	if opts.AddVerificationBadge && target != models.ExperienceStatusApproved {
		return ExperienceFields{}, &ValidationError{Field: "add_verification_badge", Message: "verification badge can only be added when approving"}
	}

	ts := now.UTC()
	f := ExperienceFields{
		Status:          target,
		ModeratedBy:     actorID,
		ModerationNotes: optional(notes),
	}
	switch target {
	case models.ExperienceStatusApproved:
		f.ApprovedAt = &ts
		f.VerificationBadge = opts.AddVerificationBadge
	case models.ExperienceStatusRejected:
		if len([]rune(notes)) < MinRejectionNotes {
			return ExperienceFields{}, &ValidationError{Field: "notes", Message: "rejection requires notes of at least 10 characters"}
		}
		f.RejectedAt = &ts
	case models.ExperienceStatusPending:
		// both timestamps cleared, badge off
	}
	return f, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

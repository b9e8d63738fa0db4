package workflow

import (
	"strings"
	"time"

	"github.com/anishLS3/Placify-sub001/internal/models"
)

// ContactOptions carries the optional inputs of a contact transition.
type ContactOptions struct {
	Notes    string
	Priority *models.ContactPriority
}

// Stamp describes the effect of a transition on a nullable timestamp column.
// Untouched stamps are left out of the update.
type Stamp struct {
	Set bool
	At  *time.Time
}

// ContactFields is the update a contact transition produces. Notes and
// priority are only written when supplied.
type ContactFields struct {
	Status          models.ContactStatus
	ModeratedBy     string
	ModerationNotes *string
	Priority        *models.ContactPriority
	ResolvedAt      Stamp
	ClosedAt        Stamp
}

func (f ContactFields) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"status":       f.Status,
		"moderated_by": f.ModeratedBy,
	}
	if f.ModerationNotes != nil {
		cols["moderation_notes"] = *f.ModerationNotes
	}
	if f.Priority != nil {
		cols["priority"] = *f.Priority
	}
	if f.ResolvedAt.Set {
		cols["resolved_at"] = f.ResolvedAt.At
	}
	if f.ClosedAt.Set {
		cols["closed_at"] = f.ClosedAt.At
	}
	return cols
}

func (f ContactFields) Apply(c *models.Contact) {
	by := f.ModeratedBy
	c.Status = f.Status
	c.ModeratedBy = &by
	if f.ModerationNotes != nil {
		c.ModerationNotes = f.ModerationNotes
	}
	if f.Priority != nil {
		c.Priority = f.Priority
	}
	if f.ResolvedAt.Set {
		c.ResolvedAt = f.ResolvedAt.At
	}
	if f.ClosedAt.Set {
		c.ClosedAt = f.ClosedAt.At
	}
}

// ApplyContactTransition checks that current may move to target and returns
// the fields to persist.
func ApplyContactTransition(current models.Contact, target models.ContactStatus, actorID string, opts ContactOptions, now time.Time) (ContactFields, error) {
	if !CanTransition(KindContact, string(current.Status), string(target)) {
		return ContactFields{}, illegal(KindContact, string(current.Status), string(target))
	}
	return ContactFieldsFor(target, actorID, opts, now)
}

func ContactFieldsFor(target models.ContactStatus, actorID string, opts ContactOptions, now time.Time) (ContactFields, error) {
	if !target.Valid() {
		return ContactFields{}, &ValidationError{Field: "status", Message: "unknown status " + string(target)}
	}
	if opts.Priority != nil && !opts.Priority.Valid() {
		return ContactFields{}, &ValidationError{Field: "priority", Message: "unknown priority " + string(*opts.Priority)}
	}

	ts := now.UTC()
	f := ContactFields{
		Status:          target,
		ModeratedBy:     actorID,
		ModerationNotes: optional(strings.TrimSpace(opts.Notes)),
		Priority:        opts.Priority,
	}
	switch target {
	case models.ContactStatusResolved:
		f.ResolvedAt = Stamp{Set: true, At: &ts}
		f.ClosedAt = Stamp{Set: true}
	case models.ContactStatusClosed:
		f.ClosedAt = Stamp{Set: true, At: &ts}
	case models.ContactStatusInProgress:
		f.ResolvedAt = Stamp{Set: true}
		f.ClosedAt = Stamp{Set: true}
	}
	return f, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactStatus is the triage state of a contact message.
type ContactStatus string

const (
	ContactStatusNew        ContactStatus = "new"
	ContactStatusInProgress ContactStatus = "in-progress"
	ContactStatusResolved   ContactStatus = "resolved"
	ContactStatusClosed     ContactStatus = "closed"
)

var ContactStatuses = []ContactStatus{
	ContactStatusNew,
	ContactStatusInProgress,
	ContactStatusResolved,
	ContactStatusClosed,
}

func (s ContactStatus) Valid() bool {
	for _, known := range ContactStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type ContactCategory string

const (
	ContactCategoryGeneral     ContactCategory = "general"
	ContactCategoryFeedback    ContactCategory = "feedback"
	ContactCategoryBug         ContactCategory = "bug"
	ContactCategoryPartnership ContactCategory = "partnership"
	ContactCategoryOther       ContactCategory = "other"
)

// ContactPriority is assigned during triage; nil until then.
type ContactPriority string

const (
	ContactPriorityLow    ContactPriority = "low"
	ContactPriorityNormal ContactPriority = "normal"
	ContactPriorityHigh   ContactPriority = "high"
)

func (p ContactPriority) Valid() bool {
	switch p {
	case ContactPriorityLow, ContactPriorityNormal, ContactPriorityHigh:
		return true
	}
	return false
}

// Contact is a message sent to the site team through the public form.
type Contact struct {
	ID       string          `json:"id" gorm:"primaryKey;size:36;index:idx_contacts_status_id,priority:2"`
	Name     string          `json:"name" gorm:"size:100;not null"`
	Email    string          `json:"email" gorm:"size:254;not null"`
	Subject  string          `json:"subject" gorm:"size:200;not null"`
	Category ContactCategory `json:"category" gorm:"size:16;not null;default:general"`
	Message  string          `json:"message" gorm:"type:text;not null"`

	Status          ContactStatus    `json:"status" gorm:"size:16;not null;default:new;index:idx_contacts_status_id,priority:1"`
	Priority        *ContactPriority `json:"priority,omitempty" gorm:"size:8"`
	ModeratedBy     *string          `json:"moderated_by,omitempty" gorm:"size:64"`
	ModerationNotes *string          `json:"moderation_notes,omitempty" gorm:"type:text"`
	ResolvedAt      *time.Time       `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Contact) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = ContactStatusNew
	}
	if c.Category == "" {
		c.Category = ContactCategoryGeneral
	}
	return
}

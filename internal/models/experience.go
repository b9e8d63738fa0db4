package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExperienceStatus is the moderation state of an interview experience.
type ExperienceStatus string

const (
	ExperienceStatusPending  ExperienceStatus = "pending"
	ExperienceStatusApproved ExperienceStatus = "approved"
	ExperienceStatusRejected ExperienceStatus = "rejected"
)

// ExperienceStatuses lists every known experience status in display order.
var ExperienceStatuses = []ExperienceStatus{
	ExperienceStatusPending,
	ExperienceStatusApproved,
	ExperienceStatusRejected,
}

// Valid reports whether s is a known experience status.
func (s ExperienceStatus) Valid() bool {
	for _, known := range ExperienceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Outcome string

const (
	OutcomeSelected    Outcome = "selected"
	OutcomeNotSelected Outcome = "not-selected"
	OutcomePending     Outcome = "pending"
)

// Experience is a user-submitted placement or interview experience.
// Status is the only field that decides which moderation actions apply.
type Experience struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36;index:idx_experiences_status_id,priority:2"`
	CandidateName string     `json:"candidate_name" gorm:"size:100;not null"`
	Email         string     `json:"email" gorm:"size:254"`
	Company       string     `json:"company" gorm:"size:100;not null;index"`
	Role          string     `json:"role" gorm:"size:100;not null"`
	Location      string     `json:"location" gorm:"size:100"`
	Year          int        `json:"year"`
	Difficulty    Difficulty `json:"difficulty" gorm:"size:16"`
	Outcome       Outcome    `json:"outcome" gorm:"size:16"`
	Rounds        string     `json:"rounds" gorm:"type:text"`
	Experience    string     `json:"experience" gorm:"type:text;not null"`
	Tips          string     `json:"tips" gorm:"type:text"`

	Status            ExperienceStatus `json:"status" gorm:"size:16;not null;default:pending;index:idx_experiences_status_id,priority:1"`
	ModeratedBy       *string          `json:"moderated_by,omitempty" gorm:"size:64"`
	ModerationNotes   *string          `json:"moderation_notes,omitempty" gorm:"type:text"`
	VerificationBadge bool             `json:"verification_badge" gorm:"not null;default:false"`
	ApprovedAt        *time.Time       `json:"approved_at,omitempty"`
	RejectedAt        *time.Time       `json:"rejected_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Experience) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = ExperienceStatusPending
	}
	return
}

// PublicExperience is the shape served to anonymous readers. It omits
// the submitter's email and all moderation notes.
type PublicExperience struct {
	ID                string     `json:"id"`
	CandidateName     string     `json:"candidate_name"`
	Company           string     `json:"company"`
	Role              string     `json:"role"`
	Location          string     `json:"location"`
	Year              int        `json:"year"`
	Difficulty        Difficulty `json:"difficulty"`
	Outcome           Outcome    `json:"outcome"`
	Rounds            string     `json:"rounds"`
	Experience        string     `json:"experience"`
	Tips              string     `json:"tips"`
	VerificationBadge bool       `json:"verification_badge"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
}

func (e *Experience) Public() PublicExperience {
	return PublicExperience{
		ID:                e.ID,
		CandidateName:     e.CandidateName,
		Company:           e.Company,
		Role:              e.Role,
		Location:          e.Location,
		Year:              e.Year,
		Difficulty:        e.Difficulty,
		Outcome:           e.Outcome,
		Rounds:            e.Rounds,
		Experience:        e.Experience,
		Tips:              e.Tips,
		VerificationBadge: e.VerificationBadge,
		ApprovedAt:        e.ApprovedAt,
	}
}

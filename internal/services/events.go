package services

import "time"

// Domain event names published on the event bus.
const (
	EventStatusChanged             = "statusChanged"
	EventBatchStatusChanged        = "batchStatusChanged"
	EventBadgeToggled              = "badgeToggled"
	EventContactStatusChanged      = "contactStatusChanged"
	EventContactBatchStatusChanged = "contactBatchStatusChanged"
	EventExperienceSubmitted       = "experienceSubmitted"
	EventContactSubmitted          = "contactSubmitted"
)

// Publisher accepts domain events. Implementations must not block.
type Publisher interface {
	Publish(name string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// Event payloads carry public fields only: no emails, names or notes.

type StatusChangedPayload struct {
	ID                string    `json:"id"`
	Company           string    `json:"company"`
	Role              string    `json:"role"`
	From              string    `json:"from"`
	To                string    `json:"to"`
	VerificationBadge bool      `json:"verification_badge"`
	ModeratedBy       string    `json:"moderated_by"`
	Timestamp         time.Time `json:"timestamp"`
}

type BatchStatusChangedPayload struct {
	IDs         []string  `json:"ids"`
	Status      string    `json:"status"`
	Requested   int       `json:"requested"`
	Count       int64     `json:"count"`
	ModeratedBy string    `json:"moderated_by"`
	Timestamp   time.Time `json:"timestamp"`
}

type BadgeToggledPayload struct {
	ID                string    `json:"id"`
	Company           string    `json:"company"`
	Role              string    `json:"role"`
	VerificationBadge bool      `json:"verification_badge"`
	ModeratedBy       string    `json:"moderated_by"`
	Timestamp         time.Time `json:"timestamp"`
}

type ContactStatusChangedPayload struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Category    string    `json:"category"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Priority    string    `json:"priority,omitempty"`
	ModeratedBy string    `json:"moderated_by"`
	Timestamp   time.Time `json:"timestamp"`
}

type ExperienceSubmittedPayload struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

type ContactSubmittedPayload struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

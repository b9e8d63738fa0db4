package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditAction tags the privileged operation an AuditEntry records.
type AuditAction string

const (
	ActionApproveExperience  AuditAction = "APPROVE_EXPERIENCE"
	ActionRejectExperience   AuditAction = "REJECT_EXPERIENCE"
	ActionReopenExperience   AuditAction = "REOPEN_EXPERIENCE"
	ActionModerateExperience AuditAction = "MODERATE_EXPERIENCE"

	ActionBulkApproveExperiences  AuditAction = "BULK_APPROVE_EXPERIENCES"
	ActionBulkRejectExperiences   AuditAction = "BULK_REJECT_EXPERIENCES"
	ActionBulkReopenExperiences   AuditAction = "BULK_REOPEN_EXPERIENCES"
	ActionBulkModerateExperiences AuditAction = "BULK_MODERATE_EXPERIENCES"

	ActionAddVerificationBadge    AuditAction = "ADD_VERIFICATION_BADGE"
	ActionRemoveVerificationBadge AuditAction = "REMOVE_VERIFICATION_BADGE"
	ActionToggleVerificationBadge AuditAction = "TOGGLE_VERIFICATION_BADGE"

	ActionUpdateContactStatus     AuditAction = "UPDATE_CONTACT_STATUS"
	ActionBulkUpdateContactStatus AuditAction = "BULK_UPDATE_CONTACT_STATUS"

	ActionViewExperience  AuditAction = "VIEW_EXPERIENCE"
	ActionViewExperiences AuditAction = "VIEW_EXPERIENCES"
	ActionViewContacts    AuditAction = "VIEW_CONTACTS"
	ActionViewAuditLogs   AuditAction = "VIEW_AUDIT_LOGS"
	ActionViewDashboard   AuditAction = "VIEW_DASHBOARD"

	ActionLogin          AuditAction = "LOGIN"
	ActionLogout         AuditAction = "LOGOUT"
	ActionPurgeAuditLogs AuditAction = "PURGE_AUDIT_LOGS"
)

const failedSuffix = "_FAILED"

// Failed returns the failure variant of the action.
func (a AuditAction) Failed() AuditAction {
	if a.IsFailure() {
		return a
	}
	return a + failedSuffix
}

func (a AuditAction) IsFailure() bool {
	return strings.HasSuffix(string(a), failedSuffix)
}

const (
	ResourceExperience           = "experience"
	ResourceContact              = "contact"
	ResourceAuditLog             = "audit_log"
	ResourceUser                 = "user"
	ResourceNotificationProvider = "notification_provider"
)

// AuditEntry is an immutable record of a privileged action. Details never
// carry raw submission content, only identifiers, counts and flags.
type AuditEntry struct {
	ID           string            `json:"id" gorm:"primaryKey;size:36"`
	ActorID      string            `json:"actor_id" gorm:"size:64;not null;index:idx_audit_actor_created,priority:1"`
	Action       AuditAction       `json:"action" gorm:"size:64;not null;index:idx_audit_action"`
	ResourceType string            `json:"resource_type" gorm:"size:32;not null"`
	ResourceID   *string           `json:"resource_id,omitempty" gorm:"size:64;index:idx_audit_resource"`
	Details      datatypes.JSONMap `json:"details,omitempty" gorm:"type:json"`
	PreviousData datatypes.JSONMap `json:"previous_data,omitempty" gorm:"type:json"`
	NewData      datatypes.JSONMap `json:"new_data,omitempty" gorm:"type:json"`
	IPAddress    string            `json:"ip_address,omitempty" gorm:"size:64"`
	UserAgent    string            `json:"user_agent,omitempty" gorm:"size:512"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;index:idx_audit_actor_created,priority:2;index:idx_audit_created"`
}

func (a *AuditEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return
}

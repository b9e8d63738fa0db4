package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationProvider is an external relay target addressed by a shoutrrr URL.
type NotificationProvider struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"` // discord, slack, gotify, telegram, generic
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`

	NotifyModeration  bool `json:"notify_moderation" gorm:"default:true"`
	NotifyBatch       bool `json:"notify_batch" gorm:"default:true"`
	NotifySubmissions bool `json:"notify_submissions" gorm:"default:true"`
	NotifyContacts    bool `json:"notify_contacts" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *NotificationProvider) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return
}

package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/containrrr/shoutrrr"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anishLS3/Placify-sub001/internal/eventbus"
	"github.com/anishLS3/Placify-sub001/internal/logger"
	"github.com/anishLS3/Placify-sub001/internal/models"
)

// Provider toggle groups.
const (
	NotifyGroupModeration = "moderation"
	NotifyGroupBatch      = "batch"
	NotifyGroupSubmission = "submission"
	NotifyGroupContact    = "contact"
	NotifyGroupTest       = "test"
)

// NotificationService keeps the admin inbox and relays moderation events to
// external providers through shoutrrr.
type NotificationService struct {
	DB   *gorm.DB
	log  *logrus.Entry
	send func(url, message string) error
	wg   sync.WaitGroup
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		DB:   db,
		log:  logger.Component("notifications"),
		send: func(url, message string) error { return shoutrrr.Send(url, message) },
	}
}

var discordWebhookRegex = regexp.MustCompile(`^https://discord(?:app)?\.com/api/webhooks/(\d+)/([a-zA-Z0-9_-]+)`)

func normalizeURL(serviceType, rawURL string) string {
	if serviceType == "discord" {
		matches := discordWebhookRegex.FindStringSubmatch(rawURL)
		if len(matches) == 3 {
			return fmt.Sprintf("discord://%s@%s", matches[2], matches[1])
		}
	}
	return rawURL
}

// Internal Notifications (DB)

func (s *NotificationService) Create(nType models.NotificationType, title, message string) (*models.Notification, error) {
	notification := &models.Notification{
		Type:    nType,
		Title:   title,
		Message: message,
	}
	result := s.DB.Create(notification)
	return notification, result.Error
}

func (s *NotificationService) List(unreadOnly bool, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.DB.Order("created_at desc")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&notifications)
	return notifications, result.Error
}

func (s *NotificationService) MarkAsRead(id string) error {
	res := s.DB.Model(&models.Notification{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("notification", id)
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead() error {
	return s.DB.Model(&models.Notification{}).Where("read = ?", false).Update("read", true).Error
}

// Domain events

// Subscribe registers the service on every moderation and submission event.
func (s *NotificationService) Subscribe(bus *eventbus.Bus) []*eventbus.Subscription {
	names := []string{
		EventStatusChanged,
		EventBatchStatusChanged,
		EventBadgeToggled,
		EventContactStatusChanged,
		EventContactBatchStatusChanged,
		EventExperienceSubmitted,
		EventContactSubmitted,
	}
	subs := make([]*eventbus.Subscription, 0, len(names))
	for _, name := range names {
		subs = append(subs, bus.Subscribe(name, s.HandleEvent, eventbus.WithLabel("notifications:"+name)))
	}
	return subs
}

// HandleEvent stores an inbox entry for ev and relays it externally.
func (s *NotificationService) HandleEvent(ctx context.Context, ev eventbus.Event) error {
	n, group, ok := describeEvent(ev)
	if !ok {
		return nil
	}
	n.Event = ev.Name
	if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	s.SendExternal(group, n.Title, n.Message)
	return nil
}

func describeEvent(ev eventbus.Event) (models.Notification, string, bool) {
	switch p := ev.Payload.(type) {
	case StatusChangedPayload:
		nType := models.NotificationTypeInfo
		switch p.To {
		case string(models.ExperienceStatusApproved):
			nType = models.NotificationTypeSuccess
		case string(models.ExperienceStatusRejected):
			nType = models.NotificationTypeWarning
		}
		return models.Notification{
			Type:       nType,
			ResourceID: p.ID,
			Title:      "Experience " + p.To,
			Message:    fmt.Sprintf("%s / %s moved from %s to %s by %s", p.Company, p.Role, p.From, p.To, p.ModeratedBy),
		}, NotifyGroupModeration, true
	case BadgeToggledPayload:
		verb := "removed from"
		if p.VerificationBadge {
			verb = "added to"
		}
		return models.Notification{
			Type:       models.NotificationTypeInfo,
			ResourceID: p.ID,
			Title:      "Verification badge updated",
			Message:    fmt.Sprintf("Badge %s %s / %s by %s", verb, p.Company, p.Role, p.ModeratedBy),
		}, NotifyGroupModeration, true
	case BatchStatusChangedPayload:
		kind := "experiences"
		group := NotifyGroupBatch
		if ev.Name == EventContactBatchStatusChanged {
			kind = "contacts"
			group = NotifyGroupContact
		}
		return models.Notification{
			Type:    models.NotificationTypeInfo,
			Title:   "Batch update",
			Message: fmt.Sprintf("%d of %d %s moved to %s by %s", p.Count, p.Requested, kind, p.Status, p.ModeratedBy),
		}, group, true
	case ContactStatusChangedPayload:
		return models.Notification{
			Type:       models.NotificationTypeInfo,
			ResourceID: p.ID,
			Title:      "Contact " + p.To,
			Message:    fmt.Sprintf("%q (%s) moved from %s to %s by %s", p.Subject, p.Category, p.From, p.To, p.ModeratedBy),
		}, NotifyGroupContact, true
	case ExperienceSubmittedPayload:
		return models.Notification{
			Type:       models.NotificationTypeInfo,
			ResourceID: p.ID,
			Title:      "New experience submitted",
			Message:    fmt.Sprintf("%s / %s is waiting for review", p.Company, p.Role),
		}, NotifyGroupSubmission, true
	case ContactSubmittedPayload:
		return models.Notification{
			Type:       models.NotificationTypeInfo,
			ResourceID: p.ID,
			Title:      "New contact message",
			Message:    fmt.Sprintf("%q (%s)", p.Subject, p.Category),
		}, NotifyGroupContact, true
	}
	return models.Notification{}, "", false
}

// External Notifications (Shoutrrr)

// SendExternal relays to every enabled provider subscribed to group. Sends
// run in their own goroutines; use Wait to block until they finish.
func (s *NotificationService) SendExternal(group, title, message string) {
	var providers []models.NotificationProvider
	if err := s.DB.Where("enabled = ?", true).Find(&providers).Error; err != nil {
		s.log.WithError(err).Warn("failed to fetch notification providers")
		return
	}

	for _, provider := range providers {
		if !wants(provider, group) {
			continue
		}
		s.wg.Add(1)
		go func(p models.NotificationProvider) {
			defer s.wg.Done()
			msg := fmt.Sprintf("%s\n\n%s", title, message)
			if err := s.send(normalizeURL(p.Type, p.URL), msg); err != nil {
				s.log.WithError(err).WithField("provider", p.Name).Warn("failed to send notification")
			}
		}(provider)
	}
}

// Wait blocks until in-flight external sends complete.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func wants(p models.NotificationProvider, group string) bool {
	switch group {
	case NotifyGroupModeration:
		return p.NotifyModeration
	case NotifyGroupBatch:
		return p.NotifyBatch
	case NotifyGroupSubmission:
		return p.NotifySubmissions
	case NotifyGroupContact:
		return p.NotifyContacts
	}
	return true
}

func (s *NotificationService) TestProvider(provider models.NotificationProvider) error {
	return s.send(normalizeURL(provider.Type, provider.URL), "Test notification from Placify")
}

// Provider Management

func (s *NotificationService) ListProviders() ([]models.NotificationProvider, error) {
	var providers []models.NotificationProvider
	result := s.DB.Order("created_at").Find(&providers)
	return providers, result.Error
}

func (s *NotificationService) validateProvider(provider *models.NotificationProvider) error {
	provider.Name = strings.TrimSpace(provider.Name)
	if provider.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if _, err := shoutrrr.CreateSender(normalizeURL(provider.Type, provider.URL)); err != nil {
		return &ValidationError{Field: "url", Message: "not a supported notification URL"}
	}
	return nil
}

func (s *NotificationService) CreateProvider(provider *models.NotificationProvider) error {
	if err := s.validateProvider(provider); err != nil {
		return err
	}
	return s.DB.Create(provider).Error
}

func (s *NotificationService) UpdateProvider(provider *models.NotificationProvider) error {
	if err := s.validateProvider(provider); err != nil {
		return err
	}
	res := s.DB.Model(&models.NotificationProvider{}).Where("id = ?", provider.ID).Select("*").Omit("id", "created_at").Updates(provider)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("notification provider", provider.ID)
	}
	return nil
}

func (s *NotificationService) DeleteProvider(id string) error {
	res := s.DB.Delete(&models.NotificationProvider{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("notification provider", id)
	}
	return nil
}

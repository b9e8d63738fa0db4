package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anishLS3/Placify-sub001/internal/cache"
	"github.com/anishLS3/Placify-sub001/internal/logger"
	"github.com/anishLS3/Placify-sub001/internal/metrics"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
	"github.com/anishLS3/Placify-sub001/internal/workflow"
)

const contactStatsKey = "contacts:status"

// ContactService triages contact messages with the same audit, event and
// concurrency rules as ModerationService.
type ContactService struct {
	repo       repository.ContactRepository
	audit      *AuditService
	bus        Publisher
	stats      cache.StatsCache
	batchLimit int
	log        *logrus.Entry
	now        func() time.Time
}

func NewContactService(repo repository.ContactRepository, audit *AuditService, bus Publisher, stats cache.StatsCache, batchLimit int) *ContactService {
	if bus == nil {
		bus = nopPublisher{}
	}
	if stats == nil {
		stats = cache.Noop{}
	}
	if batchLimit <= 0 {
		batchLimit = DefaultBatchLimit
	}
	return &ContactService{
		repo:       repo,
		audit:      audit,
		bus:        bus,
		stats:      stats,
		batchLimit: batchLimit,
		log:        logger.Component("contacts"),
		now:        time.Now,
	}
}

func contactDetails(target models.ContactStatus, opts workflow.ContactOptions) map[string]interface{} {
	d := map[string]interface{}{
		"target_status": string(target),
		"notes_length":  len([]rune(strings.TrimSpace(opts.Notes))),
	}
	if opts.Priority != nil {
		d["priority"] = string(*opts.Priority)
	}
	return d
}

// UpdateStatus moves one contact to target.
func (s *ContactService) UpdateStatus(ctx context.Context, id string, target models.ContactStatus, actor Actor, opts workflow.ContactOptions) (result *models.Contact, err error) {
	details := contactDetails(target, opts)
	var prev, next map[string]interface{}
	var publish func()
	defer func() {
		s.record(ctx, actor, models.ActionUpdateContactStatus, id, details, prev, next, err)
		if err == nil && publish != nil {
			publish()
		}
	}()

	if !target.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", target)}
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadErr(models.ResourceContact, id, err)
	}
	fields, err := workflow.ApplyContactTransition(*current, target, actor.ID, opts, s.now())
	if err != nil {
		return nil, err
	}

	wctx := context.WithoutCancel(ctx)
	n, err := s.repo.UpdateIfMatch(wctx, id, repository.Match{"status": current.Status}, fields.Columns())
	if err != nil {
		return nil, storeErr("update contact", err)
	}
	if n == 0 {
		return nil, ErrConcurrentModification
	}

	updated := *current
	fields.Apply(&updated)
	prev, next = contactSnapshot(current), contactSnapshot(&updated)
	s.stats.Invalidate(wctx, "contacts:")

	event := ContactStatusChangedPayload{
		ID:          updated.ID,
		Subject:     updated.Subject,
		Category:    string(updated.Category),
		From:        string(current.Status),
		To:          string(updated.Status),
		ModeratedBy: actor.ID,
		Timestamp:   s.now().UTC(),
	}
	if updated.Priority != nil {
		event.Priority = string(*updated.Priority)
	}
	publish = func() { s.bus.Publish(EventContactStatusChanged, event) }

	reloaded, rerr := s.repo.FindByID(wctx, id)
	if rerr != nil {
		s.log.WithError(rerr).WithField("id", id).Warn("re-read after status update failed")
		return &updated, nil
	}
	return reloaded, nil
}

// UpdateStatusBatch moves every eligible listed contact to target.
func (s *ContactService) UpdateStatusBatch(ctx context.Context, ids []string, target models.ContactStatus, actor Actor, opts workflow.ContactOptions) (result *BatchResult, err error) {
	unique := dedupeIDs(ids)
	details := contactDetails(target, opts)
	details["batch_operation"] = true
	details["requested"] = len(unique)
	var publish func()
	defer func() {
		if result != nil {
			details["modified_count"] = result.ModifiedCount
		}
		s.record(ctx, actor, models.ActionBulkUpdateContactStatus, "", details, nil, nil, err)
		if err == nil && publish != nil {
			publish()
		}
	}()

	if err := validateBatch(unique, s.batchLimit); err != nil {
		return nil, err
	}
	details["contact_ids"] = unique
	fields, err := workflow.ContactFieldsFor(target, actor.ID, opts, s.now())
	if err != nil {
		return nil, err
	}

	wctx := context.WithoutCancel(ctx)
	n, err := s.repo.UpdateMany(wctx, unique, workflow.Sources(workflow.KindContact, string(target)), fields.Columns())
	if err != nil {
		return nil, storeErr("batch update contacts", err)
	}
	metrics.AddBatchModified(models.ResourceContact, n)
	s.stats.Invalidate(wctx, "contacts:")

	event := BatchStatusChangedPayload{
		IDs:         unique,
		Status:      string(target),
		Requested:   len(unique),
		Count:       n,
		ModeratedBy: actor.ID,
		Timestamp:   s.now().UTC(),
	}
	publish = func() { s.bus.Publish(EventContactBatchStatusChanged, event) }
	return &BatchResult{Requested: len(unique), ModifiedCount: n}, nil
}

func (s *ContactService) Get(ctx context.Context, id string, actor Actor) (result *models.Contact, err error) {
	defer func() {
		s.record(ctx, actor, models.ActionViewContacts, id, nil, nil, nil, err)
	}()
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadErr(models.ResourceContact, id, err)
	}
	return c, nil
}

func (s *ContactService) List(ctx context.Context, filter repository.ContactFilter, page, pageSize int, actor Actor) (items []models.Contact, total int64, err error) {
	details := map[string]interface{}{
		"status":    string(filter.Status),
		"page":      page,
		"page_size": pageSize,
	}
	defer func() {
		if err == nil {
			details["returned"] = len(items)
		}
		s.record(ctx, actor, models.ActionViewContacts, "", details, nil, nil, err)
	}()

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", filter.Status)}
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, 0, &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", filter.Priority)}
	}
	offset, limit, err := paging(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items, total, err = s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, storeErr("list contacts", err)
	}
	return items, total, nil
}

// Stats counts contacts per status. Every known status is present.
func (s *ContactService) Stats(ctx context.Context, actor Actor) (counts map[string]int64, err error) {
	defer func() {
		s.record(ctx, actor, models.ActionViewDashboard, "", map[string]interface{}{"scope": "contacts"}, nil, nil, err)
	}()

	if s.stats.Get(ctx, contactStatsKey, &counts) {
		return counts, nil
	}
	raw, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, storeErr("count contacts", err)
	}
	counts = make(map[string]int64, len(models.ContactStatuses))
	for _, st := range models.ContactStatuses {
		counts[string(st)] = raw[string(st)]
	}
	s.stats.Set(ctx, contactStatsKey, counts)
	return counts, nil
}

func (s *ContactService) record(ctx context.Context, actor Actor, action models.AuditAction, resourceID string, details, prev, next map[string]interface{}, err error) {
	recordOutcome(ctx, s.audit, s.log, actor, models.ResourceContact, action, resourceID, details, prev, next, err)
}

func contactSnapshot(c *models.Contact) map[string]interface{} {
	var priority interface{}
	if c.Priority != nil {
		priority = string(*c.Priority)
	}
	return map[string]interface{}{
		"status":           string(c.Status),
		"priority":         priority,
		"moderated_by":     deref(c.ModeratedBy),
		"moderation_notes": deref(c.ModerationNotes),
		"resolved_at":      stamp(c.ResolvedAt),
		"closed_at":        stamp(c.ClosedAt),
	}
}

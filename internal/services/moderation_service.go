package services

import (
	"context"
	"errors"
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

// DefaultBatchLimit caps the ids accepted by one batch call.
const DefaultBatchLimit = 50

const experienceStatsKey = "experiences:status"

// BatchResult reports a batch update. Ids that were missing or not eligible
// for the target status are not counted.
type BatchResult struct {
	Requested     int   `json:"requested"`
	ModifiedCount int64 `json:"modified_count"`
}

// ModerationService moderates experiences. Every public method writes exactly
// one audit entry, whether it succeeds or fails.
type ModerationService struct {
	repo       repository.ExperienceRepository
	audit      *AuditService
	bus        Publisher
	stats      cache.StatsCache
	batchLimit int
	log        *logrus.Entry
	now        func() time.Time
}

type ModerationOption func(*ModerationService)

func WithBatchLimit(n int) ModerationOption {
	return func(s *ModerationService) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

func WithStatsCache(c cache.StatsCache) ModerationOption {
	return func(s *ModerationService) {
		if c != nil {
			s.stats = c
		}
	}
}

func NewModerationService(repo repository.ExperienceRepository, audit *AuditService, bus Publisher, opts ...ModerationOption) *ModerationService {
	if bus == nil {
		bus = nopPublisher{}
	}
	s := &ModerationService{
		repo:       repo,
		audit:      audit,
		bus:        bus,
		stats:      cache.Noop{},
		batchLimit: DefaultBatchLimit,
		log:        logger.Component("moderation"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func experienceAction(target models.ExperienceStatus) models.AuditAction {
	switch target {
	case models.ExperienceStatusApproved:
		return models.ActionApproveExperience
	case models.ExperienceStatusRejected:
		return models.ActionRejectExperience
	case models.ExperienceStatusPending:
		return models.ActionReopenExperience
	}
	return models.ActionModerateExperience
}

func bulkExperienceAction(target models.ExperienceStatus) models.AuditAction {
	switch target {
	case models.ExperienceStatusApproved:
		return models.ActionBulkApproveExperiences
	case models.ExperienceStatusRejected:
		return models.ActionBulkRejectExperiences
	case models.ExperienceStatusPending:
		return models.ActionBulkReopenExperiences
	}
	return models.ActionBulkModerateExperiences
}

// Moderate moves one experience to target.
func (s *ModerationService) Moderate(ctx context.Context, id string, target models.ExperienceStatus, actor Actor, opts workflow.ExperienceOptions) (result *models.Experience, err error) {
	action := experienceAction(target)
	details := map[string]interface{}{
		"target_status":      string(target),
		"notes_length":       len([]rune(strings.TrimSpace(opts.Notes))),
		"verification_badge": opts.AddVerificationBadge,
	}
	var prev, next map[string]interface{}
	var publish func()
	defer func() {
		s.record(ctx, actor, action, id, details, prev, next, err)
		// events follow the audit entry
		if err == nil && publish != nil {
			publish()
		}
	}()

	if !target.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", target)}
	}
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadErr(models.ResourceExperience, id, err)
	}
	fields, err := workflow.ApplyExperienceTransition(*current, target, actor.ID, opts, s.now())
	if err != nil {
		return nil, err
	}

	// The write and its audit entry complete even if the client goes away.
	wctx := context.WithoutCancel(ctx)
	n, err := s.repo.UpdateIfMatch(wctx, id, repository.Match{"status": current.Status}, fields.Columns())
	if err != nil {
		return nil, storeErr("update experience", err)
	}
	if n == 0 {
		return nil, ErrConcurrentModification
	}

	updated := *current
	fields.Apply(&updated)
	prev, next = experienceSnapshot(current), experienceSnapshot(&updated)
	s.stats.Invalidate(wctx, "experiences:")

	event := StatusChangedPayload{
		ID:                updated.ID,
		Company:           updated.Company,
		Role:              updated.Role,
		From:              string(current.Status),
		To:                string(updated.Status),
		VerificationBadge: updated.VerificationBadge,
		ModeratedBy:       actor.ID,
		Timestamp:         s.now().UTC(),
	}
	publish = func() { s.bus.Publish(EventStatusChanged, event) }

	reloaded, rerr := s.repo.FindByID(wctx, id)
	if rerr != nil {
		s.log.WithError(rerr).WithField("id", id).Warn("re-read after moderation failed")
		return &updated, nil
	}
	return reloaded, nil
}

// ModerateBatch moves every listed experience that may legally reach target
// in a single bulk update.
func (s *ModerationService) ModerateBatch(ctx context.Context, ids []string, target models.ExperienceStatus, actor Actor, opts workflow.ExperienceOptions) (result *BatchResult, err error) {
	action := bulkExperienceAction(target)
	unique := dedupeIDs(ids)
	details := map[string]interface{}{
		"batch_operation": true,
		"requested":       len(unique),
		"target_status":   string(target),
		"notes_length":    len([]rune(strings.TrimSpace(opts.Notes))),
	}
	var publish func()
	defer func() {
		if result != nil {
			details["modified_count"] = result.ModifiedCount
		}
		s.record(ctx, actor, action, "", details, nil, nil, err)
		if err == nil && publish != nil {
			publish()
		}
	}()

	if err := validateBatch(unique, s.batchLimit); err != nil {
		return nil, err
	}
	details["experience_ids"] = unique
	if opts.AddVerificationBadge {
		return nil, &ValidationError{Field: "add_verification_badge", Message: "verification badge cannot be set in a batch"}
	}
	fields, err := workflow.ExperienceFieldsFor(target, actor.ID, opts, s.now())
	if err != nil {
		return nil, err
	}

	wctx := context.WithoutCancel(ctx)
	n, err := s.repo.UpdateMany(wctx, unique, workflow.Sources(workflow.KindExperience, string(target)), fields.Columns())
	if err != nil {
		return nil, storeErr("batch update experiences", err)
	}
	metrics.AddBatchModified(models.ResourceExperience, n)
	s.stats.Invalidate(wctx, "experiences:")

	event := BatchStatusChangedPayload{
		IDs:         unique,
		Status:      string(target),
		Requested:   len(unique),
		Count:       n,
		ModeratedBy: actor.ID,
		Timestamp:   s.now().UTC(),
	}
	publish = func() { s.bus.Publish(EventBatchStatusChanged, event) }
	return &BatchResult{Requested: len(unique), ModifiedCount: n}, nil
}

// ToggleVerificationBadge flips the badge of an approved experience.
func (s *ModerationService) ToggleVerificationBadge(ctx context.Context, id string, actor Actor) (result *models.Experience, err error) {
	action := models.ActionToggleVerificationBadge
	details := map[string]interface{}{}
	var prev, next map[string]interface{}
	var publish func()
	defer func() {
		s.record(ctx, actor, action, id, details, prev, next, err)
		if err == nil && publish != nil {
			publish()
		}
	}()

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadErr(models.ResourceExperience, id, err)
	}
	if current.Status != models.ExperienceStatusApproved {
		return nil, &InvalidStateError{
			Resource: models.ResourceExperience,
			Status:   string(current.Status),
			Message:  fmt.Sprintf("verification badge can only be toggled on approved experiences; this one is %s", current.Status),
		}
	}

	value := !current.VerificationBadge
	action = models.ActionRemoveVerificationBadge
	if value {
		action = models.ActionAddVerificationBadge
	}
	details["verification_badge"] = value

	wctx := context.WithoutCancel(ctx)
	n, err := s.repo.UpdateIfMatch(wctx, id,
		repository.Match{"status": models.ExperienceStatusApproved, "verification_badge": current.VerificationBadge},
		map[string]interface{}{"verification_badge": value, "moderated_by": actor.ID})
	if err != nil {
		return nil, storeErr("toggle verification badge", err)
	}
	if n == 0 {
		return nil, ErrConcurrentModification
	}

	updated := *current
	updated.VerificationBadge = value
	updated.ModeratedBy = &actor.ID
	prev = map[string]interface{}{"verification_badge": current.VerificationBadge}
	next = map[string]interface{}{"verification_badge": value}

	event := BadgeToggledPayload{
		ID:                updated.ID,
		Company:           updated.Company,
		Role:              updated.Role,
		VerificationBadge: value,
		ModeratedBy:       actor.ID,
		Timestamp:         s.now().UTC(),
	}
	publish = func() { s.bus.Publish(EventBadgeToggled, event) }

	reloaded, rerr := s.repo.FindByID(wctx, id)
	if rerr != nil {
		return &updated, nil
	}
	return reloaded, nil
}

// Get returns one experience with its private fields.
func (s *ModerationService) Get(ctx context.Context, id string, actor Actor) (result *models.Experience, err error) {
	defer func() {
		s.record(ctx, actor, models.ActionViewExperience, id, nil, nil, nil, err)
	}()
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadErr(models.ResourceExperience, id, err)
	}
	return e, nil
}

// ListQueue pages through experiences for review.
func (s *ModerationService) ListQueue(ctx context.Context, filter repository.ExperienceFilter, page, pageSize int, actor Actor) (items []models.Experience, total int64, err error) {
	details := map[string]interface{}{
		"status":    string(filter.Status),
		"page":      page,
		"page_size": pageSize,
	}
	defer func() {
		if err == nil {
			details["returned"] = len(items)
		}
		s.record(ctx, actor, models.ActionViewExperiences, "", details, nil, nil, err)
	}()

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", filter.Status)}
	}
	offset, limit, err := paging(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items, total, err = s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, storeErr("list experiences", err)
	}
	return items, total, nil
}

// Stats counts experiences per status. Every known status is present.
func (s *ModerationService) Stats(ctx context.Context, actor Actor) (counts map[string]int64, err error) {
	defer func() {
		s.record(ctx, actor, models.ActionViewDashboard, "", map[string]interface{}{"scope": "experiences"}, nil, nil, err)
	}()

	if s.stats.Get(ctx, experienceStatsKey, &counts) {
		return counts, nil
	}
	raw, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, storeErr("count experiences", err)
	}
	counts = make(map[string]int64, len(models.ExperienceStatuses))
	for _, st := range models.ExperienceStatuses {
		counts[string(st)] = raw[string(st)]
	}
	s.stats.Set(ctx, experienceStatsKey, counts)
	return counts, nil
}

func (s *ModerationService) record(ctx context.Context, actor Actor, action models.AuditAction, resourceID string, details, prev, next map[string]interface{}, err error) {
	recordOutcome(ctx, s.audit, s.log, actor, models.ResourceExperience, action, resourceID, details, prev, next, err)
}

// recordOutcome writes the single audit entry of a service call.
func recordOutcome(ctx context.Context, audit *AuditService, log *logrus.Entry, actor Actor, resourceType string, action models.AuditAction, resourceID string, details, prev, next map[string]interface{}, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		action = action.Failed()
		if details == nil {
			details = map[string]interface{}{}
		}
		class := ErrorClass(err)
		details["error"] = class
		if class != "store" && class != "internal" {
			details["message"] = err.Error()
		}
		var ite *IllegalTransitionError
		if errors.As(err, &ite) {
			details["from_status"] = ite.From
			details["allowed"] = ite.Allowed
		}
		log.WithError(err).WithFields(logrus.Fields{
			"action":      action,
			"actor_id":    actor.ID,
			"resource_id": resourceID,
		}).Info("moderation action failed")
	}
	metrics.ObserveModeration(resourceType, string(action), outcome)
	if audit == nil {
		return
	}
	entry := &models.AuditEntry{
		ActorID:      actor.ID,
		Action:       action,
		ResourceType: resourceType,
		Details:      details,
		PreviousData: prev,
		NewData:      next,
		IPAddress:    actor.IPAddress,
		UserAgent:    actor.UserAgent,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	audit.Append(ctx, entry)
}

func experienceSnapshot(e *models.Experience) map[string]interface{} {
	return map[string]interface{}{
		"status":             string(e.Status),
		"verification_badge": e.VerificationBadge,
		"moderated_by":       deref(e.ModeratedBy),
		"moderation_notes":   deref(e.ModerationNotes),
		"approved_at":        stamp(e.ApprovedAt),
		"rejected_at":        stamp(e.RejectedAt),
	}
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func validateBatch(ids []string, limit int) error {
	if len(ids) == 0 {
		return &ValidationError{Field: "ids", Message: "at least one id is required"}
	}
	if len(ids) > limit {
		return &ValidationError{Field: "ids", Message: fmt.Sprintf("at most %d ids per batch", limit)}
	}
	return nil
}

func deref(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func stamp(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

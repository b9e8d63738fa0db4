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
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxTimeBuckets bounds a single timeline query.
	MaxTimeBuckets = 5000
)

// Granularity is the width of a timeline bucket.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

func (g Granularity) truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GranularityHour:
		return t.Truncate(time.Hour)
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

func (g Granularity) next(t time.Time) time.Time {
	switch g {
	case GranularityHour:
		return t.Add(time.Hour)
	case GranularityDay:
		return t.AddDate(0, 0, 1)
	}
	return t.AddDate(0, 1, 0)
}

// sqlFormat is the strftime pattern naming the bucket of a created_at value.
func (g Granularity) sqlFormat() string {
	switch g {
	case GranularityHour:
		return "%Y-%m-%dT%H"
	case GranularityDay:
		return "%Y-%m-%d"
	}
	return "%Y-%m"
}

// key renders a bucket start the way sqlFormat renders its rows.
func (g Granularity) key(t time.Time) string {
	switch g {
	case GranularityHour:
		return t.Format("2006-01-02T15")
	case GranularityDay:
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01")
}

// Bucket is one timeline slot starting at Start (UTC).
type Bucket struct {
	Start time.Time `json:"start"`
	Count int64     `json:"count"`
}

var auditSortColumns = map[string]bool{
	"created_at":    true,
	"action":        true,
	"actor_id":      true,
	"resource_type": true,
}

// AuditService is the append-only audit trail.
type AuditService struct {
	repo  repository.AuditRepository
	stats cache.StatsCache
	log   *logrus.Entry
	now   func() time.Time
}

func NewAuditService(repo repository.AuditRepository, stats cache.StatsCache) *AuditService {
	if stats == nil {
		stats = cache.Noop{}
	}
	return &AuditService{
		repo:  repo,
		stats: stats,
		log:   logger.Component("audit"),
		now:   time.Now,
	}
}

// Append stores entry and returns its id. Failures are logged and counted
// but never returned: the audited action has already happened.
func (s *AuditService) Append(ctx context.Context, entry *models.AuditEntry) string {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		werr := &AuditWriteError{Action: entry.Action, Err: err}
		metrics.IncAuditWriteFailure()
		s.log.WithError(werr).WithFields(logrus.Fields{
			"action":        entry.Action,
			"actor_id":      entry.ActorID,
			"resource_type": entry.ResourceType,
		}).Error("failed to write audit entry")
		return ""
	}
	return entry.ID
}

// Record builds and appends an entry for actor.
func (s *AuditService) Record(ctx context.Context, actor Actor, action models.AuditAction, resourceType, resourceID string, details map[string]interface{}) string {
	entry := &models.AuditEntry{
		ActorID:      actor.ID,
		Action:       action,
		ResourceType: resourceType,
		Details:      details,
		IPAddress:    actor.IPAddress,
		UserAgent:    actor.UserAgent,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	return s.Append(ctx, entry)
}

// Query returns one page of entries matching filter and the total match count.
func (s *AuditService) Query(ctx context.Context, filter repository.AuditFilter, page, pageSize int, sortBy, sortOrder string) ([]models.AuditEntry, int64, error) {
	if sortBy == "" {
		sortBy = "created_at"
	}
	if !auditSortColumns[sortBy] {
		return nil, 0, &ValidationError{Field: "sort_by", Message: "unsupported sort column " + sortBy}
	}
	desc := true
	switch strings.ToLower(sortOrder) {
	case "", "desc":
	case "asc":
		desc = false
	default:
		return nil, 0, &ValidationError{Field: "sort_order", Message: "must be asc or desc"}
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, 0, &ValidationError{Field: "from", Message: "from must not be after to"}
	}
	offset, limit, err := paging(page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items, total, err := s.repo.Query(ctx, filter, repository.AuditSort{Column: sortBy, Desc: desc}, offset, limit)
	if err != nil {
		return nil, 0, storeErr("query audit entries", err)
	}
	return items, total, nil
}

// CountByAction aggregates entries per action tag. Results are cached briefly.
func (s *AuditService) CountByAction(ctx context.Context, filter repository.AuditFilter) (map[string]int64, error) {
	key := "audit:actions:" + filterKey(filter)
	var counts map[string]int64
	if s.stats.Get(ctx, key, &counts) {
		return counts, nil
	}
	counts, err := s.repo.CountByAction(ctx, filter)
	if err != nil {
		return nil, storeErr("count audit actions", err)
	}
	s.stats.Set(ctx, key, counts)
	return counts, nil
}

// CountInTimeBuckets counts entries created within [start, end] per UTC
// bucket. Buckets are contiguous and include empty ones.
func (s *AuditService) CountInTimeBuckets(ctx context.Context, start, end time.Time, g Granularity) ([]Bucket, error) {
	switch g {
	case GranularityHour, GranularityDay, GranularityMonth:
	default:
		return nil, &ValidationError{Field: "granularity", Message: "must be hour, day or month"}
	}
	if start.After(end) {
		return nil, &ValidationError{Field: "start", Message: "start must not be after end"}
	}

	first := g.truncate(start)
	last := g.truncate(end)
	var buckets []Bucket
	for b := first; !b.After(last); b = g.next(b) {
		if len(buckets) == MaxTimeBuckets {
			return nil, &ValidationError{Field: "granularity", Message: fmt.Sprintf("range spans more than %d buckets", MaxTimeBuckets)}
		}
		buckets = append(buckets, Bucket{Start: b})
	}

	counts, err := s.repo.CountBuckets(ctx, start, end.Add(time.Nanosecond), g.sqlFormat())
	if err != nil {
		return nil, storeErr("load audit timeline", err)
	}
	for i := range buckets {
		buckets[i].Count = counts[g.key(buckets[i].Start)]
	}
	return buckets, nil
}

// PurgeOlderThan deletes entries older than age in one statement and records
// the purge itself.
func (s *AuditService) PurgeOlderThan(ctx context.Context, age time.Duration, actor Actor) (int64, error) {
	if age <= 0 {
		err := &ValidationError{Field: "older_than", Message: "retention must be positive"}
		s.Record(ctx, actor, models.ActionPurgeAuditLogs.Failed(), models.ResourceAuditLog, "", map[string]interface{}{"error": ErrorClass(err)})
		return 0, err
	}
	cutoff := s.now().UTC().Add(-age)
	ctx = context.WithoutCancel(ctx)

	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.Record(ctx, actor, models.ActionPurgeAuditLogs.Failed(), models.ResourceAuditLog, "", map[string]interface{}{
			"error":  "store",
			"cutoff": cutoff.Format(time.RFC3339),
		})
		return 0, storeErr("purge audit entries", err)
	}
	metrics.AddAuditPurged(n)
	s.stats.Invalidate(ctx, "audit:")
	s.Record(ctx, actor, models.ActionPurgeAuditLogs, models.ResourceAuditLog, "", map[string]interface{}{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": n,
	})
	s.log.WithFields(logrus.Fields{"deleted": n, "cutoff": cutoff}).Info("purged audit entries")
	return n, nil
}

func filterKey(f repository.AuditFilter) string {
	stamp := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return strings.Join([]string{f.ActorID, f.Action, f.ResourceType, f.ResourceID, stamp(f.From), stamp(f.To), fmt.Sprint(f.FailuresOnly)}, "|")
}

// paging converts a 1-based page into offset and limit.
func paging(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		return 0, 0, &ValidationError{Field: "page", Message: "must be at least 1"}
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return 0, 0, &ValidationError{Field: "page_size", Message: fmt.Sprintf("must be between 1 and %d", MaxPageSize)}
	}
	return (page - 1) * pageSize, pageSize, nil
}

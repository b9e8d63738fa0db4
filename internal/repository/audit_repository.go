package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anishLS3/Placify-sub001/internal/models"
)

// AuditFilter selects audit entries. From and To bound created_at inclusively.
type AuditFilter struct {
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
	// FailuresOnly keeps only *_FAILED actions.
	FailuresOnly bool
}

func (f AuditFilter) scope(q *gorm.DB) *gorm.DB {
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.ResourceType != "" {
		q = q.Where("resource_type = ?", f.ResourceType)
	}
	if f.ResourceID != "" {
		q = q.Where("resource_id = ?", f.ResourceID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", f.To.UTC())
	}
	if f.FailuresOnly {
		q = q.Where("action LIKE ?", "%_FAILED")
	}
	return q
}

// AuditSort orders a query by one column. Column must already be validated.
type AuditSort struct {
	Column string
	Desc   bool
}

// AuditRepository stores audit entries. There is deliberately no update path.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	Query(ctx context.Context, filter AuditFilter, sort AuditSort, offset, limit int) ([]models.AuditEntry, int64, error)
	CountByAction(ctx context.Context, filter AuditFilter) (map[string]int64, error)
	// CountBuckets counts entries created in [from, to) grouped by the strftime
	// rendering of created_at under format.
	CountBuckets(ctx context.Context, from, to time.Time, format string) (map[string]int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) Query(ctx context.Context, filter AuditFilter, sort AuditSort, offset, limit int) ([]models.AuditEntry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.AuditEntry{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col := strings.TrimSpace(sort.Column)
	if col == "" {
		col = "created_at"
	}
	var out []models.AuditEntry
	err := r.db.WithContext(ctx).Scopes(filter.scope).
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: sort.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: sort.Desc}).
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, total, err
}

type actionCount struct {
	Action string
	Count  int64
}

func (r *auditRepository) CountByAction(ctx context.Context, filter AuditFilter) (map[string]int64, error) {
	var rows []actionCount
	err := r.db.WithContext(ctx).Model(&models.AuditEntry{}).Scopes(filter.scope).
		Select("action, COUNT(*) AS count").
		Group("action").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Action] = row.Count
	}
	return out, nil
}

type bucketCount struct {
	Bucket string
	Count  int64
}

func (r *auditRepository) CountBuckets(ctx context.Context, from, to time.Time, format string) (map[string]int64, error) {
	var rows []bucketCount
	err := r.db.WithContext(ctx).Model(&models.AuditEntry{}).
		Select("strftime(?, created_at) AS bucket, COUNT(*) AS count", format).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Group("bucket").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Bucket] = row.Count
	}
	return out, nil
}

func (r *auditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&models.AuditEntry{})
	return res.RowsAffected, res.Error
}

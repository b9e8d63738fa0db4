package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/anishLS3/Placify-sub001/internal/models"
)

// ExperienceFilter narrows experience listings. Zero fields are ignored.
type ExperienceFilter struct {
	Status  models.ExperienceStatus
	Company string
	Search  string
}

type ExperienceRepository interface {
	Create(ctx context.Context, e *models.Experience) error
	FindByID(ctx context.Context, id string) (*models.Experience, error)
	// UpdateIfMatch updates the record only while every match column still
	// holds the given value and returns the number of rows changed.
	UpdateIfMatch(ctx context.Context, id string, match Match, cols map[string]interface{}) (int64, error)
	// UpdateMany updates every listed record whose status is in eligible.
	UpdateMany(ctx context.Context, ids []string, eligible []string, cols map[string]interface{}) (int64, error)
	List(ctx context.Context, filter ExperienceFilter, offset, limit int) ([]models.Experience, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type experienceRepository struct{ db *gorm.DB }

func NewExperienceRepository(db *gorm.DB) ExperienceRepository {
	return &experienceRepository{db: db}
}

func (r *experienceRepository) Create(ctx context.Context, e *models.Experience) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *experienceRepository) FindByID(ctx context.Context, id string) (*models.Experience, error) {
	var e models.Experience
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *experienceRepository) UpdateIfMatch(ctx context.Context, id string, match Match, cols map[string]interface{}) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Experience{}).Where("id = ?", id)
	res := applyMatch(q, match).Updates(cols)
	return res.RowsAffected, res.Error
}

func (r *experienceRepository) UpdateMany(ctx context.Context, ids []string, eligible []string, cols map[string]interface{}) (int64, error) {
	if len(ids) == 0 || len(eligible) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Experience{}).
		Where("id IN ? AND status IN ?", ids, eligible).
		Updates(cols)
	return res.RowsAffected, res.Error
}

func (r *experienceRepository) List(ctx context.Context, filter ExperienceFilter, offset, limit int) ([]models.Experience, int64, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Company != "" {
			q = q.Where("LOWER(company) = ?", strings.ToLower(filter.Company))
		}
		if filter.Search != "" {
			like := "%" + strings.ToLower(filter.Search) + "%"
			q = q.Where("LOWER(company) LIKE ? OR LOWER(role) LIKE ?", like, like)
		}
		return q
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Experience{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Experience
	err := r.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").Order("id").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, total, err
}

func (r *experienceRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countsByStatus(r.db.WithContext(ctx).Model(&models.Experience{}))
}

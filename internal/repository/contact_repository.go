package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/anishLS3/Placify-sub001/internal/models"
)

type ContactFilter struct {
	Status   models.ContactStatus
	Category models.ContactCategory
	Priority models.ContactPriority
}

type ContactRepository interface {
	Create(ctx context.Context, c *models.Contact) error
	FindByID(ctx context.Context, id string) (*models.Contact, error)
	UpdateIfMatch(ctx context.Context, id string, match Match, cols map[string]interface{}) (int64, error)
	UpdateMany(ctx context.Context, ids []string, eligible []string, cols map[string]interface{}) (int64, error)
	List(ctx context.Context, filter ContactFilter, offset, limit int) ([]models.Contact, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type contactRepository struct{ db *gorm.DB }

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, c *models.Contact) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *contactRepository) FindByID(ctx context.Context, id string) (*models.Contact, error) {
	var c models.Contact
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *contactRepository) UpdateIfMatch(ctx context.Context, id string, match Match, cols map[string]interface{}) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Contact{}).Where("id = ?", id)
	res := applyMatch(q, match).Updates(cols)
	return res.RowsAffected, res.Error
}

func (r *contactRepository) UpdateMany(ctx context.Context, ids []string, eligible []string, cols map[string]interface{}) (int64, error) {
	if len(ids) == 0 || len(eligible) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Contact{}).
		Where("id IN ? AND status IN ?", ids, eligible).
		Updates(cols)
	return res.RowsAffected, res.Error
}

func (r *contactRepository) List(ctx context.Context, filter ContactFilter, offset, limit int) ([]models.Contact, int64, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		if filter.Priority != "" {
			q = q.Where("priority = ?", filter.Priority)
		}
		return q
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Contact{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Contact
	err := r.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").Order("id").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, total, err
}

func (r *contactRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countsByStatus(r.db.WithContext(ctx).Model(&models.Contact{}))
}

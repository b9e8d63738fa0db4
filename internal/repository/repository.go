// Package repository is the record store behind the moderation services.
// Every mutation is a single conditional UPDATE; callers inspect the
// affected row count to detect lost races.
package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Match is an equality predicate added to a conditional update.
type Match map[string]interface{}

func applyMatch(q *gorm.DB, m Match) *gorm.DB {
	for col, v := range m {
		q = q.Where(clause.Eq{Column: clause.Column{Name: col}, Value: v})
	}
	return q
}

// StatusCount is one row of a GROUP BY status aggregate.
type StatusCount struct {
	Status string
	Count  int64
}

func countsByStatus(q *gorm.DB) (map[string]int64, error) {
	var rows []StatusCount
	if err := q.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

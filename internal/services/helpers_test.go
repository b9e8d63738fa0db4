package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anishLS3/Placify-sub001/internal/database"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
)

var testAdmin = Actor{ID: "admin-1", Role: models.RoleAdmin, IPAddress: "10.0.0.1", UserAgent: "go-test"}

type published struct {
	name    string
	payload interface{}
}

// recordingPublisher captures events synchronously.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(name string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{name: name, payload: payload})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.name)
	}
	return out
}

func (p *recordingPublisher) last() published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

// auditSnapshotPublisher notes how many audit rows existed when each event
// was published.
type auditSnapshotPublisher struct {
	db   *gorm.DB
	mu   sync.Mutex
	seen []int64
}

func (p *auditSnapshotPublisher) Publish(string, interface{}) {
	var n int64
	p.db.Model(&models.AuditEntry{}).Count(&n)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, n)
}

func (p *auditSnapshotPublisher) counts() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.seen...)
}

// flakyExperienceRepo lets a test force store failures or lost races.
type flakyExperienceRepo struct {
	repository.ExperienceRepository
	updateErr   error
	raceOnWrite bool
	findErr     error
}

func (r *flakyExperienceRepo) FindByID(ctx context.Context, id string) (*models.Experience, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.ExperienceRepository.FindByID(ctx, id)
}

func (r *flakyExperienceRepo) UpdateIfMatch(ctx context.Context, id string, match repository.Match, cols map[string]interface{}) (int64, error) {
	if r.updateErr != nil {
		return 0, r.updateErr
	}
	if r.raceOnWrite {
		return 0, nil
	}
	return r.ExperienceRepository.UpdateIfMatch(ctx, id, match, cols)
}

func (r *flakyExperienceRepo) UpdateMany(ctx context.Context, ids []string, eligible []string, cols map[string]interface{}) (int64, error) {
	if r.updateErr != nil {
		return 0, r.updateErr
	}
	return r.ExperienceRepository.UpdateMany(ctx, ids, eligible, cols)
}

type failingAuditRepo struct {
	repository.AuditRepository
}

func (failingAuditRepo) Create(context.Context, *models.AuditEntry) error {
	return errors.New("disk full")
}

type moderationFixture struct {
	db    *gorm.DB
	repo  *flakyExperienceRepo
	audit *AuditService
	bus   *recordingPublisher
	svc   *ModerationService
	now   time.Time
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	db := database.OpenTestDB(t)
	f := &moderationFixture{
		db:   db,
		repo: &flakyExperienceRepo{ExperienceRepository: repository.NewExperienceRepository(db)},
		bus:  &recordingPublisher{},
		now:  time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC),
	}
	f.audit = NewAuditService(repository.NewAuditRepository(db), nil)
	f.audit.now = tickingClock(f.now)
	f.svc = NewModerationService(f.repo, f.audit, f.bus)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *moderationFixture) seed(t *testing.T, status models.ExperienceStatus) *models.Experience {
	t.Helper()
	e := &models.Experience{
		CandidateName: "Asha Rao",
		Email:         "asha@example.com",
		Company:       "Acme",
		Role:          "SDE Intern",
		Experience:    "Two technical rounds and an HR round.",
		Status:        status,
	}
	require.NoError(t, f.db.Create(e).Error)
	return e
}

func (f *moderationFixture) entries(t *testing.T) []models.AuditEntry {
	t.Helper()
	var out []models.AuditEntry
	require.NoError(t, f.db.Order("created_at, id").Find(&out).Error)
	return out
}

func actions(entries []models.AuditEntry) []models.AuditAction {
	out := make([]models.AuditAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

// tickingClock advances a millisecond per call so audit rows sort by write order.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Millisecond)
		return cur
	}
}

package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anishLS3/Placify-sub001/internal/database"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
	"github.com/anishLS3/Placify-sub001/internal/workflow"
)

type contactFixture struct {
	db  *gorm.DB
	bus *recordingPublisher
	svc *ContactService
}

func newContactFixture(t *testing.T) *contactFixture {
	t.Helper()
	db := database.OpenTestDB(t)
	audit := NewAuditService(repository.NewAuditRepository(db), nil)
	start := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	audit.now = tickingClock(start)
	f := &contactFixture{db: db, bus: &recordingPublisher{}}
	f.svc = NewContactService(repository.NewContactRepository(db), audit, f.bus, nil, 0)
	f.svc.now = func() time.Time { return start }
	return f
}

func (f *contactFixture) seed(t *testing.T, status models.ContactStatus) *models.Contact {
	t.Helper()
	c := &models.Contact{
		Name:     "Ravi",
		Email:    "ravi@example.com",
		Subject:  "Broken filter",
		Category: models.ContactCategoryBug,
		Message:  "The company filter returns nothing.",
		Status:   status,
	}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func (f *contactFixture) actions(t *testing.T) []models.AuditAction {
	t.Helper()
	var entries []models.AuditEntry
	require.NoError(t, f.db.Order("created_at, id").Find(&entries).Error)
	return actions(entries)
}

func TestContactService_Lifecycle(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	c := f.seed(t, models.ContactStatusNew)
	high := models.ContactPriorityHigh

	got, err := f.svc.UpdateStatus(ctx, c.ID, models.ContactStatusInProgress, testAdmin, workflow.ContactOptions{Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, models.ContactStatusInProgress, got.Status)
	require.NotNil(t, got.Priority)
	assert.Equal(t, high, *got.Priority)

	got, err = f.svc.UpdateStatus(ctx, c.ID, models.ContactStatusResolved, testAdmin, workflow.ContactOptions{Notes: "fixed in the last deploy"})
	require.NoError(t, err)
	require.NotNil(t, got.ResolvedAt)
	assert.Nil(t, got.ClosedAt)
	require.NotNil(t, got.Priority, "priority is kept when not supplied")

	got, err = f.svc.UpdateStatus(ctx, c.ID, models.ContactStatusClosed, testAdmin, workflow.ContactOptions{})
	require.NoError(t, err)
	assert.NotNil(t, got.ClosedAt)
	assert.NotNil(t, got.ResolvedAt, "closing keeps the resolution time")
	require.NotNil(t, got.ModerationNotes, "notes are kept when not supplied")

	_, err = f.svc.UpdateStatus(ctx, c.ID, models.ContactStatusResolved, testAdmin, workflow.ContactOptions{})
	var ite *IllegalTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, []string{"in-progress"}, ite.Allowed)

	got, err = f.svc.UpdateStatus(ctx, c.ID, models.ContactStatusInProgress, testAdmin, workflow.ContactOptions{})
	require.NoError(t, err)
	assert.Nil(t, got.ClosedAt)
	assert.Nil(t, got.ResolvedAt)

	assert.Equal(t, []models.AuditAction{
		models.ActionUpdateContactStatus,
		models.ActionUpdateContactStatus,
		models.ActionUpdateContactStatus,
		"UPDATE_CONTACT_STATUS_FAILED",
		models.ActionUpdateContactStatus,
	}, f.actions(t))

	require.Len(t, f.bus.names(), 4)
	payload, ok := f.bus.last().payload.(ContactStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, "closed", payload.From)
	assert.Equal(t, "in-progress", payload.To)
	assert.Equal(t, "high", payload.Priority)
}

func TestContactService_UpdateStatusErrors(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, "x", models.ContactStatus("archived"), testAdmin, workflow.ContactOptions{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = f.svc.UpdateStatus(ctx, "missing", models.ContactStatusClosed, testAdmin, workflow.ContactOptions{})
	require.ErrorIs(t, err, ErrNotFound)

	c := f.seed(t, models.ContactStatusNew)
	_, err = f.svc.UpdateStatus(ctx, c.ID, models.ContactStatusNew, testAdmin, workflow.ContactOptions{})
	var ite *IllegalTransitionError
	require.ErrorAs(t, err, &ite)

	assert.Len(t, f.actions(t), 3)
	assert.Empty(t, f.bus.names())
}

func TestContactService_Batch(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	a := f.seed(t, models.ContactStatusNew)
	b := f.seed(t, models.ContactStatusInProgress)
	closed := f.seed(t, models.ContactStatusClosed)

	res, err := f.svc.UpdateStatusBatch(ctx, []string{a.ID, b.ID, closed.ID, "missing"}, models.ContactStatusResolved, testAdmin, workflow.ContactOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Requested)
	assert.Equal(t, int64(2), res.ModifiedCount)

	var stored models.Contact
	require.NoError(t, f.db.First(&stored, "id = ?", closed.ID).Error)
	assert.Equal(t, models.ContactStatusClosed, stored.Status)

	_, err = f.svc.UpdateStatusBatch(ctx, nil, models.ContactStatusResolved, testAdmin, workflow.ContactOptions{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	assert.Equal(t, []models.AuditAction{
		models.ActionBulkUpdateContactStatus,
		"BULK_UPDATE_CONTACT_STATUS_FAILED",
	}, f.actions(t))
	assert.Equal(t, []string{EventContactBatchStatusChanged}, f.bus.names())
}

func TestContactService_BatchOverLimitKeepsAuditSmall(t *testing.T) {
	f := newContactFixture(t)
	ids := make([]string, 500)
	for i := range ids {
		ids[i] = fmt.Sprintf("contact-%d", i)
	}

	_, err := f.svc.UpdateStatusBatch(context.Background(), ids, models.ContactStatusClosed, testAdmin, workflow.ContactOptions{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "ids", ve.Field)

	var entries []models.AuditEntry
	require.NoError(t, f.db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.EqualValues(t, 500, entries[0].Details["requested"])
	assert.NotContains(t, entries[0].Details, "contact_ids")
}

func TestContactService_ReadsAndStats(t *testing.T) {
	f := newContactFixture(t)
	ctx := context.Background()
	c := f.seed(t, models.ContactStatusNew)
	f.seed(t, models.ContactStatusResolved)

	got, err := f.svc.Get(ctx, c.ID, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", got.Email)

	items, total, err := f.svc.List(ctx, repository.ContactFilter{Status: models.ContactStatusNew}, 1, 10, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)

	_, _, err = f.svc.List(ctx, repository.ContactFilter{Priority: "urgent"}, 1, 10, testAdmin)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "priority", ve.Field)

	stats, err := f.svc.Stats(ctx, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"new": 1, "in-progress": 0, "resolved": 1, "closed": 0}, stats)

	assert.Equal(t, []models.AuditAction{
		models.ActionViewContacts,
		models.ActionViewContacts,
		"VIEW_CONTACTS_FAILED",
		models.ActionViewDashboard,
	}, f.actions(t))
}

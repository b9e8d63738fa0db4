package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anishLS3/Placify-sub001/internal/eventbus"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
	"github.com/anishLS3/Placify-sub001/internal/workflow"
)

func TestModerate_StuckAndPanickingSubscribersDoNotBlock(t *testing.T) {
	f := newModerationFixture(t)
	bus := eventbus.New(eventbus.Options{QueueSize: 1})
	release := make(chan struct{})
	t.Cleanup(func() {
		close(release)
		bus.Close()
	})

	stuck := bus.Subscribe(EventStatusChanged, func(ctx context.Context, ev eventbus.Event) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, eventbus.WithLabel("stuck"))
	bus.Subscribe(eventbus.Wildcard, func(context.Context, eventbus.Event) error {
		panic("subscriber bug")
	}, eventbus.WithLabel("panicky"))

	svc := NewModerationService(f.repo, f.audit, bus)
	ids := make([]string, 5)
	for i := range ids {
		ids[i] = f.seed(t, models.ExperienceStatusPending).ID
	}

	start := time.Now()
	for _, id := range ids {
		_, err := svc.Moderate(context.Background(), id, models.ExperienceStatusApproved, testAdmin, workflow.ExperienceOptions{})
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Len(t, f.entries(t), 5)
	// one event in the handler, one queued, the rest dropped
	assert.GreaterOrEqual(t, stuck.Dropped(), uint64(3))
}

func TestModerate_ConcurrentApprovalsHaveOneWinner(t *testing.T) {
	f := newModerationFixture(t)
	// one connection keeps sqlite from reporting table locks; goroutines
	// still interleave between the read and the conditional update
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc := NewModerationService(repository.NewExperienceRepository(f.db), f.audit, f.bus)
	exp := f.seed(t, models.ExperienceStatusPending)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	gate := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-gate
			_, errs[i] = svc.Moderate(context.Background(), exp.ID, models.ExperienceStatusApproved, testAdmin, workflow.ExperienceOptions{})
		}(i)
	}
	close(gate)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var ite *IllegalTransitionError
		assert.True(t, errors.Is(err, ErrConcurrentModification) || errors.As(err, &ite), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	entries := f.entries(t)
	require.Len(t, entries, workers)
	byAction := map[models.AuditAction]int{}
	for _, e := range entries {
		byAction[e.Action]++
	}
	assert.Equal(t, 1, byAction[models.ActionApproveExperience])
	assert.Equal(t, workers-1, byAction[models.ActionApproveExperience.Failed()])
	assert.Equal(t, []string{EventStatusChanged}, f.bus.names())
}

func TestModerationService_PublishesAfterAudit(t *testing.T) {
	f := newModerationFixture(t)
	pub := &auditSnapshotPublisher{db: f.db}
	svc := NewModerationService(f.repo, f.audit, pub)
	ctx := context.Background()
	a := f.seed(t, models.ExperienceStatusPending)
	b := f.seed(t, models.ExperienceStatusPending)

	_, err := svc.Moderate(ctx, a.ID, models.ExperienceStatusApproved, testAdmin, workflow.ExperienceOptions{})
	require.NoError(t, err)
	_, err = svc.ToggleVerificationBadge(ctx, a.ID, testAdmin)
	require.NoError(t, err)
	_, err = svc.ModerateBatch(ctx, []string{b.ID}, models.ExperienceStatusApproved, testAdmin, workflow.ExperienceOptions{})
	require.NoError(t, err)

	// each event sees its own audit entry already stored
	assert.Equal(t, []int64{1, 2, 3}, pub.counts())
}

func TestContactService_PublishesAfterAudit(t *testing.T) {
	f := newContactFixture(t)
	pub := &auditSnapshotPublisher{db: f.db}
	f.svc.bus = pub
	ctx := context.Background()
	a := f.seed(t, models.ContactStatusNew)
	b := f.seed(t, models.ContactStatusNew)

	_, err := f.svc.UpdateStatus(ctx, a.ID, models.ContactStatusResolved, testAdmin, workflow.ContactOptions{})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatusBatch(ctx, []string{b.ID}, models.ContactStatusClosed, testAdmin, workflow.ContactOptions{})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, pub.counts())
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anishLS3/Placify-sub001/internal/cache"
	"github.com/anishLS3/Placify-sub001/internal/database"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
)

func newAuditFixture(t *testing.T) (*gorm.DB, *AuditService) {
	t.Helper()
	db := database.OpenTestDB(t)
	return db, NewAuditService(repository.NewAuditRepository(db), nil)
}

func appendAt(t *testing.T, svc *AuditService, action models.AuditAction, at time.Time) {
	t.Helper()
	id := svc.Append(context.Background(), &models.AuditEntry{
		ActorID:      testAdmin.ID,
		Action:       action,
		ResourceType: models.ResourceExperience,
		CreatedAt:    at,
	})
	require.NotEmpty(t, id)
}

func TestAuditService_RecordAndQuery(t *testing.T) {
	_, svc := newAuditFixture(t)
	ctx := context.Background()
	svc.now = tickingClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	svc.Record(ctx, testAdmin, models.ActionApproveExperience, models.ResourceExperience, "e1", map[string]interface{}{"target_status": "approved"})
	svc.Record(ctx, testAdmin, models.ActionRejectExperience.Failed(), models.ResourceExperience, "e2", nil)
	svc.Record(ctx, Actor{ID: "admin-2"}, models.ActionViewContacts, models.ResourceContact, "", nil)

	all, total, err := svc.Query(ctx, repository.AuditFilter{}, 1, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, models.ActionViewContacts, all[0].Action, "newest first by default")

	asc, _, err := svc.Query(ctx, repository.AuditFilter{}, 1, 10, "created_at", "asc")
	require.NoError(t, err)
	assert.Equal(t, models.ActionApproveExperience, asc[0].Action)
	assert.Equal(t, "approved", asc[0].Details["target_status"])

	failed, total, err := svc.Query(ctx, repository.AuditFilter{FailuresOnly: true}, 1, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, models.AuditAction("REJECT_EXPERIENCE_FAILED"), failed[0].Action)

	byActor, total, err := svc.Query(ctx, repository.AuditFilter{ActorID: "admin-2"}, 1, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Nil(t, byActor[0].ResourceID)

	page2, total, err := svc.Query(ctx, repository.AuditFilter{}, 2, 2, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page2, 1)
}

func TestAuditService_QueryValidation(t *testing.T) {
	_, svc := newAuditFixture(t)
	ctx := context.Background()
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	cases := []struct {
		name      string
		filter    repository.AuditFilter
		page      int
		pageSize  int
		sortBy    string
		sortOrder string
		field     string
	}{
		{name: "unknown sort column", sortBy: "details", field: "sort_by"},
		{name: "bad order", sortOrder: "sideways", field: "sort_order"},
		{name: "inverted range", filter: repository.AuditFilter{From: &from, To: &to}, field: "from"},
		{name: "negative page", page: -1, field: "page"},
		{name: "page too large", pageSize: MaxPageSize + 1, field: "page_size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Query(ctx, tc.filter, tc.page, tc.pageSize, tc.sortBy, tc.sortOrder)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestAuditService_CountInTimeBuckets(t *testing.T) {
	_, svc := newAuditFixture(t)
	ctx := context.Background()
	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	appendAt(t, svc, models.ActionLogin, day.Add(30*time.Minute))
	appendAt(t, svc, models.ActionLogin, day.Add(45*time.Minute))
	appendAt(t, svc, models.ActionLogin, day.Add(2*time.Hour+5*time.Minute))
	appendAt(t, svc, models.ActionLogin, day.Add(3*time.Hour))
	appendAt(t, svc, models.ActionLogin, day.Add(-time.Minute))

	buckets, err := svc.CountInTimeBuckets(ctx, day, day.Add(3*time.Hour), GranularityHour)
	require.NoError(t, err)
	require.Len(t, buckets, 4)
	counts := make([]int64, 0, len(buckets))
	for _, b := range buckets {
		counts = append(counts, b.Count)
	}
	assert.Equal(t, []int64{2, 0, 1, 1}, counts, "end bound is inclusive and empty buckets are kept")
	assert.Equal(t, day.Add(time.Hour), buckets[1].Start)

	daily, err := svc.CountInTimeBuckets(ctx, day.Add(-24*time.Hour), day.Add(12*time.Hour), GranularityDay)
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, int64(1), daily[0].Count)
	assert.Equal(t, int64(4), daily[1].Count)

	monthly, err := svc.CountInTimeBuckets(ctx, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), day, GranularityMonth)
	require.NoError(t, err)
	require.Len(t, monthly, 5)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), monthly[0].Start)
}

func TestAuditService_CountInTimeBucketsValidation(t *testing.T) {
	_, svc := newAuditFixture(t)
	ctx := context.Background()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.CountInTimeBuckets(ctx, start, start.AddDate(1, 0, 0), Granularity("week"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "granularity", ve.Field)

	_, err = svc.CountInTimeBuckets(ctx, start.Add(time.Hour), start, GranularityHour)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "start", ve.Field)

	_, err = svc.CountInTimeBuckets(ctx, start, start.AddDate(1, 0, 0), GranularityHour)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "5000")
}

func TestAuditService_CountByActionCached(t *testing.T) {
	db := database.OpenTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	stats := cache.NewRedis(client, time.Minute)
	svc := NewAuditService(repository.NewAuditRepository(db), stats)
	ctx := context.Background()

	svc.Record(ctx, testAdmin, models.ActionLogin, models.ResourceUser, "", nil)
	svc.Record(ctx, testAdmin, models.ActionLogin, models.ResourceUser, "", nil)
	svc.Record(ctx, testAdmin, models.ActionLogout, models.ResourceUser, "", nil)

	counts, err := svc.CountByAction(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"LOGIN": 2, "LOGOUT": 1}, counts)

	svc.Record(ctx, testAdmin, models.ActionLogout, models.ResourceUser, "", nil)
	cached, err := svc.CountByAction(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached["LOGOUT"], "served from cache until the ttl expires")

	mr.FastForward(2 * time.Minute)
	fresh, err := svc.CountByAction(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh["LOGOUT"])
}

func TestAuditService_PurgeOlderThan(t *testing.T) {
	db, svc := newAuditFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	appendAt(t, svc, models.ActionLogin, now.AddDate(0, 0, -120))
	appendAt(t, svc, models.ActionLogin, now.AddDate(0, 0, -91))
	appendAt(t, svc, models.ActionLogin, now.AddDate(0, 0, -10))

	n, err := svc.PurgeOlderThan(ctx, 90*24*time.Hour, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var remaining []models.AuditEntry
	require.NoError(t, db.Order("created_at").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, models.ActionLogin, remaining[0].Action)
	assert.Equal(t, models.ActionPurgeAuditLogs, remaining[1].Action)
	assert.EqualValues(t, 2, remaining[1].Details["deleted"])

	_, err = svc.PurgeOlderThan(ctx, 0, testAdmin)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	var failed int64
	require.NoError(t, db.Model(&models.AuditEntry{}).Where("action = ?", "PURGE_AUDIT_LOGS_FAILED").Count(&failed).Error)
	assert.Equal(t, int64(1), failed)
}

func TestPaging(t *testing.T) {
	offset, limit, err := paging(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, offset)
	assert.Equal(t, DefaultPageSize, limit)

	offset, limit, err = paging(3, 25)
	require.NoError(t, err)
	assert.Equal(t, 50, offset)
	assert.Equal(t, 25, limit)

	_, _, err = paging(1, -5)
	assert.Error(t, err)
}

package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anishLS3/Placify-sub001/internal/config"
	"github.com/anishLS3/Placify-sub001/internal/contentgate"
	"github.com/anishLS3/Placify-sub001/internal/database"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
)

func newSubmissionFixture(t *testing.T) (*SubmissionService, *recordingPublisher, repository.ExperienceRepository) {
	t.Helper()
	db := database.OpenTestDB(t)
	bus := &recordingPublisher{}
	experiences := repository.NewExperienceRepository(db)
	gate := contentgate.New(config.GateConfig{BlockedTerms: []string{"casino"}, MaxLinks: 1})
	return NewSubmissionService(experiences, repository.NewContactRepository(db), gate, bus), bus, experiences
}

func validExperience() contentgate.ExperienceSubmission {
	return contentgate.ExperienceSubmission{
		CandidateName: "  Meera Iyer ",
		Email:         "Meera@Example.com",
		Company:       "Globex",
		Role:          "Backend Engineer",
		Year:          2025,
		Difficulty:    "medium",
		Outcome:       "selected",
		Experience:    "Online assessment, then two system design rounds and a final culture fit chat.",
	}
}

func TestSubmitExperience_StoresPending(t *testing.T) {
	svc, bus, _ := newSubmissionFixture(t)

	e, err := svc.SubmitExperience(context.Background(), validExperience())
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, models.ExperienceStatusPending, e.Status)
	assert.Equal(t, "Meera Iyer", e.CandidateName)
	assert.Equal(t, "meera@example.com", e.Email)

	assert.Equal(t, []string{EventExperienceSubmitted}, bus.names())
	payload := bus.last().payload.(ExperienceSubmittedPayload)
	assert.Equal(t, "Globex", payload.Company)
}

func TestSubmitExperience_GateRejects(t *testing.T) {
	svc, bus, _ := newSubmissionFixture(t)

	in := validExperience()
	in.Tips = "Try the casino bonus"
	_, err := svc.SubmitExperience(context.Background(), in)
	var gre *GateRejectedError
	require.ErrorAs(t, err, &gre)
	assert.Equal(t, "content_rejected", ErrorClass(err))

	in = validExperience()
	in.Experience = "too short"
	_, err = svc.SubmitExperience(context.Background(), in)
	require.ErrorAs(t, err, &gre)

	assert.Empty(t, bus.names())
}

func TestSubmitContact(t *testing.T) {
	svc, bus, _ := newSubmissionFixture(t)

	c, err := svc.SubmitContact(context.Background(), contentgate.ContactSubmission{
		Name:     "Kiran",
		Email:    "kiran@example.com",
		Subject:  "Partnership",
		Category: "partnership",
		Message:  "We run a campus placement cell and would like to collaborate.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContactStatusNew, c.Status)
	assert.Equal(t, models.ContactCategoryPartnership, c.Category)
	assert.Nil(t, c.Priority)

	_, err = svc.SubmitContact(context.Background(), contentgate.ContactSubmission{
		Name:    "Kiran",
		Email:   "not-an-email",
		Subject: "Hi",
		Message: strings.Repeat("a", 5),
	})
	var gre *GateRejectedError
	require.ErrorAs(t, err, &gre)

	assert.Equal(t, []string{EventContactSubmitted}, bus.names())
}

func TestListPublished_OnlyApproved(t *testing.T) {
	svc, _, experiences := newSubmissionFixture(t)
	ctx := context.Background()

	pending, err := svc.SubmitExperience(ctx, validExperience())
	require.NoError(t, err)
	approved := &models.Experience{
		CandidateName: "Dev",
		Email:         "dev@example.com",
		Company:       "Globex",
		Role:          "SRE",
		Experience:    "Approved experience body.",
		Status:        models.ExperienceStatusApproved,
	}
	require.NoError(t, experiences.Create(ctx, approved))

	items, total, err := svc.ListPublished(ctx, "Globex", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, approved.ID, items[0].ID)
	assert.NotEqual(t, pending.ID, items[0].ID)

	_, _, err = svc.ListPublished(ctx, "", "", -1, 10)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

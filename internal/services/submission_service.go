package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anishLS3/Placify-sub001/internal/contentgate"
	"github.com/anishLS3/Placify-sub001/internal/logger"
	"github.com/anishLS3/Placify-sub001/internal/metrics"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
	"github.com/anishLS3/Placify-sub001/internal/util"
)

// SubmissionService ingests public experiences and contact messages.
type SubmissionService struct {
	experiences repository.ExperienceRepository
	contacts    repository.ContactRepository
	gate        contentgate.Gate
	bus         Publisher
	log         *logrus.Entry
	now         func() time.Time
}

func NewSubmissionService(experiences repository.ExperienceRepository, contacts repository.ContactRepository, gate contentgate.Gate, bus Publisher) *SubmissionService {
	if bus == nil {
		bus = nopPublisher{}
	}
	return &SubmissionService{
		experiences: experiences,
		contacts:    contacts,
		gate:        gate,
		bus:         bus,
		log:         logger.Component("submissions"),
		now:         time.Now,
	}
}

// SubmitExperience stores an accepted experience as pending.
func (s *SubmissionService) SubmitExperience(ctx context.Context, in contentgate.ExperienceSubmission) (*models.Experience, error) {
	in = trimExperience(in)
	if v := s.gate.Evaluate(ctx, in); !v.Accepted {
		metrics.ObserveSubmission(models.ResourceExperience, "rejected")
		s.log.WithFields(logrus.Fields{
			"field":   v.Field,
			"reason":  v.Reason,
			"company": util.SanitizeForLog(in.Company),
		}).Info("experience submission rejected by content gate")
		return nil, &GateRejectedError{Reason: v.Reason}
	}

	e := &models.Experience{
		CandidateName: in.CandidateName,
		Email:         strings.ToLower(in.Email),
		Company:       in.Company,
		Role:          in.Role,
		Location:      in.Location,
		Year:          in.Year,
		Difficulty:    models.Difficulty(in.Difficulty),
		Outcome:       models.Outcome(in.Outcome),
		Rounds:        in.Rounds,
		Experience:    in.Experience,
		Tips:          in.Tips,
		Status:        models.ExperienceStatusPending,
	}
	if err := s.experiences.Create(ctx, e); err != nil {
		return nil, storeErr("create experience", err)
	}
	metrics.ObserveSubmission(models.ResourceExperience, "accepted")

	s.bus.Publish(EventExperienceSubmitted, ExperienceSubmittedPayload{
		ID:        e.ID,
		Company:   e.Company,
		Role:      e.Role,
		Timestamp: s.now().UTC(),
	})
	return e, nil
}

// SubmitContact stores an accepted contact message as new.
func (s *SubmissionService) SubmitContact(ctx context.Context, in contentgate.ContactSubmission) (*models.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if v := s.gate.Evaluate(ctx, in); !v.Accepted {
		metrics.ObserveSubmission(models.ResourceContact, "rejected")
		s.log.WithFields(logrus.Fields{"field": v.Field, "reason": v.Reason}).Info("contact submission rejected by content gate")
		return nil, &GateRejectedError{Reason: v.Reason}
	}

	c := &models.Contact{
		Name:     in.Name,
		Email:    strings.ToLower(in.Email),
		Subject:  in.Subject,
		Category: models.ContactCategory(in.Category),
		Message:  in.Message,
		Status:   models.ContactStatusNew,
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, storeErr("create contact", err)
	}
	metrics.ObserveSubmission(models.ResourceContact, "accepted")

	s.bus.Publish(EventContactSubmitted, ContactSubmittedPayload{
		ID:        c.ID,
		Subject:   c.Subject,
		Category:  string(c.Category),
		Timestamp: s.now().UTC(),
	})
	return c, nil
}

// ListPublished pages through approved experiences only.
func (s *SubmissionService) ListPublished(ctx context.Context, company, search string, page, pageSize int) ([]models.PublicExperience, int64, error) {
	offset, limit, err := paging(page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.experiences.List(ctx, repository.ExperienceFilter{
		Status:  models.ExperienceStatusApproved,
		Company: strings.TrimSpace(company),
		Search:  strings.TrimSpace(search),
	}, offset, limit)
	if err != nil {
		return nil, 0, storeErr("list published experiences", err)
	}
	out := make([]models.PublicExperience, 0, len(items))
	for i := range items {
		out = append(out, items[i].Public())
	}
	return out, total, nil
}

func trimExperience(in contentgate.ExperienceSubmission) contentgate.ExperienceSubmission {
	in.CandidateName = strings.TrimSpace(in.CandidateName)
	in.Email = strings.TrimSpace(in.Email)
	in.Company = strings.TrimSpace(in.Company)
	in.Role = strings.TrimSpace(in.Role)
	in.Location = strings.TrimSpace(in.Location)
	in.Rounds = strings.TrimSpace(in.Rounds)
	in.Experience = strings.TrimSpace(in.Experience)
	in.Tips = strings.TrimSpace(in.Tips)
	return in
}

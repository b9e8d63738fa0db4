// Package scheduler runs periodic maintenance jobs such as audit retention.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/anishLS3/Placify-sub001/internal/logger"
	"github.com/anishLS3/Placify-sub001/internal/services"
)

// AuditPurger deletes audit entries older than a retention window.
type AuditPurger interface {
	PurgeOlderThan(ctx context.Context, age time.Duration, actor services.Actor) (int64, error)
}

// Scheduler wraps a cron runner evaluated in UTC. Overlapping runs of the
// same job are skipped and panics are recovered.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry
}

func New() *Scheduler {
	log := logger.Component("scheduler")
	cl := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: log,
	}
}

// AddAuditPurge schedules a purge of entries older than retention on spec,
// a standard five-field cron expression or descriptor such as @daily.
func (s *Scheduler) AddAuditPurge(spec string, retention time.Duration, p AuditPurger) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		n, err := p.PurgeOlderThan(ctx, retention, services.SystemActor)
		if err != nil {
			s.log.WithError(err).Error("scheduled audit purge failed")
			return
		}
		s.log.WithField("deleted", n).Info("scheduled audit purge finished")
	})
}

// Run executes the job with id immediately, outside its schedule.
func (s *Scheduler) Run(id cron.EntryID) bool {
	e := s.cron.Entry(id)
	if !e.Valid() {
		return false
	}
	e.WrappedJob.Run()
	return true
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

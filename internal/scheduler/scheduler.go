package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sf7293/widget-manager/internal/domain"
)

// DefaultLeaderTTL outlives the clock skew between replicas firing the same schedule.
const DefaultLeaderTTL = 10 * time.Minute

type ReportDispatcher interface {
	DispatchDailyReport(ctx context.Context) (string, error)
}

// Scheduler enqueues the daily report on a cron schedule. Every replica runs the schedule; the one
// that takes the leader key for a run dispatches it, the others skip.
type Scheduler struct {
	cron       *cron.Cron
	locker     domain.DistributedLock
	dispatcher ReportDispatcher
	leaderKey  string
	leaderTTL  time.Duration
	location   *time.Location
}

func New(cronExpr string, location *time.Location, locker domain.DistributedLock, dispatcher ReportDispatcher, leaderKey string) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(location)),
		locker:     locker,
		dispatcher: dispatcher,
		leaderKey:  leaderKey,
		leaderTTL:  DefaultLeaderTTL,
		location:   location,
	}

	_, err := s.cron.AddFunc(cronExpr, func() { s.RunDailyReport(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("parse daily report schedule %q: %w", cronExpr, err)
	}

	return s, nil
}

// Next returns the next time the daily report fires after t, in the schedule's location.
func (s *Scheduler) Next(t time.Time) time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	return entries[0].Schedule.Next(t.In(s.location))
}

// Run starts the cron loop and blocks until ctx is cancelled and running jobs have finished.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	slog.InfoContext(ctx, "Scheduler is started", "next_run", s.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	slog.Info("Scheduler is stopped")
}

// RunDailyReport dispatches the daily report when this replica wins the leader key. The key is left
// to expire so replicas firing the same run late still skip it.
func (s *Scheduler) RunDailyReport(ctx context.Context) bool {
	_, ok, err := s.locker.Lock(ctx, s.leaderKey, s.leaderTTL)
	if err != nil {
		slog.ErrorContext(ctx, "Error occurred while taking the scheduler leader key", "lock_key", s.leaderKey, "error", err.Error())
		return false
	}
	if !ok {
		slog.InfoContext(ctx, "Another scheduler replica owns this run, skipping", "lock_key", s.leaderKey)
		return false
	}

	handle, err := s.dispatcher.DispatchDailyReport(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Error occurred while dispatching the daily report", "error", err.Error())
		return false
	}

	slog.InfoContext(ctx, "Daily report is dispatched", "task_id", handle)
	return true
}

package services

import (
	"context"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// DailySweepsJob is the scheduler name of the daily billing run
const DailySweepsJob = "daily_sweeps"

// JobStatus reports the worker pool and the scheduled jobs
type JobStatus struct {
	Worker    jobs.WorkerStats `json:"worker"`
	Scheduled []jobs.RunInfo   `json:"scheduled"`
}

type JobService struct {
	worker    *jobs.Worker
	billing   *BillingService
	scheduler *jobs.Scheduler
}

func NewJobService(worker *jobs.Worker, billing *BillingService) *JobService {
	return &JobService{
		worker:  worker,
		billing: billing,
	}
}

// Schedule registers the daily sweeps on the scheduler with the given cron spec
func (s *JobService) Schedule(scheduler *jobs.Scheduler, spec string) error {
	s.scheduler = scheduler
	return scheduler.Register(DailySweepsJob, spec, func(ctx context.Context) error {
		results := s.billing.RunDaily(ctx)
		for _, r := range results {
			logger.Info("Daily sweep", "result", r.String())
		}
		return nil
	})
}

func (s *JobService) GetStatus() JobStatus {
	status := JobStatus{Worker: s.worker.GetStats()}
	if s.scheduler != nil {
		status.Scheduled = s.scheduler.Status()
	}
	return status
}

// RunSweep runs one sweep, or all of them when sweep is empty, for day (the clock's day when zero).
// Manual runs are synchronous so the caller gets the counts back.
func (s *JobService) RunSweep(ctx context.Context, actor Actor, sweep string, day time.Time) ([]SweepResult, error) {
	if day.IsZero() {
		day = s.billing.Today()
	}
	logger.Info("Manual sweep requested", "sweep", sweep, "day", day.Format("2006-01-02"), "user_id", actor.UserID)
	if sweep == "" {
		return s.billing.RunAll(ctx, day), nil
	}
	result, err := s.billing.Run(ctx, sweep, day)
	if err != nil {
		return nil, err
	}
	return []SweepResult{result}, nil
}

// TriggerDaily hands the full daily run to the scheduler, as if cron had fired
func (s *JobService) TriggerDaily() error {
	if s.scheduler == nil {
		return preconditionf("scheduler is not running")
	}
	return s.scheduler.Trigger(DailySweepsJob)
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// ErrUnknownJob is returned when triggering a job that was never registered
var ErrUnknownJob = errors.New("unknown scheduled job")

// ErrJobRunning is returned when a job is triggered while its previous run is still going
var ErrJobRunning = errors.New("job is already running")

// RunInfo describes the schedule and the last run of a registered job
type RunInfo struct {
	Name      string     `json:"name"`
	Spec      string     `json:"spec"`
	Running   bool       `json:"running"`
	LastStart *time.Time `json:"last_start"`
	LastEnd   *time.Time `json:"last_end"`
	LastError string     `json:"last_error,omitempty"`
	Next      *time.Time `json:"next"`
}

type entry struct {
	info    RunInfo
	job     Job
	cronID  cron.EntryID
	running bool
}

// Scheduler fires registered jobs on cron specs and hands them to the worker.
// A job never overlaps itself.
type Scheduler struct {
	cron   *cron.Cron
	worker *Worker
	mu     sync.Mutex
	jobs   map[string]*entry
}

// NewScheduler creates a scheduler evaluating specs in loc
func NewScheduler(worker *Worker, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	l := cronLogger{}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithLogger(l), cron.WithChain(cron.Recover(l))),
		worker: worker,
		jobs:   make(map[string]*entry),
	}
}

// Register schedules job under name with a standard five-field cron spec
func (s *Scheduler) Register(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	id, err := s.cron.AddFunc(spec, func() {
		if err := s.Trigger(name); err != nil {
			logger.Warn("[Scheduler] Skipped run", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q for %s: %w", spec, name, err)
	}
	s.jobs[name] = &entry{info: RunInfo{Name: name, Spec: spec}, job: job, cronID: id}
	return nil
}

// Trigger enqueues a run of the named job now
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if e.running {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	e.running = true
	s.mu.Unlock()

	s.worker.Enqueue(func(ctx context.Context) error {
		return s.execute(ctx, e)
	})
	return nil
}

func (s *Scheduler) execute(ctx context.Context, e *entry) (err error) {
	start := time.Now()
	s.mu.Lock()
	e.info.LastStart = &start
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		end := time.Now()
		s.mu.Lock()
		e.running = false
		e.info.LastEnd = &end
		e.info.LastError = ""
		if err != nil {
			e.info.LastError = err.Error()
		}
		s.mu.Unlock()
		logger.Info("[Scheduler] Job finished", "job", e.info.Name, "duration", end.Sub(start), "error", err)
	}()
	return e.job(ctx)
}

// Start begins firing jobs on their schedules
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop. Runs already handed to the worker finish under the worker's shutdown.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Status lists every registered job sorted by name
func (s *Scheduler) Status() []RunInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RunInfo, 0, len(s.jobs))
	for _, e := range s.jobs {
		info := e.info
		info.Running = e.running
		if next := s.cron.Entry(e.cronID).Next; !next.IsZero() {
			info.Next = &next
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger routes robfig/cron's logging through slog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("[Cron] "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("[Cron] "+msg, append(keysAndValues, "error", err)...)
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"schoolops/domain"
)

// Job is one schedulable unit of work. Run returns the job's summary payload
// so manual triggers can hand it back to the caller.
type Job struct {
	ID   string
	Name string
	Spec string
	Run  func(ctx context.Context) (any, error)
}

type JobStatus struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Spec    string     `json:"spec"`
	NextRun *time.Time `json:"next_run,omitempty"`
	Running bool       `json:"running"`
}

// AutomationScheduler drives the recurring jobs off a cron engine. Jobs are
// injected, never constructed here, so tests can run against fakes.
type AutomationScheduler struct {
	engine  *cron.Cron
	log     *logrus.Logger
	mu      sync.Mutex
	jobs    map[string]*Job
	entries map[string]cron.EntryID
	running map[string]bool
	started bool
}

func New(jobs []Job, log *logrus.Logger) *AutomationScheduler {
	s := &AutomationScheduler{
		engine:  cron.New(),
		log:     log,
		jobs:    make(map[string]*Job, len(jobs)),
		entries: make(map[string]cron.EntryID, len(jobs)),
		running: make(map[string]bool, len(jobs)),
	}
	for i := range jobs {
		job := jobs[i]
		s.jobs[job.ID] = &job
	}
	return s
}

func (s *AutomationScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	for id, job := range s.jobs {
		job := job
		entryID, err := s.engine.AddFunc(job.Spec, func() {
			s.runJob(context.Background(), job)
		})
		if err != nil {
			return fmt.Errorf("could not schedule job %s: %v", id, err)
		}
		s.entries[id] = entryID
	}

	s.engine.Start()
	s.started = true
	s.log.WithField("jobs", len(s.jobs)).Info("automation scheduler started")

	return nil
}

// Stop halts the cron engine and waits for in-flight jobs to finish.
func (s *AutomationScheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if !started {
		return
	}

	ctx := s.engine.Stop()
	<-ctx.Done()
	s.log.Info("automation scheduler stopped")
}

func (s *AutomationScheduler) runJob(ctx context.Context, job *Job) {
	s.mu.Lock()
	if s.running[job.ID] {
		s.mu.Unlock()
		s.log.Warnf("job %s is still running, skipping this tick", job.ID)
		return
	}
	s.running[job.ID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[job.ID] = false
		s.mu.Unlock()
	}()

	start := time.Now()
	_, err := job.Run(ctx)
	fields := logrus.Fields{
		"job":      job.ID,
		"duration": time.Since(start).String(),
	}
	if err != nil {
		s.log.WithFields(fields).Errorf("job %s failed: %v", job.ID, err)
		return
	}
	s.log.WithFields(fields).Infof("job %s completed", job.ID)
}

// Trigger runs a job immediately, outside its cron schedule.
func (s *AutomationScheduler) Trigger(ctx context.Context, id string) (any, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("unknown job: %s", id)
	}
	if s.running[id] {
		s.mu.Unlock()
		return nil, fmt.Errorf("job %s is already running", id)
	}
	s.running[id] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[id] = false
		s.mu.Unlock()
	}()

	return job.Run(ctx)
}

func (s *AutomationScheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for id, job := range s.jobs {
		status := JobStatus{
			ID:      id,
			Name:    job.Name,
			Spec:    job.Spec,
			Running: s.running[id],
		}
		if entryID, ok := s.entries[id]; ok && s.started {
			next := s.engine.Entry(entryID).Next
			if !next.IsZero() {
				status.NextRun = &next
			}
		}
		statuses = append(statuses, status)
	}

	return statuses
}

// NewJobs binds the use cases to the standing schedule: fee reminders every
// morning, attendance alerts in the evening, the analytics precompute weekly,
// monthly report generation on the 1st, and the cache sweep overnight.
func NewJobs(
	reminders domain.ReminderUseCase,
	alerts domain.AlertUseCase,
	analytics domain.AnalyticsUseCase,
	cache domain.CacheRepo,
	log *logrus.Logger,
) []Job {
	return []Job{
		{
			ID:   "fee_reminders",
			Name: "Daily fee reminders",
			Spec: "0 9 * * *",
			Run: func(ctx context.Context) (any, error) {
				return reminders.ProcessDueReminders(ctx)
			},
		},
		{
			ID:   "attendance_alerts",
			Name: "Daily attendance alerts",
			Spec: "0 18 * * *",
			Run: func(ctx context.Context) (any, error) {
				return alerts.ProcessAttendanceAlerts(ctx)
			},
		},
		{
			ID:   "weekly_analytics",
			Name: "Weekly analytics precompute",
			Spec: "0 2 * * 0",
			Run: func(ctx context.Context) (any, error) {
				return analytics.PrecomputeWeekly(ctx)
			},
		},
		{
			ID:   "monthly_report",
			Name: "Monthly summary report",
			Spec: "0 6 1 * *",
			Run: func(ctx context.Context) (any, error) {
				summary, err := reminders.Stats(ctx)
				if err != nil {
					return nil, err
				}
				log.WithField("total_reminders", summary.TotalReminders).Info("monthly summary generated")
				return summary, nil
			},
		},
		{
			ID:   "cache_sweep",
			Name: "Expired cache sweep",
			Spec: "0 3 * * *",
			Run: func(ctx context.Context) (any, error) {
				removed, err := cache.SweepExpired(ctx)
				if err != nil {
					return nil, err
				}
				log.WithField("removed", removed).Info("cache sweep completed")
				return map[string]int64{"removed": removed}, nil
			},
		},
	}
}

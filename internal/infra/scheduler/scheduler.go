package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"mental_math_bot/internal/domain/reminder"

	"github.com/jmhodges/clock"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultGraceWindow is how late a due reminder may still run.
const DefaultGraceWindow = 60 * time.Second

var (
	ErrSchedulerClosed = errors.New("reminder scheduler is shut down")
	ErrNilDispatcher   = errors.New("reminder dispatcher is nil")
	ErrInvalidTime     = errors.New("invalid reminder time")
)

// Config configures a ReminderScheduler. Zero values fall back to defaults.
type Config struct {
	Location    *time.Location // Single global timezone for every reminder
	GraceWindow time.Duration
	Clock       clock.Clock
}

type lifecycle int

const (
	notStarted lifecycle = iota
	running
	shutDown
)

// ReminderScheduler owns every live reminder job, keyed by (user, time of day).
// All mutation goes through Schedule and Unschedule under one mutex.
type ReminderScheduler struct {
	mu    sync.Mutex
	state lifecycle
	jobs  map[int64]map[reminder.JobKey]cron.EntryID

	cronEngine *cron.Cron
	cronLog    cron.Logger
	clock      clock.Clock
	location   *time.Location
	grace      time.Duration
	logger     *logrus.Entry
}

func New(cfg Config, logger *logrus.Entry) *ReminderScheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.GraceWindow <= 0 {
		cfg.GraceWindow = DefaultGraceWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	cronLog := cronLogger{entry: logger}
	return &ReminderScheduler{
		jobs: make(map[int64]map[reminder.JobKey]cron.EntryID),
		cronEngine: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog)),
		),
		cronLog:  cronLog,
		clock:    cfg.Clock,
		location: cfg.Location,
		grace:    cfg.GraceWindow,
		logger:   logger,
	}
}

// Start begins firing triggers. Calling it again, or after Shutdown, does nothing.
func (s *ReminderScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case running:
		return
	case shutDown:
		s.logger.Warn("Start called on a shut down reminder scheduler, ignoring")
		return
	}

	s.cronEngine.Start()
	s.state = running
	s.logger.WithFields(logrus.Fields{
		"timezone":     s.location.String(),
		"grace_window": s.grace.String(),
		"jobs":         s.countLocked(),
	}).Info("Reminder scheduler started")
}

// Shutdown stops future firings and drops every job. In-flight dispatches are
// not cancelled; Shutdown waits for them until ctx is done.
// Safe to call before Start and more than once.
func (s *ReminderScheduler) Shutdown(ctx context.Context) {
	s.mu.Lock()
	if s.state == shutDown {
		s.mu.Unlock()
		return
	}
	s.state = shutDown
	stopped := s.cronEngine.Stop() // Stops the engine, the context is done when running jobs finish
	for userID := range s.jobs {
		s.removeUserLocked(userID)
	}
	s.mu.Unlock()

	select {
	case <-stopped.Done():
		s.logger.Info("Reminder scheduler gracefully stopped")
	case <-ctx.Done():
		s.logger.WithError(ctx.Err()).Warn("Reminder scheduler stopped before in-flight reminders finished")
	}
}

// Schedule replaces every job of userID with one daily job per distinct time.
// An empty times slice removes the user's jobs and adds none.
// Jobs registered before Start fire once the scheduler is started.
func (s *ReminderScheduler) Schedule(userID int64, times []reminder.TimeOfDay, d reminder.Dispatcher) error {
	if d == nil {
		return ErrNilDispatcher
	}
	for _, t := range times {
		if !t.Valid() {
			return fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, t.Hour, t.Minute)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == shutDown {
		return ErrSchedulerClosed
	}

	removed := s.removeUserLocked(userID)

	unique := reminder.Dedupe(times)
	if len(unique) == 0 {
		s.logger.WithFields(logrus.Fields{
			"telegram_id": userID,
			"removed":     removed,
		}).Info("No times to schedule, user has no reminders now")
		return nil
	}

	userJobs := make(map[reminder.JobKey]cron.EntryID, len(unique))
	for _, t := range unique {
		job := reminder.Job{UserID: userID, At: t}
		schedule, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", t.Minute, t.Hour))
		if err != nil {
			// Unreachable for validated times; keep the jobs added so far consistent.
			s.jobs[userID] = userJobs
			return fmt.Errorf("failed to build schedule for %s: %w", job.Key(), err)
		}
		userJobs[job.Key()] = s.cronEngine.Schedule(schedule, s.wrap(job, d))
		s.logger.WithFields(logrus.Fields{
			"telegram_id": userID,
			"job_key":     job.Key(),
		}).Debug("Reminder job added")
	}
	s.jobs[userID] = userJobs

	s.logger.WithFields(logrus.Fields{
		"telegram_id": userID,
		"times":       reminder.FormatTimes(unique),
		"removed":     removed,
	}).Info("Reminders scheduled")
	return nil
}

// Unschedule removes every job of userID and returns how many were removed.
func (s *ReminderScheduler) Unschedule(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.removeUserLocked(userID)
	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"telegram_id": userID,
			"removed":     removed,
		}).Info("Reminders removed")
	}
	return removed
}

// JobsFor returns the sorted job keys currently registered for userID.
func (s *ReminderScheduler) JobsFor(userID int64) []reminder.JobKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]reminder.JobKey, 0, len(s.jobs[userID]))
	for k := range s.jobs[userID] {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// JobCount returns the total number of live jobs.
func (s *ReminderScheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

func (s *ReminderScheduler) countLocked() int {
	n := 0
	for _, userJobs := range s.jobs {
		n += len(userJobs)
	}
	return n
}

func (s *ReminderScheduler) removeUserLocked(userID int64) int {
	userJobs := s.jobs[userID]
	for _, id := range userJobs {
		s.cronEngine.Remove(id)
	}
	delete(s.jobs, userID)
	return len(userJobs)
}

// wrap builds the cron job for one reminder: one run at a time per job, and
// runs later than the grace window are dropped.
func (s *ReminderScheduler) wrap(job reminder.Job, d reminder.Dispatcher) cron.Job {
	run := cron.FuncJob(func() {
		s.logger.WithFields(logrus.Fields{
			"telegram_id": job.UserID,
			"job_key":     job.Key(),
		}).Debug("Reminder job fired")
		d.Dispatch(context.Background(), job.UserID)
	})
	return cron.NewChain(
		cron.SkipIfStillRunning(s.cronLog),
		s.graceGuard(job),
	).Then(run)
}

// graceGuard drops a run whose scheduled occurrence is older than the grace
// window. The engine runs an overdue entry once and then schedules from "now",
// so several missed occurrences collapse into this single check.
func (s *ReminderScheduler) graceGuard(job reminder.Job) cron.JobWrapper {
	return func(next cron.Job) cron.Job {
		return cron.FuncJob(func() {
			now := s.clock.Now().In(s.location)
			due := job.At.MostRecent(now)
			if late := now.Sub(due); late > s.grace {
				s.logger.WithFields(logrus.Fields{
					"telegram_id": job.UserID,
					"job_key":     job.Key(),
					"late_by":     late.String(),
				}).Warn("Reminder missed its grace window, skipping")
				return
			}
			next.Run()
		})
	}
}

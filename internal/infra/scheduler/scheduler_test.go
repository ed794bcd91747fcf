package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mental_math_bot/internal/domain/reminder"

	"github.com/jmhodges/clock"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var threeTimes = []reminder.TimeOfDay{reminder.At(7, 30), reminder.At(12, 30), reminder.At(19, 0)}

type countingDispatcher struct {
	mu    sync.Mutex
	calls []int64
}

func (d *countingDispatcher) Dispatch(_ context.Context, userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, userID)
}

func (d *countingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func newTestScheduler(t *testing.T, clk clock.Clock) (*ReminderScheduler, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := New(Config{Location: time.UTC, Clock: clk}, logrus.NewEntry(logger))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s, hook
}

func TestSchedule_ThreeTimesCreatesThreeKeys(t *testing.T) {
	s, _ := newTestScheduler(t, nil)

	require.NoError(t, s.Schedule(555, threeTimes, &countingDispatcher{}))

	assert.Equal(t, []reminder.JobKey{
		"reminder:555:0730",
		"reminder:555:1230",
		"reminder:555:1900",
	}, s.JobsFor(555))
	assert.Equal(t, 3, s.JobCount())
	assert.Len(t, s.cronEngine.Entries(), 3)
}

func TestSchedule_Idempotent(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	d := &countingDispatcher{}

	require.NoError(t, s.Schedule(1, threeTimes, d))
	first := s.JobsFor(1)
	require.NoError(t, s.Schedule(1, threeTimes, d))

	assert.Equal(t, first, s.JobsFor(1))
	assert.Equal(t, 3, s.JobCount())
	assert.Len(t, s.cronEngine.Entries(), 3, "old entries must be removed from the engine")
}

func TestSchedule_ReplacesPreviousTimes(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	d := &countingDispatcher{}

	require.NoError(t, s.Schedule(7, []reminder.TimeOfDay{reminder.At(8, 0), reminder.At(9, 0)}, d))
	require.NoError(t, s.Schedule(7, []reminder.TimeOfDay{reminder.At(21, 15)}, d))

	assert.Equal(t, []reminder.JobKey{"reminder:7:2115"}, s.JobsFor(7))
	assert.Equal(t, 1, s.JobCount())
}

func TestSchedule_EmptyTimesRemovesAll(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	d := &countingDispatcher{}

	require.NoError(t, s.Schedule(7, threeTimes, d))
	require.NoError(t, s.Schedule(7, nil, d))

	assert.Empty(t, s.JobsFor(7))
	assert.Equal(t, 0, s.JobCount())
	assert.Empty(t, s.cronEngine.Entries())
}

func TestSchedule_DuplicateTimesCollapse(t *testing.T) {
	s, _ := newTestScheduler(t, nil)

	require.NoError(t, s.Schedule(3, []reminder.TimeOfDay{reminder.At(8, 0), reminder.At(8, 0)}, &countingDispatcher{}))

	assert.Equal(t, []reminder.JobKey{"reminder:3:0800"}, s.JobsFor(3))
}

func TestSchedule_OtherUsersUntouched(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	d := &countingDispatcher{}

	require.NoError(t, s.Schedule(1, threeTimes, d))
	require.NoError(t, s.Schedule(12, []reminder.TimeOfDay{reminder.At(6, 0)}, d))
	require.NoError(t, s.Schedule(12, nil, d))

	assert.Len(t, s.JobsFor(1), 3)
	assert.Empty(t, s.JobsFor(12))
}

func TestSchedule_InvalidTimeRejected(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	d := &countingDispatcher{}
	require.NoError(t, s.Schedule(1, threeTimes, d))

	err := s.Schedule(1, []reminder.TimeOfDay{reminder.At(8, 0), reminder.At(24, 0)}, d)

	assert.True(t, errors.Is(err, ErrInvalidTime))
	assert.Len(t, s.JobsFor(1), 3, "rejected call must leave existing jobs alone")
}

func TestSchedule_NilDispatcher(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	assert.ErrorIs(t, s.Schedule(1, threeTimes, nil), ErrNilDispatcher)
}

func TestUnschedule(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	d := &countingDispatcher{}
	require.NoError(t, s.Schedule(1, threeTimes, d))

	assert.Equal(t, 0, s.Unschedule(404), "unknown user is a no-op")
	assert.Len(t, s.JobsFor(1), 3)

	assert.Equal(t, 3, s.Unschedule(1))
	assert.Empty(t, s.JobsFor(1))
	assert.Equal(t, 0, s.Unschedule(1))
}

func TestLifecycle_StartShutdownWithoutJobs(t *testing.T) {
	s, _ := newTestScheduler(t, nil)

	s.Start()
	s.Start()
	assert.Equal(t, 0, s.JobCount())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Shutdown(ctx)
	s.Shutdown(ctx)

	assert.Equal(t, 0, s.JobCount())
}

func TestLifecycle_ShutdownDropsJobsAndRejectsSchedule(t *testing.T) {
	s, hook := newTestScheduler(t, nil)
	d := &countingDispatcher{}
	s.Start()
	require.NoError(t, s.Schedule(1, threeTimes, d))

	s.Shutdown(context.Background())

	assert.Equal(t, 0, s.JobCount())
	assert.ErrorIs(t, s.Schedule(1, threeTimes, d), ErrSchedulerClosed)
	assert.Equal(t, 0, s.Unschedule(1))

	hook.Reset()
	s.Start()
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLifecycle_ShutdownBeforeStart(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	require.NoError(t, s.Schedule(1, threeTimes, &countingDispatcher{}))

	s.Shutdown(context.Background())

	assert.Equal(t, 0, s.JobCount())
}

func TestSchedule_ConcurrentUsers(t *testing.T) {
	s, _ := newTestScheduler(t, nil)
	s.Start()
	d := &countingDispatcher{}

	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for n := 0; n < 5; n++ {
				assert.NoError(t, s.Schedule(userID, threeTimes, d))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 60, s.JobCount())
	assert.Len(t, s.cronEngine.Entries(), 60)
}

func TestGraceGuard(t *testing.T) {
	tests := []struct {
		name    string
		at      reminder.TimeOfDay
		now     time.Time
		wantRun bool
	}{
		{
			name:    "on time",
			at:      reminder.At(7, 30),
			now:     time.Date(2026, time.January, 10, 7, 30, 0, 0, time.UTC),
			wantRun: true,
		},
		{
			name:    "late within window",
			at:      reminder.At(7, 30),
			now:     time.Date(2026, time.January, 10, 7, 30, 59, 0, time.UTC),
			wantRun: true,
		},
		{
			name:    "late beyond window",
			at:      reminder.At(7, 30),
			now:     time.Date(2026, time.January, 10, 7, 32, 0, 0, time.UTC),
			wantRun: false,
		},
		{
			name:    "missed across midnight",
			at:      reminder.At(23, 59),
			now:     time.Date(2026, time.January, 11, 0, 0, 30, 0, time.UTC),
			wantRun: false,
		},
		{
			name:    "midnight on time",
			at:      reminder.At(0, 0),
			now:     time.Date(2026, time.January, 11, 0, 0, 30, 0, time.UTC),
			wantRun: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clock.NewFake()
			clk.Set(tt.now)
			s, hook := newTestScheduler(t, clk)

			ran := false
			job := reminder.Job{UserID: 9, At: tt.at}
			s.graceGuard(job)(cron.FuncJob(func() { ran = true })).Run()

			assert.Equal(t, tt.wantRun, ran)
			if !tt.wantRun {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
				assert.Equal(t, job.Key(), hook.LastEntry().Data["job_key"])
			}
		})
	}
}

func TestWrap_DispatchesUserID(t *testing.T) {
	clk := clock.NewFake()
	clk.Set(time.Date(2026, time.January, 10, 19, 0, 5, 0, time.UTC))
	s, _ := newTestScheduler(t, clk)
	d := &countingDispatcher{}

	s.wrap(reminder.Job{UserID: 42, At: reminder.At(19, 0)}, d).Run()

	require.Equal(t, 1, d.count())
	assert.Equal(t, []int64{42}, d.calls)
}

func TestWrap_SkipsOverlappingRun(t *testing.T) {
	clk := clock.NewFake()
	clk.Set(time.Date(2026, time.January, 10, 12, 30, 0, 0, time.UTC))
	s, _ := newTestScheduler(t, clk)

	var calls int32
	entered := make(chan struct{})
	release := make(chan struct{})
	d := reminder.DispatcherFunc(func(context.Context, int64) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(entered)
			<-release
		}
	})

	job := s.wrap(reminder.Job{UserID: 1, At: reminder.At(12, 30)}, d)
	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-entered

	job.Run()
	close(release)
	<-done

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDefaults(t *testing.T) {
	s := New(Config{}, logrus.NewEntry(logrus.New()))
	assert.Equal(t, DefaultGraceWindow, s.grace)
	assert.Equal(t, time.Local, s.location)
	assert.NotNil(t, s.clock)
}

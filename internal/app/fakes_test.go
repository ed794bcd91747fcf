package app

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	"mental_math_bot/internal/domain/reminder"
	"mental_math_bot/internal/domain/user"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"gopkg.in/telebot.v3"
)

var errNotFound = errors.New("user not found")

// fakeUserRepo is an in-memory user.Repository.
type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[int64]*user.User
	nextID    int64
	listErr   error
	updateErr error
	updates   int
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int64]*user.User)}
	for _, u := range users {
		r.nextID++
		u.ID = r.nextID
		r.users[u.TelegramID] = u
	}
	return r
}

func (r *fakeUserRepo) GetOrCreate(_ context.Context, telegramID int64, username, firstName string) (*user.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[telegramID]; ok {
		return u, false, nil
	}
	r.nextID++
	u := &user.User{
		ID:                  r.nextID,
		TelegramID:          telegramID,
		Username:            sql.NullString{String: username, Valid: username != ""},
		FirstName:           sql.NullString{String: firstName, Valid: firstName != ""},
		NotificationEnabled: true,
		NotificationPreset:  string(reminder.DefaultPreset),
	}
	r.users[telegramID] = u
	return u, true, nil
}

func (r *fakeUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[telegramID]
	if !ok {
		return nil, errNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) ListWithNotificationsEnabled(context.Context) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*user.User
	for _, u := range r.users {
		if u.NotificationEnabled && u.NotificationPreset != string(reminder.PresetDisabled) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

func (r *fakeUserRepo) UpdateNotifications(_ context.Context, telegramID int64, preset reminder.Preset, customTimes []reminder.TimeOfDay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	u, ok := r.users[telegramID]
	if !ok {
		return errNotFound
	}
	r.updates++
	u.NotificationPreset = string(preset)
	u.NotificationEnabled = preset.Enabled()
	if preset == reminder.PresetCustom && len(customTimes) > 0 {
		u.CustomNotificationTimes = reminder.FormatTimesJSON(customTimes)
	}
	return nil
}

// fakeScheduler records calls and keeps the last times per user.
type fakeScheduler struct {
	mu          sync.Mutex
	jobs        map[int64][]reminder.TimeOfDay
	failFor     map[int64]error
	schedules   int
	unschedules int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		jobs:    make(map[int64][]reminder.TimeOfDay),
		failFor: make(map[int64]error),
	}
}

func (s *fakeScheduler) Schedule(userID int64, times []reminder.TimeOfDay, _ reminder.Dispatcher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules++
	if err := s.failFor[userID]; err != nil {
		return err
	}
	delete(s.jobs, userID)
	if len(times) > 0 {
		s.jobs[userID] = append([]reminder.TimeOfDay(nil), times...)
	}
	return nil
}

func (s *fakeScheduler) Unschedule(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unschedules++
	n := len(s.jobs[userID])
	delete(s.jobs, userID)
	return n
}

func (s *fakeScheduler) JobsFor(userID int64) []reminder.JobKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []reminder.JobKey
	for _, t := range s.jobs[userID] {
		keys = append(keys, reminder.Job{UserID: userID, At: t}.Key())
	}
	return keys
}

func (s *fakeScheduler) timesFor(userID int64) []reminder.TimeOfDay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[userID]
}

// fakeTelegramClient returns err from every send and records what was sent.
type fakeTelegramClient struct {
	mu   sync.Mutex
	err  error
	sent []sentMessage
}

type sentMessage struct {
	chatID  int64
	text    string
	options *telebot.SendOptions
}

func (c *fakeTelegramClient) SendMessage(_ context.Context, chatID int64, text string, options *telebot.SendOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMessage{chatID: chatID, text: text, options: options})
	return c.err
}

var noopDispatcher = reminder.DispatcherFunc(func(context.Context, int64) {})

func newTestLogger() (*logrus.Entry, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

func entriesAt(hook *logtest.Hook, level logrus.Level) []logrus.Entry {
	var out []logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			out = append(out, *e)
		}
	}
	return out
}

// internal/domain/reminder/job.go
package reminder

import (
	"context"
	"fmt"
	"strings"
)

// JobKey identifies one recurring reminder: one user, one time of day.
type JobKey string

// Job is a single daily reminder trigger for a user.
type Job struct {
	UserID int64
	At     TimeOfDay
}

// Key returns the identity key, e.g. "reminder:123:0730".
func (j Job) Key() JobKey {
	return JobKey(UserKeyPrefix(j.UserID) + j.At.compact())
}

// UserKeyPrefix is the common prefix of every job key owned by userID.
func UserKeyPrefix(userID int64) string {
	return fmt.Sprintf("reminder:%d:", userID)
}

// BelongsTo reports whether the key is owned by userID.
func (k JobKey) BelongsTo(userID int64) bool {
	return strings.HasPrefix(string(k), UserKeyPrefix(userID))
}

// Dispatcher delivers a reminder to a user when one of their jobs fires.
// Implementations handle their own delivery failures; Dispatch has no result.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID int64)
}

// DispatcherFunc adapts a plain function to Dispatcher.
type DispatcherFunc func(ctx context.Context, userID int64)

func (f DispatcherFunc) Dispatch(ctx context.Context, userID int64) { f(ctx, userID) }

package scheduler

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// cronLogger routes robfig/cron's internal logging into logrus.
// The engine reports every wake-up and run through Info, so those go to debug;
// "skip" (a job still running when it fires again) stays visible.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	e := l.entry.WithFields(kvFields(keysAndValues))
	if msg == "skip" {
		e.Info("Reminder job still running, skipping this firing")
		return
	}
	e.Debugf("cron: %s", msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).WithError(err).Errorf("cron: %s", msg)
}

func kvFields(keysAndValues []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

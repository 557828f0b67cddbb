package cron

import "time"

const (
	defaultRetentionDays = 30
	dailyPeriod          = 24 * time.Hour
)

// retentionWindow turns a day count into a UTC cutoff for sweep jobs.
type retentionWindow struct {
	days int
	now  func() time.Time
}

func newRetentionWindow(days int) retentionWindow {
	if days <= 0 {
		days = defaultRetentionDays
	}
	return retentionWindow{days: days, now: time.Now}
}

func (w retentionWindow) cutoff() time.Time {
	return w.now().UTC().AddDate(0, 0, -w.days)
}

// Every makes sweep jobs run once a day whatever the worker tick is.
func (retentionWindow) Every() time.Duration { return dailyPeriod }

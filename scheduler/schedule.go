// Package scheduler persists and executes recurring bot actions: send a
// message, a file, or a chat action at a fixed time, on an interval, or on
// a cron expression.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	vkteamsbot "github.com/vkteams-go/bot"
)

// Kind selects how a Schedule computes its next run.
type Kind int

const (
	Once Kind = iota
	Interval
	Cron
)

// Schedule describes when a Task fires next.
type Schedule struct {
	Kind Kind `json:"kind"`

	// Once: the single Unix timestamp to fire at.
	At int64 `json:"at,omitempty"`

	// Interval: seconds between runs, anchored to StartTime.
	DurationSeconds int64 `json:"durationSeconds,omitempty"`
	StartTime       int64 `json:"startTime,omitempty"`

	// Cron: a standard six-field robfig/cron expression (seconds field included).
	CronExpr string `json:"cronExpr,omitempty"`
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// InitialNextRun computes the first next_run for a freshly added task. For
// Once it's the target time, which must be in the future. For Interval it's
// StartTime if that hasn't arrived yet, otherwise StartTime+DurationSeconds.
// For Cron it's the smallest future occurrence after now.
func (s Schedule) InitialNextRun(nowUnix int64) (int64, error) {
	switch s.Kind {
	case Once:
		if s.At <= nowUnix {
			return 0, &vkteamsbot.ErrValidation{Field: "schedule.at", Message: "must be in the future"}
		}
		return s.At, nil

	case Interval:
		if s.DurationSeconds <= 0 {
			return 0, &vkteamsbot.ErrValidation{Field: "schedule.durationSeconds", Message: "must be positive"}
		}
		if s.StartTime > nowUnix {
			return s.StartTime, nil
		}
		return s.StartTime + s.DurationSeconds, nil

	case Cron:
		sched, err := cronParser.Parse(s.CronExpr)
		if err != nil {
			return 0, &vkteamsbot.ErrValidation{Field: "schedule.cronExpr", Message: err.Error()}
		}
		return sched.Next(time.Unix(nowUnix, 0).UTC()).Unix(), nil
	}
	return 0, &vkteamsbot.ErrValidation{Field: "schedule.kind", Message: "unknown schedule kind"}
}

// NextRun computes the next Unix timestamp after a successful dispatch that
// completed at lastRunUnix. ok is false for a Once schedule (which never
// fires again) or an unparsable cron expression.
func (s Schedule) NextRun(lastRunUnix int64) (next int64, ok bool) {
	switch s.Kind {
	case Once:
		return 0, false

	case Interval:
		if s.DurationSeconds <= 0 {
			return 0, false
		}
		return lastRunUnix + s.DurationSeconds, true

	case Cron:
		sched, err := cronParser.Parse(s.CronExpr)
		if err != nil {
			return 0, false
		}
		return sched.Next(time.Unix(lastRunUnix, 0).UTC()).Unix(), true
	}
	return 0, false
}

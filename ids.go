package vkteamsbot

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

const taskIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTaskID generates a short random alphanumeric identifier for a scheduled task.
// It is intentionally not a UUID: task IDs appear in CLI output and log lines,
// where a compact identifier is easier to work with.
func NewTaskID() string {
	b := make([]byte, 12)
	for i := range b {
		b[i] = taskIDAlphabet[rand.Intn(len(taskIDAlphabet))]
	}
	return string(b)
}

// NewEventSeq generates a globally unique, time-sortable UUIDv7 (RFC 9562).
// Used for correlating locally generated records (log lines, trace spans)
// that have no server-issued ID of their own.
func NewEventSeq() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NowUnix returns the current time as Unix seconds.
func NowUnix() int64 {
	return time.Now().Unix()
}

package daemon

import (
	"context"
	"os"
	"path/filepath"
	"time"

	vkteamsbot "github.com/vkteams-go/bot"
)

// StopWaitTimeout is how long RequestStop blocks for the daemon to
// acknowledge by removing the sentinel file.
const StopWaitTimeout = 30 * time.Second

// sentinelPath returns the well-known stop-signal file location, scoped by
// PID so multiple daemons on the same host don't collide.
func sentinelPath(pid int) string {
	return filepath.Join(os.TempDir(), "vkteams_scheduler_stop."+itoa(pid)+".signal")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// WatchForStop starts a goroutine that polls for the sentinel file used by
// RequestStop and returns at once with a channel the caller selects on. The
// channel is closed when the sentinel appears (after the file is removed)
// or when ctx is done.
func WatchForStop(ctx context.Context, pid int, poll time.Duration) <-chan struct{} {
	done := make(chan struct{})
	path := sentinelPath(pid)
	go func() {
		defer close(done)
		ticker := time.NewTicker(poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := os.Stat(path); err == nil {
					os.Remove(path)
					return
				}
			}
		}
	}()
	return done
}

// RequestStop writes the sentinel file for the given PID and waits up to
// StopWaitTimeout for the running daemon to remove it, which it does once
// it has observed the signal and begun shutting down.
func RequestStop(pid int) error {
	path := sentinelPath(pid)
	if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
		return &vkteamsbot.ErrIO{Path: path, Err: err}
	}
	deadline := time.Now().Add(StopWaitTimeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	os.Remove(path)
	return &vkteamsbot.ErrSystem{Message: "daemon did not acknowledge stop signal within timeout"}
}

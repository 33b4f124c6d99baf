// Package daemon provides the process-lifecycle pieces the scheduler
// command uses when run in the background: a PID file with
// staleness detection, RSS memory reporting, and a stop-signal file used to
// request a graceful shutdown without a controlling terminal.
package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	vkteamsbot "github.com/vkteams-go/bot"
)

// PIDFile represents a daemon's PID file: two lines, the process ID and its
// RFC3339 start time.
type PIDFile struct {
	Path      string
	PID       int
	StartedAt time.Time
}

// DefaultPIDPath returns the conventional PID file location.
func DefaultPIDPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, ".local", "share", "vkteams-bot", "daemon.pid")
}

// Write records the current process as the running daemon.
func Write(path string) (*PIDFile, error) {
	if path == "" {
		path = DefaultPIDPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &vkteamsbot.ErrIO{Path: filepath.Dir(path), Err: err}
	}
	pf := &PIDFile{Path: path, PID: os.Getpid(), StartedAt: time.Now().UTC()}
	content := fmt.Sprintf("%d\n%s\n", pf.PID, pf.StartedAt.Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, &vkteamsbot.ErrIO{Path: path, Err: err}
	}
	return pf, nil
}

// Remove deletes the PID file, ignoring a not-exist error.
func (pf *PIDFile) Remove() error {
	if err := os.Remove(pf.Path); err != nil && !os.IsNotExist(err) {
		return &vkteamsbot.ErrIO{Path: pf.Path, Err: err}
	}
	return nil
}

// Status describes what Read found.
type Status string

const (
	StatusNotRunning Status = "not_running"
	StatusRunning    Status = "running"
	StatusStale      Status = "stale"
	StatusError      Status = "error"
)

// Info is the result of inspecting a PID file against the live process table.
type Info struct {
	Status    Status
	PID       int
	StartedAt time.Time
	Uptime    time.Duration
}

// Read loads and validates a PID file, checking whether the recorded PID is
// still alive.
func Read(path string) (Info, error) {
	if path == "" {
		path = DefaultPIDPath()
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Info{Status: StatusNotRunning}, nil
	}
	if err != nil {
		return Info{}, &vkteamsbot.ErrIO{Path: path, Err: err}
	}

	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) < 2 {
		return Info{Status: StatusError}, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Info{Status: StatusError}, nil
	}
	startedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(lines[1]))
	if err != nil {
		return Info{Status: StatusError}, nil
	}

	if !ProcessRunning(pid) {
		return Info{Status: StatusStale, PID: pid, StartedAt: startedAt}, nil
	}
	return Info{
		Status:    StatusRunning,
		PID:       pid,
		StartedAt: startedAt,
		Uptime:    time.Since(startedAt),
	}, nil
}

// ProcessRunning reports whether a process with the given PID currently
// exists, shelling out to the platform's own process inspection tool since
// the standard library has no portable way to probe an arbitrary PID.
func ProcessRunning(pid int) bool {
	switch runtime.GOOS {
	case "windows":
		out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/FO", "CSV").Output()
		if err != nil {
			return false
		}
		return strings.Count(string(out), "\n") > 1
	default:
		return exec.Command("kill", "-0", strconv.Itoa(pid)).Run() == nil
	}
}

// FormatUptime renders a duration the way a status command would print it.
func FormatUptime(d time.Duration) string {
	seconds := int64(d.Seconds())
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours%24, minutes%60)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

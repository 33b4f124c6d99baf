package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteAndReadRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	pf, err := Write(path)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if pf.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", pf.PID, os.Getpid())
	}

	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Status != StatusRunning {
		t.Errorf("Status = %q, want running", info.Status)
	}
	if info.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", info.PID, os.Getpid())
	}
}

func TestReadNotRunning(t *testing.T) {
	info, err := Read(filepath.Join(t.TempDir(), "missing.pid"))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Status != StatusNotRunning {
		t.Errorf("Status = %q, want not_running", info.Status)
	}
}

func TestReadStaleProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	content := "999999\n" + time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Status != StatusStale {
		t.Errorf("Status = %q, want stale", info.Status)
	}
}

func TestReadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Status != StatusError {
		t.Errorf("Status = %q, want error", info.Status)
	}
}

func TestPIDFileRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	pf, err := Write(path)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := pf.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected PID file to be gone")
	}
	// Removing again should be a no-op, not an error.
	if err := pf.Remove(); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestProcessRunningCurrentProcess(t *testing.T) {
	if !ProcessRunning(os.Getpid()) {
		t.Error("expected the current process to be reported as running")
	}
}

func TestProcessRunningBogusPID(t *testing.T) {
	if ProcessRunning(999999) {
		t.Error("expected a very high bogus PID to be reported as not running")
	}
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h 0m"},
		{25*time.Hour + 15*time.Minute, "1d 1h 15m"},
	}
	for _, c := range cases {
		if got := FormatUptime(c.d); got != c.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

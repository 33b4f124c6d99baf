package daemon

import (
	"os"
	"testing"
)

func TestRSSCurrentProcess(t *testing.T) {
	mb, ok := RSS(os.Getpid())
	if !ok {
		t.Skip("ps not available in this environment")
	}
	if mb == 0 {
		t.Error("expected a non-zero RSS for the current process")
	}
}

func TestRSSBogusPID(t *testing.T) {
	if _, ok := RSS(999999); ok {
		t.Error("expected RSS to fail for a nonexistent PID")
	}
}

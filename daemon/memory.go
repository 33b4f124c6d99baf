package daemon

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// RSS reports the resident set size, in megabytes, of the process with the
// given PID. It shells out to the platform's process tool since the Go
// runtime only exposes memory stats for the calling process itself.
func RSS(pid int) (mb uint64, ok bool) {
	switch runtime.GOOS {
	case "windows":
		out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/FO", "CSV", "/NH").Output()
		if err != nil {
			return 0, false
		}
		line := strings.SplitN(string(out), "\n", 2)[0]
		// Every CSV field is quoted and the memory field itself contains
		// thousands separators ("12,345 K"), so split on `","`, not ",".
		fields := strings.Split(strings.Trim(strings.TrimSpace(line), `"`), `","`)
		if len(fields) < 5 {
			return 0, false
		}
		mem := fields[4]
		mem = strings.NewReplacer(" K", "", ",", "").Replace(mem)
		kb, err := strconv.ParseUint(mem, 10, 64)
		if err != nil {
			return 0, false
		}
		return kb / 1024, true
	default:
		out, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "rss=").Output()
		if err != nil {
			return 0, false
		}
		kb, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
		if err != nil {
			return 0, false
		}
		return kb / 1024, true
	}
}

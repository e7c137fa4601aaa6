package reload

import (
	"log/slog"
	"net"
	"time"
)

const (
	pollPeriod = 20 * time.Millisecond
	pollBudget = 3 * time.Second
)

// WaitForBackend polls the target address with short TCP connect attempts
// until it accepts a connection or the total budget elapses. Unavailability
// is not an error: the reload signal proceeds either way, so the result only
// reports whether the backend answered.
func WaitForBackend(addr string, logger *slog.Logger) bool {
	return waitForBackend(addr, pollPeriod, pollBudget, logger)
}

func waitForBackend(addr string, period, budget time.Duration, logger *slog.Logger) bool {
	start := time.Now()
	for time.Since(start) < budget {
		attemptStart := time.Now()
		conn, err := net.DialTimeout("tcp", addr, period)
		if err == nil {
			conn.Close()
			return true
		}

		// Sleep the remainder of the slot so a fast connection-refused does
		// not turn this loop into a busy spin.
		if remaining := period - time.Since(attemptStart); remaining > 0 {
			time.Sleep(remaining)
		}
	}

	logger.Warn("backend did not become reachable, signaling reload anyway",
		"addr", addr, "budget", budget)
	return false
}

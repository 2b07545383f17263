package syncprim

import "time"

const (
	pollMinBackoff = 10 * time.Microsecond
	pollMaxBackoff = time.Millisecond
)

// Poll calls try until it reports success or d elapses, backing off
// exponentially between attempts. try is always called at least once, so a
// zero d is a single non-blocking attempt.
func Poll(d time.Duration, try func() bool) bool {
	deadline := time.Now().Add(d)
	backoff := pollMinBackoff
	for {
		if try() {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		time.Sleep(min(backoff, remaining))
		backoff = min(backoff*2, pollMaxBackoff)
	}
}

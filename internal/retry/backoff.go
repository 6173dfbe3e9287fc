package retry

import "time"

// maxBackoff caps the delay so long retry chains do not stall workers.
const maxBackoff = 2 * time.Minute

// ExponentialBackoff returns the delay for an attempt number, doubling from
// base with each attempt and capped at maxBackoff.
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base * (1 << attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

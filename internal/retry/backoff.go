package retry

import "time"

// maxBackoff bounds the delay so late attempts of long-running tasks do not
// sleep for minutes.
const maxBackoff = 30 * time.Second

// ExponentialBackoff returns delay based on attempt number.
// The delay doubles with each attempt (base * 2^attempt) up to a fixed cap.
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base * (1 << attempt)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

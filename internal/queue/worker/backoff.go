package worker

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	backoffBase = 2 * time.Second
	backoffCap  = 5 * time.Minute
)

// ExponentialBackoff returns the delay before retry number attempt+1:
// attempt=0 => 2s, attempt=1 => 4s, attempt=2 => 8s, capped at 5m.
func ExponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := backoffCap
	if attempt < 20 {
		delay = time.Duration(float64(backoffBase) * math.Pow(2, float64(attempt)))
		if delay > backoffCap {
			delay = backoffCap
		}
	}

	// small jitter (0–250ms) to avoid thundering herd
	return delay + time.Duration(rand.IntN(250))*time.Millisecond
}

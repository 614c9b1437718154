package helpers

import (
	"time"

	"golang.org/x/time/rate"
)

// NewLogThrottle returns a limiter that lets the first burst calls through and then one per interval.
func NewLogThrottle(burst int, interval time.Duration) *rate.Sometimes {
	return &rate.Sometimes{
		First:    burst,
		Interval: interval,
	}
}

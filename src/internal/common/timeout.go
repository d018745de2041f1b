package common

import (
	"context"
	"time"
)

// CreateContext returns a background context bounded by the given duration.
func CreateContext(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

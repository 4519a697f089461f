package clock

import (
	"context"
	"time"
)

type SystemClock struct{}

func (SystemClock) Now(context.Context) time.Time {
	return time.Now().UTC()
}

// Fixed returns a clock pinned to t. Test helper.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now(context.Context) time.Time {
	return f.T
}

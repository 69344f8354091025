package timex

import (
	"context"
	"time"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Sleep waits for d or until ctx is done. It reports false on cancellation.
func Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Every calls f every d until ctx is done or f returns false.
// The first call happens immediately.
func Every(ctx context.Context, d time.Duration, f func() bool) error {
	tick := time.NewTicker(d)
	defer tick.Stop()
	for {
		if !f() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

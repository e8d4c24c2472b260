package automation

import (
	"context"
	"time"

	"github.com/mj1618/desktop-intent/internal/input"
)

// Clock supplies time to the polling engines. Tests replace it to make
// backoff deterministic.
type Clock interface {
	Now() time.Time
	// Sleep waits for d or until ctx is done, returning ctx.Err() then.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	return input.Sleep(ctx, d)
}

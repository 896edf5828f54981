// Package guardrails holds cross cutting safety helpers for transform
package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for a single partition run.
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Partition is the overall time budget for one partition run
	Partition time.Duration

	// List caps the discovery step
	List time.Duration

	// Read caps one object fetch
	Read time.Duration

	// Encode caps one assemble plus encode step
	Encode time.Duration

	// Write caps one destination write
	Write time.Duration
}

// WithPartition returns a context limited by the partition budget without extending any parent deadline.
// if Partition is zero it returns a cancelable child that simply inherits the parent deadline
func WithPartition(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Partition)
}

// ForList returns a sub context for the discovery phase bounded by List and any remaining parent budget
func ForList(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.List)
}

// ForRead returns a sub context for one object fetch bounded by Read and any remaining parent budget
func ForRead(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Read)
}

// ForEncode returns a sub context for one encode step bounded by Encode and any remaining parent budget
func ForEncode(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Encode)
}

// ForWrite returns a sub context for one destination write bounded by Write and any remaining parent budget
func ForWrite(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Write)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of the requested duration and any parent remainder.
// Never extends the parent deadline
// When d is zero it returns a simple cancelable child inheriting the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	// Zero means no additional limit, still return a cancelable child for symmetry
	if d <= 0 {
		return context.WithCancel(parent)
	}

	// respect any parent deadline by taking the minimum
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}

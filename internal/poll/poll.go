// Package poll repeats a status probe at a fixed interval until the observed
// value is terminal, the probe errors, or the attempt budget is spent.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrExhausted is returned when MaxAttempts probes all came back non-terminal.
var ErrExhausted = errors.New("poll attempts exhausted")

var errPending = errors.New("pending")

type Policy struct {
	Interval    time.Duration
	MaxAttempts uint
}

// Probe fetches the current value. Any error aborts polling immediately.
type Probe[T any] func(ctx context.Context, attempt uint) (T, error)

// Until runs probe until terminal(v) is true. It returns the last value
// observed, which on ErrExhausted is the last non-terminal value.
func Until[T any](ctx context.Context, p Policy, probe Probe[T], terminal func(T) bool) (T, error) {
	attempts := p.MaxAttempts
	if attempts == 0 {
		// retry-go treats 0 as unlimited
		attempts = 1
	}

	var (
		last    T
		attempt uint
	)
	err := retry.Do(
		func() error {
			attempt++
			v, err := probe(ctx, attempt)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			last = v
			if terminal(v) {
				return nil
			}
			return errPending
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.Interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if errors.Is(err, errPending) {
		return last, fmt.Errorf("%w after %d attempts", ErrExhausted, attempt)
	}
	return last, err
}

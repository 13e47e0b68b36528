// Package readiness waits for an external dependent service, typically the
// container runtime daemon, to start answering. It is a bounded retry at a
// fixed interval: no exponential growth, no jitter, because the daemon
// either comes up within the budget or the run aborts.
package readiness

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Probe asks the dependent service whether it can accept commands right now.
// (false, nil) means the service answered but is not ready yet and the wait
// continues. A non-nil error is reserved for faults retrying cannot fix,
// such as a missing binary, and aborts the wait immediately.
type Probe func(ctx context.Context) (bool, error)

var errNotReady = errors.New("not ready")

// Wait invokes probe up to maxAttempts times, sleeping interval between
// attempts. It returns true as soon as a probe reports ready; sleeping only
// happens between attempts, never after the last one. maxAttempts <= 0
// returns false without probing at all.
func Wait(ctx context.Context, probe Probe, maxAttempts int, interval time.Duration) (bool, error) {
	if maxAttempts <= 0 {
		return false, nil
	}

	operation := func() error {
		ready, err := probe(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ready {
			return errNotReady
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(maxAttempts-1)),
		ctx,
	)

	err := backoff.Retry(operation, policy)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errNotReady):
		// Attempts exhausted without the service coming up.
		return false, nil
	default:
		return false, err
	}
}

package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Receive waits for one value from ch, failing the test at the timeout so a
// stalled emitter never hangs the suite.
func Receive[T any](t *testing.T, ch <-chan T, timeout time.Duration) T {
	t.Helper()

	select {
	case val, ok := <-ch:
		require.True(t, ok, "channel closed while awaiting value")
		return val
	case <-time.After(timeout):
		require.Fail(t, "timed out awaiting value")
		var zero T
		return zero
	}
}

// ReceiveN collects exactly n values from ch within the timeout.
func ReceiveN[T any](t *testing.T, ch <-chan T, n int, timeout time.Duration) []T {
	t.Helper()

	deadline := time.After(timeout)
	collected := make([]T, 0, n)
	for len(collected) < n {
		select {
		case val, ok := <-ch:
			require.True(t, ok, "channel closed after %d of %d values", len(collected), n)
			collected = append(collected, val)
		case <-deadline:
			require.Fail(t, "timed out", "received %d of %d values", len(collected), n)
		}
	}
	return collected
}

// NoReceive asserts ch stays quiet (and open) for the full wait.
func NoReceive[T any](t *testing.T, ch <-chan T, wait time.Duration) {
	t.Helper()

	select {
	case val, ok := <-ch:
		require.False(t, ok, "unexpected value: %v", val)
		require.Fail(t, "channel closed during quiet period")
	case <-time.After(wait):
	}
}

// Closed waits for ch to be drained and closed within the timeout, returning
// any values received on the way.
func Closed[T any](t *testing.T, ch <-chan T, timeout time.Duration) []T {
	t.Helper()

	deadline := time.After(timeout)
	var drained []T
	for {
		select {
		case val, ok := <-ch:
			if !ok {
				return drained
			}
			drained = append(drained, val)
		case <-deadline:
			require.Fail(t, "timed out awaiting channel close")
			return drained
		}
	}
}

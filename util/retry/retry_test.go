package retry

import (
	"context"
	"testing"
	"time"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleeps replaces the sleep function for the duration of the test.
func recordSleeps(t *testing.T) *[]time.Duration {
	var sleeps []time.Duration

	original := sleepFunc
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}

	t.Cleanup(func() { sleepFunc = original })

	return &sleeps
}

func failing(failures int) (func() (string, error), *int) {
	calls := 0

	return func() (string, error) {
		calls++
		if calls <= failures {
			return "", errors.NewStorageError("attempt %d failed", calls)
		}

		return "ok", nil
	}, &calls
}

func TestRetrySucceedsFirstTime(t *testing.T) {
	sleeps := recordSleeps(t)
	f, calls := failing(0)

	result, err := Retry(context.Background(), ulogger.TestLogger{}, f)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, *calls)
	assert.Empty(t, *sleeps)
}

func TestRetryLinearBackoff(t *testing.T) {
	sleeps := recordSleeps(t)
	f, calls := failing(2)

	result, err := Retry(context.Background(), ulogger.TestLogger{}, f,
		WithRetryCount(3),
		WithBackoffMultiplier(2),
		WithBackoffDurationType(time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 3 * time.Millisecond}, *sleeps)
}

func TestRetryExponentialBackoff(t *testing.T) {
	sleeps := recordSleeps(t)
	f, _ := failing(4)

	_, err := Retry(context.Background(), ulogger.TestLogger{}, f,
		WithRetryCount(5),
		WithBackoffDurationType(10*time.Millisecond),
		WithExponentialBackoff(2.0, 25*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond, 25 * time.Millisecond}, *sleeps)
}

func TestRetryGivesUp(t *testing.T) {
	recordSleeps(t)
	f, calls := failing(10)

	_, err := Retry(context.Background(), ulogger.TestLogger{}, f, WithRetryCount(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStorageError))
	assert.Equal(t, 3, *calls)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	recordSleeps(t)
	f, calls := failing(10)

	_, err := Retry(context.Background(), ulogger.TestLogger{}, f,
		WithRetryCount(5),
		WithRetryable(func(err error) bool { return !errors.Is(err, errors.ErrStorageError) }),
	)
	require.Error(t, err)
	assert.Equal(t, 1, *calls)
}

func TestRetryStopsWhenContextDone(t *testing.T) {
	recordSleeps(t)
	f, calls := failing(10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, ulogger.TestLogger{}, f, WithRetryCount(5))
	require.Error(t, err)
	assert.Equal(t, 1, *calls)
}

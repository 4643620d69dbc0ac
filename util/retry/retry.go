// Package retry retries fallible calls with a linear or capped exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/atomledger/atomengine/ulogger"
)

type Options struct {
	RetryCount          int
	BackoffMultiplier   int
	BackoffDurationType time.Duration
	Message             string
	Exponential         bool
	BackoffFactor       float64
	MaxBackoff          time.Duration
	// Retryable reports whether an error is worth another attempt, nil retries everything.
	Retryable func(err error) bool
}

type Option func(*Options)

func WithRetryCount(retryCount int) Option {
	return func(o *Options) {
		o.RetryCount = retryCount
	}
}

func WithBackoffMultiplier(multiplier int) Option {
	return func(o *Options) {
		o.BackoffMultiplier = multiplier
	}
}

func WithBackoffDurationType(durationType time.Duration) Option {
	return func(o *Options) {
		o.BackoffDurationType = durationType
	}
}

func WithMessage(message string) Option {
	return func(o *Options) {
		o.Message = message
	}
}

// WithExponentialBackoff starts at the backoff duration type and multiplies it by
// factor after every failed attempt, up to maxBackoff.
func WithExponentialBackoff(factor float64, maxBackoff time.Duration) Option {
	return func(o *Options) {
		o.Exponential = true
		o.BackoffFactor = factor
		o.MaxBackoff = maxBackoff
	}
}

func WithRetryable(retryable func(err error) bool) Option {
	return func(o *Options) {
		o.Retryable = retryable
	}
}

// Retry calls f until it succeeds, the error is not retryable, ctx is done or the
// attempts are used up. It returns the last result and error.
func Retry[T any](ctx context.Context, logger ulogger.Logger, f func() (T, error), opts ...Option) (T, error) {
	o := &Options{
		RetryCount:          3,
		BackoffMultiplier:   2,
		BackoffDurationType: time.Second,
		Message:             "retrying",
		BackoffFactor:       2.0,
		MaxBackoff:          30 * time.Second,
	}

	for _, opt := range opts {
		opt(o)
	}

	var (
		result  T
		err     error
		backoff = o.BackoffDurationType
	)

	for i := 0; i < o.RetryCount; i++ {
		if result, err = f(); err == nil {
			return result, nil
		}

		if o.Retryable != nil && !o.Retryable(err) {
			return result, err
		}

		if i == o.RetryCount-1 {
			break
		}

		logger.Warnf("%s (attempt %d of %d): %v", o.Message, i+1, o.RetryCount, err)

		if o.Exponential {
			if sleepErr := sleepFunc(ctx, backoff); sleepErr != nil {
				return result, err
			}

			backoff = CappedExponentialBackoff(backoff, o.BackoffFactor, o.MaxBackoff)

			continue
		}

		if sleepErr := BackoffAndSleep(ctx, i, o.BackoffMultiplier, o.BackoffDurationType); sleepErr != nil {
			return result, err
		}
	}

	return result, err
}

package allocuc

import (
	"fmt"
	"time"
)

// Option is a functional option for the allocation use case.
type Option func(*UseCase) error

// WithMaxAttempts bounds the reservation retry loop.
func WithMaxAttempts(n int) Option {
	return func(uc *UseCase) error {
		if n <= 0 {
			return fmt.Errorf("max attempts must be positive: %d", n)
		}
		uc.maxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the pause between reservation attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(uc *UseCase) error {
		if d < 0 {
			return fmt.Errorf("retry delay must not be negative: %v", d)
		}
		uc.retryDelay = d
		return nil
	}
}

// WithDistanceConstant sets the K constant of the distance score
// term, K - distanceFromEntrance. It must exceed the largest slot
// distance of the facility so the term stays positive.
func WithDistanceConstant(k float64) Option {
	return func(uc *UseCase) error {
		if k <= 0 {
			return fmt.Errorf("distance constant must be positive: %v", k)
		}
		uc.distanceK = k
		return nil
	}
}

package routeruc

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/momeni/parkcore/pkg/core/port"
)

// Option is a functional option for the event router.
type Option func(*Router) error

// WithWorkers sets the number of parallel fact workers.
func WithWorkers(n int) Option {
	return func(r *Router) error {
		if n <= 0 {
			return fmt.Errorf("workers must be positive: %d", n)
		}
		r.workers = n
		return nil
	}
}

// WithQueueCapacity sets the immediate-path queue capacity.
func WithQueueCapacity(n int) Option {
	return func(r *Router) error {
		if n <= 0 {
			return fmt.Errorf("queue capacity must be positive: %d", n)
		}
		r.immediate = make(chan task, n)
		return nil
	}
}

// WithScanInterval sets the fixed violation scan interval.
func WithScanInterval(d time.Duration) Option {
	return func(r *Router) error {
		if d <= 0 {
			return fmt.Errorf("scan interval must be positive: %v", d)
		}
		r.scanInterval = d
		return nil
	}
}

// WithDeferral configures tick deferral: a tick is postponed by delay
// while more than threshold immediate facts are queued.
func WithDeferral(threshold int, delay time.Duration) Option {
	return func(r *Router) error {
		if threshold <= 0 || delay <= 0 {
			return fmt.Errorf(
				"deferral threshold and delay must be positive",
			)
		}
		r.deferThreshold = threshold
		r.deferDelay = delay
		return nil
	}
}

// WithFactDeadline bounds the processing time of a single fact.
func WithFactDeadline(d time.Duration) Option {
	return func(r *Router) error {
		if d <= 0 {
			return fmt.Errorf("fact deadline must be positive: %v", d)
		}
		r.factDeadline = d
		return nil
	}
}

// WithDedup installs a processed-fact store with the given retention.
func WithDedup(store port.DedupStore, retention time.Duration) Option {
	return func(r *Router) error {
		if store == nil {
			return fmt.Errorf("dedup store must not be nil")
		}
		if retention <= 0 {
			return fmt.Errorf("retention must be positive: %v", retention)
		}
		r.dedup = store
		r.retention = retention
		return nil
	}
}

// WithSensorRateLimit bounds the accepted sensor fact rate.
func WithSensorRateLimit(perSecond float64, burst int) Option {
	return func(r *Router) error {
		if perSecond <= 0 || burst <= 0 {
			return fmt.Errorf("rate and burst must be positive")
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

package pool

import (
	"time"

	"golang.org/x/time/rate"
)

// QueueDiscipline selects the ordering the queue manager uses for tasks
// that arrive while every worker is busy.
type QueueDiscipline int

const (
	// FIFO serves queued tasks in arrival order (default).
	FIFO QueueDiscipline = iota
	// LIFO serves the most recently queued task first.
	LIFO
)

// ShutdownKind controls how a supervised child is stopped.
type ShutdownKind int

const (
	// Brutal terminates a child immediately. Every child other than the
	// worker supervisor always uses it; the worker supervisor's kind is
	// set by WithPoolSupShutdown and also defaults to Brutal.
	Brutal ShutdownKind = iota
	// Graceful waits (up to an associated timeout) for in-flight work
	// to finish before terminating.
	Graceful
)

// OverrunHandler is invoked by the time checker when a task exceeds its
// configured wall-clock budget. The default handler logs a warning.
type OverrunHandler func(workerID string, elapsed time.Duration, payload any)

// Option configures a pool at StartLink time, following the standard
// functional-option pattern.
type Option func(*options)

type options struct {
	workers             int
	queueType           QueueDiscipline
	overrunHandler      OverrunHandler
	overrunBudget       time.Duration
	poolSupShutdown     ShutdownKind
	poolSupShutdownWait time.Duration
	poolSupIntensity    int
	poolSupPeriod       time.Duration
	enableCallbacks     bool
	rateLimiter         *rate.Limiter
	workerAffinity      bool
}

func defaultOptions() *options {
	return &options{
		workers:          100,
		queueType:        FIFO,
		overrunHandler:   defaultOverrunHandler,
		overrunBudget:    0, // disabled unless WithOverrunHandler sets a budget
		poolSupShutdown:  Brutal,
		poolSupIntensity: 5,
		poolSupPeriod:    60 * time.Second,
		enableCallbacks:  false,
	}
}

// WithWorkers sets the pool size. Default 100.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithQueueType selects FIFO (default) or LIFO queueing discipline for
// the queue manager.
func WithQueueType(d QueueDiscipline) Option {
	return func(o *options) { o.queueType = d }
}

// WithOverrunHandler installs a callback invoked when a task runs longer
// than budget. If budget is <= 0, overrun detection is disabled.
func WithOverrunHandler(budget time.Duration, handler OverrunHandler) Option {
	return func(o *options) {
		o.overrunBudget = budget
		if handler != nil {
			o.overrunHandler = handler
		}
	}
}

// WithPoolSupShutdown sets the worker supervisor's shutdown kind.
// Default Brutal. A Graceful shutdown waits up to wait for workers to
// drain before forcing termination.
func WithPoolSupShutdown(kind ShutdownKind, wait time.Duration) Option {
	return func(o *options) {
		o.poolSupShutdown = kind
		o.poolSupShutdownWait = wait
	}
}

// WithPoolSupIntensity sets the maximum number of restarts allowed
// within PoolSupPeriod before the supervisor gives up. Default 5.
func WithPoolSupIntensity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.poolSupIntensity = n
		}
	}
}

// WithPoolSupPeriod sets the sliding window over which restart
// intensity is measured. Default 60s.
func WithPoolSupPeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.poolSupPeriod = d
		}
	}
}

// WithCallbacksEnabled turns on the optional event manager. Default
// false.
func WithCallbacksEnabled(enabled bool) Option {
	return func(o *options) { o.enableCallbacks = enabled }
}

// WithSubmissionRateLimit throttles admission into CallAvailableWorker to
// eventsPerSec with the given burst, using a token-bucket limiter. Not
// applied to casts, which must never fail or block for the caller. Unset
// by default (unbounded admission).
func WithSubmissionRateLimit(eventsPerSec float64, burst int) Option {
	return func(o *options) {
		if eventsPerSec > 0 && burst > 0 {
			o.rateLimiter = rate.NewLimiter(rate.Limit(eventsPerSec), burst)
		}
	}
}

// WithWorkerAffinity pins each worker unit's OS thread to a CPU core
// (workerIndex mod NumCPU) for the life of the pool. Default false.
func WithWorkerAffinity(enabled bool) Option {
	return func(o *options) { o.workerAffinity = enabled }
}

func defaultOverrunHandler(workerID string, elapsed time.Duration, payload any) {
	warnf("worker %s: task overran budget (elapsed %s, payload %v)", workerID, elapsed, payload)
}

// normalized returns a map suitable for the stats snapshot's "options"
// field.
func (o *options) normalized() map[string]any {
	return map[string]any{
		"workers":            o.workers,
		"queue_type":         o.queueType,
		"pool_sup_shutdown":  o.poolSupShutdown,
		"pool_sup_intensity": o.poolSupIntensity,
		"pool_sup_period":    o.poolSupPeriod,
		"enable_callbacks":   o.enableCallbacks,
		"overrun_budget":     o.overrunBudget,
		"worker_affinity":    o.workerAffinity,
	}
}

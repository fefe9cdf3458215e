package pool

import (
	"errors"
	"fmt"
)

// Sentinel errors covering the failure taxonomy a dispatch call can
// observe. Callers should compare with errors.Is, since some of these
// are also wrapped with additional context (e.g. the pool name).
var (
	// ErrNoWorkers is returned when the pool name is unknown, or its
	// supervisor has died and the registry entry could not be rebuilt.
	ErrNoWorkers = errors.New("wpool: no_workers")

	// ErrNoAvailableWorkers is returned by next_available_worker when
	// every worker is busy and the strategy requires an immediate match.
	ErrNoAvailableWorkers = errors.New("wpool: no_available_workers")

	// ErrTimeout is returned when a call's deadline elapses before a
	// worker could be matched, or before it returned a reply.
	ErrTimeout = errors.New("wpool: timeout")

	// ErrNoProc is returned by Registry.Lookup, Rebuild and Stop when no
	// live pool is registered under the name. A submission that reaches
	// an already stopped queue manager is answered with ErrTimeout, not
	// ErrNoProc.
	ErrNoProc = errors.New("wpool: noproc")

	// ErrInvalidRequest is returned when a worker is handed a submission
	// kind it does not understand.
	ErrInvalidRequest = errors.New("wpool: invalid_request")

	// ErrPoolShutdown is returned by Cast and Call when the chosen
	// worker's mailbox has already been closed by a shutdown. Operations
	// on a pool whose supervisor has terminated get ErrNoWorkers.
	ErrPoolShutdown = errors.New("wpool: pool_shutdown")

	// ErrAlreadyStarted is returned by StartLink when a pool with the
	// same name is already registered.
	ErrAlreadyStarted = errors.New("wpool: already_started")
)

// TaskFailureError wraps the error or recovered panic raised by a task's
// execution. Call-style submissions see this error; cast-style
// submissions only have it logged, per the "task_failure" entry in the
// error taxonomy.
type TaskFailureError struct {
	WorkerID string
	Err      error
}

func (e *TaskFailureError) Error() string {
	return fmt.Sprintf("wpool: task failed on %s: %v", e.WorkerID, e.Err)
}

func (e *TaskFailureError) Unwrap() error {
	return e.Err
}

// noWorkersf wraps ErrNoWorkers with the pool name for diagnostics while
// remaining errors.Is(err, ErrNoWorkers)-compatible.
func noWorkersf(name string) error {
	return fmt.Errorf("%w: pool %q", ErrNoWorkers, name)
}

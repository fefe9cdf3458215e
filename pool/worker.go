package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/utkarsh5026/wpool/internal/affinity"
)

// taskMarker is the worker unit's "current task" marker: set before
// execution, cleared after. The stats collector reads it opportunistically
// and must tolerate a torn read by treating any inconsistency as no task —
// an atomic.Pointer swap gives exactly that: a reader either sees the old
// pointer, the new one, or nil, never a half-written struct.
type taskMarker struct {
	taskID    string
	startedAt time.Time
	payload   any
}

// workerUnit is a single-threaded message-processing loop consuming its
// own mailbox: dequeue, mark current, run with recovery, clear current,
// reply or warn, signal the queue manager it's ready again.
type workerUnit struct {
	id    string
	index int
	box   *mailbox
	pin   bool

	current atomic.Pointer[taskMarker]

	timeChecker *timeChecker
	queueMgr    *queueManager
	events      *eventManager

	quit chan struct{}
	done chan struct{}
}

func newWorkerUnit(id string, index int, tc *timeChecker, qm *queueManager, ev *eventManager, pin bool) *workerUnit {
	return &workerUnit{
		id:          id,
		index:       index,
		box:         newMailbox(),
		pin:         pin,
		timeChecker: tc,
		queueMgr:    qm,
		events:      ev,
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// run is the worker's message loop. It returns nil when the mailbox
// closes or quit is signalled (an intentional stop); it returns a
// non-nil error if execute's own panic recovery somehow fails to
// contain a fault, which the supervisor treats as a crash to restart
// one-for-one.
func (w *workerUnit) run() (err error) {
	defer close(w.done)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %s: fatal: %v", w.id, r)
		}
	}()

	if w.pin {
		defer affinity.Pin(w.index)()
	}

	for {
		sub, ok := w.box.Dequeue(w.quit)
		if !ok {
			return nil
		}
		w.execute(sub)
	}
}

func (w *workerUnit) execute(sub submission) {
	marker := &taskMarker{
		taskID:    fmt.Sprintf("%s-%d", w.id, time.Now().UnixNano()),
		startedAt: time.Now(),
		payload:   sub.task.Payload(),
	}
	w.current.Store(marker)
	w.timeChecker.onStart(w.id, marker)

	value, err := w.runWithRecovery(sub.task)

	w.timeChecker.onStop(w.id)
	w.current.Store(nil)

	switch sub.kind {
	case kindCall, kindSendRequest:
		if sub.kind == kindCall && deadlinePassed(sub.deadline) {
			// Caller already timed out; the reply has nowhere useful to go.
			// A send-request's deadline bounds only its queueing, so its
			// reply is always delivered.
			break
		}
		var replyErr error
		if err != nil {
			replyErr = &TaskFailureError{WorkerID: w.id, Err: err}
		}
		select {
		case sub.replyTo <- Reply{Value: value, Err: replyErr}:
		default:
		}
	case kindCast:
		if err != nil {
			warnf("worker %s: cast task failed: %v", w.id, err)
		}
	}

	if w.queueMgr != nil {
		w.queueMgr.workerReady(w.id, w.box)
	}
}

// runWithRecovery executes a task with panic recovery, converting a
// panic into an error with a stack trace.
func (w *workerUnit) runWithRecovery(t Task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("worker panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()

	return t.Execute(context.Background())
}

// currentTask returns the worker's in-flight task marker, or nil if
// idle. Used by the stats collector.
func (w *workerUnit) currentTask() *taskMarker {
	return w.current.Load()
}

func (w *workerUnit) mailboxLen() int { return w.box.Len() }

func (w *workerUnit) isAvailable() bool {
	return w.current.Load() == nil && w.box.Len() == 0
}

// stop terminates the worker per the given shutdown kind. Brutal
// signals the worker to exit and returns immediately, without waiting
// for an in-flight task to finish — the library never cancels running
// work, it simply stops waiting for it. Graceful waits up to timeout
// for the worker's current task to drain before giving up and
// returning anyway.
func (w *workerUnit) stop(kind ShutdownKind, timeout time.Duration) {
	w.box.Close()
	close(w.quit)

	if kind == Brutal {
		return
	}

	if timeout <= 0 {
		<-w.done
		return
	}

	select {
	case <-w.done:
	case <-time.After(timeout):
	}
}

func deadlinePassed(deadlineUnixNano int64) bool {
	return deadlineUnixNano != 0 && time.Now().UnixNano() > deadlineUnixNano
}

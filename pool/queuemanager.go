package pool

import (
	"container/list"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueManager is the central serializer for the available-worker
// strategies. It is a long-running actor: every mutation of its two
// logical queues is driven by a message on a single input channel, so
// no lock is needed around the queues themselves — message-driven,
// single-consumer state instead of ad-hoc locking around shared queues.
type queueManager struct {
	discipline QueueDiscipline

	ops  chan any
	quit chan struct{}
	done chan struct{}

	pending atomic.Int64 // lock-free read for stats.pending_task_count
}

// callEntry is a queued call/send-request awaiting a worker.
type callEntry struct {
	id  uuid.UUID
	sub submission
}

// readyWorker is a worker that has advertised itself idle.
type readyWorker struct {
	id  string
	box *mailbox
}

type submitOp struct {
	sub     submission
	id      uuid.UUID
	noQueue bool // timeout<=0: fail immediately instead of enqueueing
}

type workerReadyOp struct {
	worker readyWorker
}

type expireOp struct {
	id uuid.UUID
}

func newQueueManager(discipline QueueDiscipline) *queueManager {
	qm := &queueManager{
		discipline: discipline,
		ops:        make(chan any),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go qm.run()
	return qm
}

func (qm *queueManager) run() {
	defer close(qm.done)

	tasksWaiting := list.New()  // of *callEntry
	workersReady := list.New()  // of readyWorker

	for {
		select {
		case <-qm.quit:
			return
		case raw := <-qm.ops:
			switch op := raw.(type) {
			case submitOp:
				qm.handleSubmit(op, tasksWaiting, workersReady)
			case workerReadyOp:
				qm.handleWorkerReady(op, tasksWaiting, workersReady)
			case expireOp:
				qm.handleExpire(op, tasksWaiting)
			}
		}
	}
}

func (qm *queueManager) handleSubmit(op submitOp, tasksWaiting, workersReady *list.List) {
	if w, ok := popFront[readyWorker](workersReady); ok {
		debugLog("queue manager: matched submission %s to idle worker %s", op.id, w.id)
		dispatch(w, op.sub)
		return
	}

	if op.noQueue {
		debugLog("queue manager: no idle worker and noQueue set, failing submission %s", op.id)
		replyTimeout(op.sub)
		return
	}

	entry := &callEntry{id: op.id, sub: op.sub}
	if qm.discipline == LIFO {
		tasksWaiting.PushFront(entry)
	} else {
		tasksWaiting.PushBack(entry)
	}
	qm.pending.Add(1)

	if op.sub.kind != kindCast && op.sub.deadline != 0 {
		delay := time.Until(time.Unix(0, op.sub.deadline))
		if delay < 0 {
			delay = 0
		}
		time.AfterFunc(delay, func() {
			select {
			case qm.ops <- expireOp{id: op.id}:
			case <-qm.quit:
			}
		})
	}
}

func (qm *queueManager) handleWorkerReady(op workerReadyOp, tasksWaiting, workersReady *list.List) {
	for {
		entry, ok := popFront[*callEntry](tasksWaiting)
		if !ok {
			debugLog("queue manager: no waiting task, parking worker %s", op.worker.id)
			workersReady.PushBack(op.worker)
			return
		}
		qm.pending.Add(-1)
		if deadlinePassed(entry.sub.deadline) {
			replyTimeout(entry.sub)
			continue
		}
		dispatch(op.worker, entry.sub)
		return
	}
}

func (qm *queueManager) handleExpire(op expireOp, tasksWaiting *list.List) {
	for e := tasksWaiting.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*callEntry)
		if entry.id == op.id {
			tasksWaiting.Remove(e)
			qm.pending.Add(-1)
			replyTimeout(entry.sub)
			return
		}
	}
}

// popFront removes and returns the list's front element, typed, and
// whether one was present. A tiny helper to keep handleSubmit/
// handleWorkerReady free of container/list boilerplate.
func popFront[T any](l *list.List) (T, bool) {
	var zero T
	front := l.Front()
	if front == nil {
		return zero, false
	}
	l.Remove(front)
	v, ok := front.Value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

func dispatch(w readyWorker, sub submission) {
	if !w.box.Enqueue(sub) {
		// Worker's mailbox was closed concurrently (pool shutting down);
		// tell the caller rather than silently dropping the submission.
		replyTimeout(sub)
	}
}

func replyTimeout(sub submission) {
	if sub.replyTo == nil {
		return
	}
	select {
	case sub.replyTo <- Reply{Err: ErrTimeout}:
	default:
	}
}

// submit enqueues a cast, call, or send-request. noQueue short-circuits
// straight to a timeout reply when no worker is immediately ready,
// instead of enqueueing — used for timeout<=0 calls so a saturated pool
// never accrues a stale queue entry.
func (qm *queueManager) submit(sub submission, noQueue bool) {
	op := submitOp{sub: sub, id: uuid.New(), noQueue: noQueue}
	select {
	case qm.ops <- op:
	case <-qm.quit:
		replyTimeout(sub)
	}
}

// workerReady advertises a worker as idle, to be matched against any
// queued task.
func (qm *queueManager) workerReady(workerID string, box *mailbox) {
	select {
	case qm.ops <- workerReadyOp{worker: readyWorker{id: workerID, box: box}}:
	case <-qm.quit:
	}
}

// pendingTaskCount is the stats gauge for tasks queued but not yet
// matched to a worker.
func (qm *queueManager) pendingTaskCount() int {
	return int(qm.pending.Load())
}

func (qm *queueManager) stop() {
	close(qm.quit)
	<-qm.done
}

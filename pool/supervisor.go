package pool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/wpool/internal/backoff"
)

// Pool bundles a Descriptor with the supervised runtime it describes.
// The registry maps a name to a *Pool; dispatch strategies read the
// Descriptor for routing data and the supervisor for live worker units.
type Pool struct {
	Descriptor *Descriptor
	sup        *supervisor
}

// workerSupervisor owns the pool's N worker units and restarts any
// individual crashed unit without disturbing its peers (one-for-one).
type workerSupervisor struct {
	name    string
	mu      sync.RWMutex
	workers []*workerUnit

	tc      *timeChecker
	qm      *queueManager
	ev      *eventManager
	opts    *options
	onCrash func(index int, err error)
}

func newWorkerSupervisor(name string, size int, tc *timeChecker, qm *queueManager, ev *eventManager, opts *options, onCrash func(int, error)) *workerSupervisor {
	ws := &workerSupervisor{
		name:    name,
		workers: make([]*workerUnit, size),
		tc:      tc,
		qm:      qm,
		ev:      ev,
		opts:    opts,
		onCrash: onCrash,
	}
	for i := 0; i < size; i++ {
		ws.spawn(i)
	}
	return ws
}

func (ws *workerSupervisor) spawn(i int) {
	id := workerID(ws.name, i)
	w := newWorkerUnit(id, i, ws.tc, ws.qm, ws.ev, ws.opts.workerAffinity)

	ws.mu.Lock()
	ws.workers[i] = w
	ws.mu.Unlock()

	debugLog("worker supervisor %s: spawned slot %d as %s", ws.name, i, id)
	if ws.qm != nil {
		ws.qm.workerReady(id, w.box)
	}
	go ws.supervise(i, w)
	dispatchWorkerCreation(ws.ev, id)
}

func (ws *workerSupervisor) supervise(i int, w *workerUnit) {
	err := w.run()
	if err == nil {
		return // intentional stop; no restart
	}

	dispatchWorkerDeath(ws.ev, w.id, err)
	if ws.onCrash != nil {
		ws.onCrash(i, err)
	}
}

// WorkerAt returns the worker unit at 0-based index i, or nil if it has
// not yet been (re)spawned.
func (ws *workerSupervisor) WorkerAt(i int) *workerUnit {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if i < 0 || i >= len(ws.workers) {
		return nil
	}
	return ws.workers[i]
}

// Count returns the number of worker slots (live or not).
func (ws *workerSupervisor) Count() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.workers)
}

func (ws *workerSupervisor) stopAll(kind ShutdownKind, wait time.Duration) {
	ws.mu.RLock()
	workers := append([]*workerUnit(nil), ws.workers...)
	ws.mu.RUnlock()

	var g errgroup.Group
	for _, w := range workers {
		w := w
		if w == nil {
			continue
		}
		g.Go(func() error {
			w.stop(kind, wait)
			return nil
		})
	}
	_ = g.Wait()
}

// restartTracker implements a sliding-window restart-intensity check:
// at most `intensity` restarts within `period`.
type restartTracker struct {
	mu        sync.Mutex
	times     []time.Time
	intensity int
	period    time.Duration
}

// record appends a restart event, prunes anything older than period,
// and reports whether the pool is still within its intensity budget.
func (rt *restartTracker) record() (withinBudget bool, attempt int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rt.period)
	kept := rt.times[:0]
	for _, t := range rt.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	rt.times = kept

	return len(rt.times) <= rt.intensity, len(rt.times) - 1
}

// supervisor is the top-level pool supervisor: one-for-all across its
// four children (time checker, queue manager, event manager, worker
// supervisor), with the worker supervisor itself one-for-one internally.
// Restart coordination fans concurrent child stops out with
// golang.org/x/sync/errgroup.
type supervisor struct {
	name string
	opts *options

	tc        atomic.Pointer[timeChecker]
	qm        atomic.Pointer[queueManager]
	ev        atomic.Pointer[eventManager]
	workerSup atomic.Pointer[workerSupervisor]

	tracker    *restartTracker
	backoff    backoff.Strategy
	terminated atomic.Bool

	lastHeapAlloc atomic.Uint64 // previous runtime.MemStats sample, for Stats' memory delta

	onTerminate func()
}

func startSupervisor(name string, opts *options, onTerminate func()) *supervisor {
	sup := &supervisor{
		name: name,
		opts: opts,
		tracker: &restartTracker{
			intensity: opts.poolSupIntensity,
			period:    opts.poolSupPeriod,
		},
		backoff:     backoff.NewStrategy(backoff.Exponential, 25*time.Millisecond, 5*time.Second, 0),
		onTerminate: onTerminate,
	}
	sup.bootChildren()
	return sup
}

// bootChildren starts the four children in dependency order: the
// worker supervisor needs a live time checker and queue manager handed
// to each worker unit, so time-checker and queue-manager come first,
// then the optional event manager, then worker-supervisor.
func (sup *supervisor) bootChildren() {
	tc := newTimeChecker(sup.opts.overrunBudget, sup.opts.overrunHandler)
	sup.tc.Store(tc)

	qm := newQueueManager(sup.opts.queueType)
	sup.qm.Store(qm)
	go sup.monitorQueueManager(qm)

	var ev *eventManager
	if sup.opts.enableCallbacks {
		ev = newEventManager()
		ev.dispatchInitStart(sup.name)
	}
	sup.ev.Store(ev)

	ws := newWorkerSupervisor(sup.name, sup.opts.workers, tc, qm, ev, sup.opts, sup.onWorkerCrash)
	sup.workerSup.Store(ws)
}

// monitorQueueManager watches for the queue manager's actor goroutine
// exiting without an explicit Stop call (a crash) and triggers a
// one-for-all restart of the pool.
func (sup *supervisor) monitorQueueManager(qm *queueManager) {
	<-qm.done
	if sup.terminated.Load() {
		return
	}
	if sup.qm.Load() != qm {
		return // already replaced by a prior restart; stale monitor
	}

	sup.oneForAllRestart(fmt.Errorf("queue manager exited unexpectedly"))
}

func (sup *supervisor) oneForAllRestart(cause error) {
	within, attempt := sup.tracker.record()
	if !within {
		warnf("pool %s: restart intensity exceeded (%v), terminating", sup.name, cause)
		sup.Terminate()
		return
	}

	warnf("pool %s: one-for-all restart (%v)", sup.name, cause)
	if d := sup.backoff.NextDelay(attempt); d > 0 {
		debugLog("pool %s: backing off %s before restart attempt %d", sup.name, d, attempt)
		time.Sleep(d)
	}

	sup.workerSup.Load().stopAll(Brutal, 0)
	sup.tc.Load().stop()

	sup.bootChildren()
}

func (sup *supervisor) onWorkerCrash(index int, err error) {
	if sup.terminated.Load() {
		return
	}

	within, attempt := sup.tracker.record()
	if !within {
		warnf("pool %s: restart intensity exceeded (worker %d: %v), terminating", sup.name, index, err)
		sup.Terminate()
		return
	}

	delay := sup.backoff.NextDelay(attempt)
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		if sup.terminated.Load() {
			return
		}
		sup.workerSup.Load().spawn(index)
	}()
}

// Terminate stops every child (the worker units per the pool's
// configured shutdown kind, the rest immediately) and removes the pool
// from its registry. Idempotent.
func (sup *supervisor) Terminate() {
	if !sup.terminated.CompareAndSwap(false, true) {
		return
	}

	sup.workerSup.Load().stopAll(sup.opts.poolSupShutdown, sup.opts.poolSupShutdownWait)
	sup.tc.Load().stop()
	sup.qm.Load().stop()

	if sup.onTerminate != nil {
		sup.onTerminate()
	}
}

// Alive reports whether the top-level supervisor is still running.
func (sup *supervisor) Alive() bool { return !sup.terminated.Load() }

func (sup *supervisor) timeCheckerHandle() *timeChecker       { return sup.tc.Load() }
func (sup *supervisor) queueManagerHandle() *queueManager     { return sup.qm.Load() }
func (sup *supervisor) eventManagerHandle() *eventManager     { return sup.ev.Load() }
func (sup *supervisor) workers() *workerSupervisor            { return sup.workerSup.Load() }

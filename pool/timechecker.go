package pool

import (
	"sync"
	"time"
)

// timeChecker is the overrun watchdog: it receives start/stop
// notifications from workers and, if a task runs longer than the
// configured budget, invokes the overrun handler. The default handler
// just warns; anything more elaborate is the caller's business via
// WithOverrunHandler.
type timeChecker struct {
	budget  time.Duration
	handler OverrunHandler

	mu      sync.Mutex
	timers  map[string]*time.Timer // workerID -> pending overrun timer
	markers map[string]*taskMarker
}

func newTimeChecker(budget time.Duration, handler OverrunHandler) *timeChecker {
	return &timeChecker{
		budget:  budget,
		handler: handler,
		timers:  make(map[string]*time.Timer),
		markers: make(map[string]*taskMarker),
	}
}

// onStart arms the overrun timer for a worker that just began a task.
// A no-op if overrun detection is disabled (budget <= 0).
func (tc *timeChecker) onStart(workerID string, marker *taskMarker) {
	if tc.budget <= 0 {
		return
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.markers[workerID] = marker
	tc.timers[workerID] = time.AfterFunc(tc.budget, func() {
		tc.fire(workerID)
	})
}

// onStop disarms the overrun timer for a worker that just finished its
// task.
func (tc *timeChecker) onStop(workerID string) {
	if tc.budget <= 0 {
		return
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	if t, ok := tc.timers[workerID]; ok {
		t.Stop()
		delete(tc.timers, workerID)
	}
	delete(tc.markers, workerID)
}

func (tc *timeChecker) fire(workerID string) {
	tc.mu.Lock()
	marker := tc.markers[workerID]
	tc.mu.Unlock()

	if marker == nil || tc.handler == nil {
		return
	}

	tc.handler(workerID, time.Since(marker.startedAt), marker.payload)
}

// stop disarms every outstanding timer, called when the pool shuts
// down.
func (tc *timeChecker) stop() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for id, t := range tc.timers {
		t.Stop()
		delete(tc.timers, id)
	}
}

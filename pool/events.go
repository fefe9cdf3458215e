package pool

import (
	"fmt"
	"sync"
)

// CallbackModule is the optional event-manager capability: a pool
// owner registers implementations to observe lifecycle events without
// touching dispatch. Identity is the only required method; embed
// BaseCallbackModule to get it and implement only the observer
// interfaces below that are actually wanted. Events for an observer
// interface a module does not implement are skipped for that module.
type CallbackModule interface {
	// Identity returns the key used to register/deregister this
	// module. Registration is idempotent on Identity.
	Identity() string
}

// InitStartObserver is implemented by callback modules that want to
// know when a pool's supervisor has finished booting.
type InitStartObserver interface {
	OnInitStart(poolName string)
}

// WorkerCreationObserver is implemented by callback modules that want
// to know when a worker unit (re)spawns.
type WorkerCreationObserver interface {
	OnWorkerCreation(workerID string)
}

// WorkerDeathObserver is implemented by callback modules that want to
// know when a worker unit exits abnormally, and why.
type WorkerDeathObserver interface {
	OnWorkerDeath(workerID string, reason error)
}

// BaseCallbackModule gives embedders a named identity without having
// to implement every observer interface.
type BaseCallbackModule struct {
	Name string
}

// Identity returns the module's configured name.
func (b BaseCallbackModule) Identity() string { return b.Name }

// eventManager fans lifecycle events out to every registered
// CallbackModule, recovering and logging any callback panic so a
// faulty observer can never take down the pool it's watching.
type eventManager struct {
	mu      sync.RWMutex
	modules map[string]CallbackModule
}

func newEventManager() *eventManager {
	return &eventManager{modules: make(map[string]CallbackModule)}
}

// Register adds or replaces a callback module under its Identity.
func (ev *eventManager) Register(m CallbackModule) {
	if ev == nil || m == nil {
		return
	}
	ev.mu.Lock()
	defer ev.mu.Unlock()
	ev.modules[m.Identity()] = m
}

// Remove deregisters a callback module by identity.
func (ev *eventManager) Remove(identity string) {
	if ev == nil {
		return
	}
	ev.mu.Lock()
	defer ev.mu.Unlock()
	delete(ev.modules, identity)
}

func (ev *eventManager) snapshot() []CallbackModule {
	ev.mu.RLock()
	defer ev.mu.RUnlock()
	out := make([]CallbackModule, 0, len(ev.modules))
	for _, m := range ev.modules {
		out = append(out, m)
	}
	return out
}

func (ev *eventManager) dispatchInitStart(poolName string) {
	if ev == nil {
		return
	}
	for _, m := range ev.snapshot() {
		if obs, ok := m.(InitStartObserver); ok {
			safeCall(func() { obs.OnInitStart(poolName) })
		}
	}
}

func (ev *eventManager) dispatchWorkerCreation(workerID string) {
	if ev == nil {
		return
	}
	for _, m := range ev.snapshot() {
		if obs, ok := m.(WorkerCreationObserver); ok {
			safeCall(func() { obs.OnWorkerCreation(workerID) })
		}
	}
}

func (ev *eventManager) dispatchWorkerDeath(workerID string, reason error) {
	if ev == nil {
		return
	}
	for _, m := range ev.snapshot() {
		if obs, ok := m.(WorkerDeathObserver); ok {
			safeCall(func() { obs.OnWorkerDeath(workerID, reason) })
		}
	}
}

// dispatchWorkerCreation/dispatchWorkerDeath are free functions so
// workerSupervisor can call them against a possibly-nil *eventManager
// without a nil check at every call site.
func dispatchWorkerCreation(ev *eventManager, workerID string) {
	ev.dispatchWorkerCreation(workerID)
}

func dispatchWorkerDeath(ev *eventManager, workerID string, reason error) {
	ev.dispatchWorkerDeath(workerID, reason)
}

// safeCall recovers a panicking callback and logs it instead of
// letting it propagate into the dispatching worker/supervisor
// goroutine.
func safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			warnf("callback module panicked: %v", fmt.Errorf("%v", r))
		}
	}()
	fn()
}

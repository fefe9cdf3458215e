package pool

import "sync"

// Registry is the process-wide pool registry. It keeps two maps: pools,
// the published descriptor-carrying entries Lookup reads; and
// supervisors, which tracks every live supervisor independent of
// whether its descriptor entry is still published. The split exists to
// support Rebuild: a stale or deleted registry entry must be
// reconstructable as long as the supervisor itself is still alive,
// something a single map can't express once its entry is gone. An
// explicit, swappable registry type (rather than a single global map)
// also lets tests run isolated registries in parallel.
type Registry struct {
	mu          sync.RWMutex
	pools       map[string]*Pool
	supervisors map[string]*supervisor
}

// NewRegistry returns an empty, independent registry.
func NewRegistry() *Registry {
	return &Registry{
		pools:       make(map[string]*Pool),
		supervisors: make(map[string]*supervisor),
	}
}

// DefaultRegistry is the process-wide registry the package-level
// functions (StartLink, BestWorker, ...) operate against.
var DefaultRegistry = NewRegistry()

// StartLink creates and registers a new pool under name, returning
// ErrAlreadyStarted if one is already registered: start and supervise,
// fail if already running.
func (r *Registry) StartLink(name string, opts ...Option) (*Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pools[name]; exists {
		return nil, ErrAlreadyStarted
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	desc := newDescriptor(name, o)
	p := &Pool{Descriptor: desc}
	p.sup = startSupervisor(name, o, func() { r.forget(name) })

	r.pools[name] = p
	r.supervisors[name] = p.sup
	return p, nil
}

// Lookup returns the named pool, or ErrNoProc if none is registered or
// it has since terminated.
func (r *Registry) Lookup(name string) (*Pool, error) {
	r.mu.RLock()
	p, ok := r.pools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNoProc
	}
	if !p.sup.Alive() {
		r.forget(name)
		return nil, ErrNoProc
	}
	return p, nil
}

// Rebuild reconstructs a Pool's Descriptor view purely from its name
// and the live supervisor's current worker count: on a cache miss with
// a live supervisor, it queries the supervisor for its worker slot
// count and publishes a fresh descriptor built from default options
// (none of the options given to StartLink are carried over). This path
// is rare, so it always warns.
func (r *Registry) Rebuild(name string) (*Pool, error) {
	if p, err := r.Lookup(name); err == nil {
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sup, ok := r.supervisors[name]
	if !ok || !sup.Alive() {
		delete(r.supervisors, name)
		return nil, ErrNoProc
	}

	size := sup.workers().Count()
	desc := newDescriptor(name, defaultOptions())
	desc.size = size
	desc.workerIDs = workerIDTable(name, size)

	p := &Pool{Descriptor: desc, sup: sup}
	r.pools[name] = p
	warnf("pool %s: descriptor rebuilt from registry", name)
	return p, nil
}

// Stop terminates and deregisters the named pool.
func (r *Registry) Stop(name string) error {
	p, err := r.Lookup(name)
	if err != nil {
		return err
	}
	p.sup.Terminate()
	return nil
}

func (r *Registry) forget(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pools, name)
	delete(r.supervisors, name)
}

// Names returns every currently registered pool name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.pools))
	for name := range r.pools {
		out = append(out, name)
	}
	return out
}

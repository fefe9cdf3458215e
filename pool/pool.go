package pool

import "time"

// BestWorker, RandomWorker, NextWorker, HashWorker, and
// NextAvailableWorker return a worker identifier; pair the result with
// Cast or Call to actually hand the selected worker a task.

// Dispatch selects a worker via strategy and hands it t, returning a
// reply for the strategies that produce one. hashKey is only consulted
// for StrategyHashWorker; timeout is only consulted for the
// available-worker strategies. This is the Strategy-enum counterpart
// to calling BestWorker/Cast etc. directly by name, for callers that
// pick a strategy dynamically (e.g. from config).
func (p *Pool) Dispatch(s Strategy, t Task, hashKey string, timeout time.Duration) (any, error) {
	switch s {
	case StrategyBestWorker:
		id, err := p.BestWorker()
		if err != nil {
			return nil, err
		}
		return nil, p.Cast(id, t)
	case StrategyRandomWorker:
		id, err := p.RandomWorker()
		if err != nil {
			return nil, err
		}
		return nil, p.Cast(id, t)
	case StrategyNextWorker:
		id, err := p.NextWorker()
		if err != nil {
			return nil, err
		}
		return nil, p.Cast(id, t)
	case StrategyHashWorker:
		id, err := p.HashWorker(hashKey)
		if err != nil {
			return nil, err
		}
		return nil, p.Cast(id, t)
	case StrategyNextAvailableWorker:
		id, err := p.NextAvailableWorker()
		if err != nil {
			return nil, err
		}
		return nil, p.Cast(id, t)
	case StrategyCallAvailableWorker:
		return p.CallAvailableWorker(t, timeout)
	case StrategySendRequestAvailableWorker:
		h, err := p.SendRequestAvailableWorker(t, timeout)
		if err != nil {
			return nil, err
		}
		return h, nil
	case StrategyCastToAvailableWorker:
		return nil, p.CastToAvailableWorker(t)
	case StrategyBroadcast:
		return nil, p.Broadcast(t)
	default:
		return nil, ErrInvalidRequest
	}
}

// BestWorker samples mailbox lengths starting from a random index and
// returns the shortest one observed.
func (p *Pool) BestWorker() (string, error) {
	if !p.sup.Alive() {
		return "", noWorkersf(p.Descriptor.Name())
	}
	id := bestWorker(p.sup.workers())
	if id == "" {
		return "", noWorkersf(p.Descriptor.Name())
	}
	return id, nil
}

// RandomWorker returns a uniformly random worker identifier.
func (p *Pool) RandomWorker() (string, error) {
	if !p.sup.Alive() {
		return "", noWorkersf(p.Descriptor.Name())
	}
	id := randomWorker(p.sup.workers())
	if id == "" {
		return "", noWorkersf(p.Descriptor.Name())
	}
	return id, nil
}

// NextWorker advances the pool's round-robin cursor by one CAS attempt
// and returns the worker it pointed at.
func (p *Pool) NextWorker() (string, error) {
	if !p.sup.Alive() {
		return "", noWorkersf(p.Descriptor.Name())
	}
	return nextWorker(p.Descriptor), nil
}

// HashWorker deterministically maps key to the same worker for a given
// pool size.
func (p *Pool) HashWorker(key string) (string, error) {
	if !p.sup.Alive() {
		return "", noWorkersf(p.Descriptor.Name())
	}
	return hashWorker(p.Descriptor, key), nil
}

// NextAvailableWorker returns the first idle, empty-mailbox worker
// found while probing from a random start, or ErrNoAvailableWorkers.
func (p *Pool) NextAvailableWorker() (string, error) {
	if !p.sup.Alive() {
		return "", noWorkersf(p.Descriptor.Name())
	}
	id := nextAvailableWorker(p.sup.workers())
	if id == "" {
		return "", ErrNoAvailableWorkers
	}
	return id, nil
}

// Cast hands t to the named worker's mailbox, fire-and-forget. Never
// blocks the caller: the mailbox is an unbounded FIFO, so there is
// nothing to wait on.
func (p *Pool) Cast(workerID string, t Task) error {
	if !p.sup.Alive() {
		return noWorkersf(p.Descriptor.Name())
	}
	w := p.workerByID(workerID)
	if w == nil {
		return noWorkersf(p.Descriptor.Name())
	}
	sub := submission{task: t, kind: kindCast, submitTime: time.Now().UnixNano()}
	if !w.box.Enqueue(sub) {
		return ErrPoolShutdown
	}
	return nil
}

// Call hands t to the named worker and blocks for its reply, up to
// timeout (<=0 means wait forever).
func (p *Pool) Call(workerID string, t Task, timeout time.Duration) (any, error) {
	if !p.sup.Alive() {
		return nil, noWorkersf(p.Descriptor.Name())
	}
	w := p.workerByID(workerID)
	if w == nil {
		return nil, noWorkersf(p.Descriptor.Name())
	}

	reply := make(chan Reply, 1)
	var deadline int64
	if timeout > 0 {
		deadline = time.Now().Add(timeout).UnixNano()
	}
	sub := submission{task: t, kind: kindCall, submitTime: time.Now().UnixNano(), deadline: deadline, replyTo: reply}
	if !w.box.Enqueue(sub) {
		return nil, ErrPoolShutdown
	}

	r := awaitReply(reply, timeout)
	return r.Value, r.Err
}

func (p *Pool) workerByID(id string) *workerUnit {
	ws := p.sup.workers()
	for i := 0; i < ws.Count(); i++ {
		if w := ws.WorkerAt(i); w != nil && w.id == id {
			return w
		}
	}
	return nil
}

// CallAvailableWorker dispatches t through the queue manager and
// blocks for a reply up to timeout. A timeout<=0 fails immediately
// rather than queueing if no worker is ready.
func (p *Pool) CallAvailableWorker(t Task, timeout time.Duration) (any, error) {
	if !p.sup.Alive() {
		return nil, noWorkersf(p.Descriptor.Name())
	}
	if lim := p.Descriptor.opts.rateLimiter; lim != nil && !lim.Allow() {
		return nil, ErrTimeout
	}

	reply := make(chan Reply, 1)
	var deadline int64
	if timeout > 0 {
		deadline = time.Now().Add(timeout).UnixNano()
	}
	sub := submission{task: t, kind: kindCall, submitTime: time.Now().UnixNano(), deadline: deadline, replyTo: reply}
	p.sup.queueManagerHandle().submit(sub, timeout <= 0)

	r := awaitReply(reply, timeout)
	return r.Value, r.Err
}

// RequestHandle is the asynchronous handle returned by
// SendRequestAvailableWorker; Wait blocks for the eventual reply.
type RequestHandle struct {
	reply chan Reply
}

// Wait blocks until the reply arrives: the task's result once a worker
// has run it, or ErrTimeout if no worker was matched before the
// deadline fixed at submission time. Wait itself sets no timer, so once
// a worker has the task it waits for as long as the task runs.
func (h *RequestHandle) Wait() (any, error) {
	r := <-h.reply
	return r.Value, r.Err
}

// SendRequestAvailableWorker is the non-blocking counterpart to
// CallAvailableWorker: it returns immediately with a handle whose
// timeout covers only the queueing interval, not execution. The
// asymmetry with CallAvailableWorker (whose timeout bounds the whole
// queue-plus-execution path) is intentional: once a worker has picked
// the task up there is no caller left waiting synchronously to give up
// on.
func (p *Pool) SendRequestAvailableWorker(t Task, timeout time.Duration) (*RequestHandle, error) {
	if !p.sup.Alive() {
		return nil, noWorkersf(p.Descriptor.Name())
	}

	reply := make(chan Reply, 1)
	var deadline int64
	if timeout > 0 {
		deadline = time.Now().Add(timeout).UnixNano()
	}
	sub := submission{task: t, kind: kindSendRequest, submitTime: time.Now().UnixNano(), deadline: deadline, replyTo: reply}
	p.sup.queueManagerHandle().submit(sub, timeout <= 0)

	return &RequestHandle{reply: reply}, nil
}

// CastToAvailableWorker enqueues t through the queue manager and never
// fails for the caller.
func (p *Pool) CastToAvailableWorker(t Task) error {
	if !p.sup.Alive() {
		return noWorkersf(p.Descriptor.Name())
	}
	sub := submission{task: t, kind: kindCast, submitTime: time.Now().UnixNano()}
	p.sup.queueManagerHandle().submit(sub, false)
	return nil
}

// Broadcast casts t to every worker in the pool and returns once every
// live slot has it queued. Like any cast it never waits on a reply and
// always succeeds once the pool itself is alive; a slot that hasn't
// been (re)spawned is skipped silently.
func (p *Pool) Broadcast(t Task) error {
	if !p.sup.Alive() {
		return noWorkersf(p.Descriptor.Name())
	}
	broadcast(p.sup.workers(), t)
	return nil
}

// AddCallbackModule registers m with the pool's event manager, a no-op
// if callbacks were not enabled at StartLink time.
func (p *Pool) AddCallbackModule(m CallbackModule) {
	p.sup.eventManagerHandle().Register(m)
}

// RemoveCallbackModule deregisters the module with the given identity.
func (p *Pool) RemoveCallbackModule(identity string) {
	p.sup.eventManagerHandle().Remove(identity)
}

// Stop terminates the pool and removes it from its registry.
func (p *Pool) Stop() {
	p.sup.Terminate()
}

// GetWorkers returns the pool's worker identifier table.
func (p *Pool) GetWorkers() []string {
	out := make([]string, p.Descriptor.Size())
	for i := range out {
		out[i] = p.Descriptor.WorkerAt(i + 1)
	}
	return out
}

// package-level convenience wrappers bound to DefaultRegistry, for
// callers that address a pool by name instead of holding its *Pool.

// StartLink starts and registers a pool in the default registry.
func StartLink(name string, opts ...Option) (*Pool, error) {
	return DefaultRegistry.StartLink(name, opts...)
}

func lookupOrWarn(name string) (*Pool, error) {
	p, err := DefaultRegistry.Lookup(name)
	if err == nil {
		return p, nil
	}
	p, err = DefaultRegistry.Rebuild(name)
	if err != nil {
		return nil, noWorkersf(name)
	}
	return p, nil
}

// BestWorker looks up name in the default registry and delegates.
func BestWorker(name string) (string, error) {
	p, err := lookupOrWarn(name)
	if err != nil {
		return "", err
	}
	return p.BestWorker()
}

// RandomWorker looks up name in the default registry and delegates.
func RandomWorker(name string) (string, error) {
	p, err := lookupOrWarn(name)
	if err != nil {
		return "", err
	}
	return p.RandomWorker()
}

// NextWorker looks up name in the default registry and delegates.
func NextWorker(name string) (string, error) {
	p, err := lookupOrWarn(name)
	if err != nil {
		return "", err
	}
	return p.NextWorker()
}

// HashWorker looks up name in the default registry and delegates.
func HashWorker(name, key string) (string, error) {
	p, err := lookupOrWarn(name)
	if err != nil {
		return "", err
	}
	return p.HashWorker(key)
}

// NextAvailableWorker looks up name in the default registry and
// delegates.
func NextAvailableWorker(name string) (string, error) {
	p, err := lookupOrWarn(name)
	if err != nil {
		return "", err
	}
	return p.NextAvailableWorker()
}

// CallAvailableWorker looks up name in the default registry and
// delegates.
func CallAvailableWorker(name string, t Task, timeout time.Duration) (any, error) {
	p, err := lookupOrWarn(name)
	if err != nil {
		return nil, err
	}
	return p.CallAvailableWorker(t, timeout)
}

// SendRequestAvailableWorker looks up name in the default registry and
// delegates.
func SendRequestAvailableWorker(name string, t Task, timeout time.Duration) (*RequestHandle, error) {
	p, err := lookupOrWarn(name)
	if err != nil {
		return nil, err
	}
	return p.SendRequestAvailableWorker(t, timeout)
}

// CastToAvailableWorker looks up name in the default registry and
// delegates.
func CastToAvailableWorker(name string, t Task) error {
	p, err := lookupOrWarn(name)
	if err != nil {
		return err
	}
	return p.CastToAvailableWorker(t)
}

// Broadcast looks up name in the default registry and delegates.
func Broadcast(name string, t Task) error {
	p, err := lookupOrWarn(name)
	if err != nil {
		return err
	}
	return p.Broadcast(t)
}

// Stop looks up name in the default registry and terminates it.
func Stop(name string) error {
	return DefaultRegistry.Stop(name)
}

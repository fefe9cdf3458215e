// Package pool implements a supervised, in-process worker pool: a
// named group of long-lived worker units fed through a choice of
// dispatch strategies, backed by a central queue manager for the
// "available worker" strategies and a process-wide registry for
// lookup by name.
//
// Starting a pool:
//
//	p, err := pool.StartLink("ingest", pool.WithWorkers(16))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Stop()
//
// Dispatching work:
//
//	id, err := p.NextWorker()
//	if err != nil {
//		return err
//	}
//	if err := p.Cast(id, pool.TaskFunc(doWork)); err != nil {
//		return err
//	}
//
//	val, err := p.CallAvailableWorker(pool.TaskFunc(doWork), 200*time.Millisecond)
//
// The worker-selection strategies, the available-worker operations and
// Broadcast also exist as package-level wrappers bound to a default,
// process-wide registry (pool.NextWorker("ingest"), ...) for callers
// that don't want to hold onto the *Pool value. Cast, Call and Dispatch
// are methods on *Pool only.
package pool

package pool

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// Strategy identifies one of the pool's dispatch strategies.
type Strategy int

const (
	StrategyBestWorker Strategy = iota
	StrategyRandomWorker
	StrategyNextWorker
	StrategyHashWorker
	StrategyNextAvailableWorker
	StrategyCallAvailableWorker
	StrategySendRequestAvailableWorker
	StrategyCastToAvailableWorker
	StrategyBroadcast
)

// bestWorker probes every worker starting from a random index and
// returns the one with the shortest mailbox. Starting from a random
// index avoids always favoring worker 1 when several workers are tied
// for shortest queue across repeated calls.
func bestWorker(ws *workerSupervisor) string {
	n := ws.Count()
	if n == 0 {
		return ""
	}

	start := rand.Intn(n)
	bestIdx := -1
	bestLen := -1

	for i := 0; i < n; i++ {
		idx := (start + i) % n
		w := ws.WorkerAt(idx)
		if w == nil {
			continue
		}
		l := w.mailboxLen()
		if bestLen == -1 || l < bestLen {
			bestLen = l
			bestIdx = idx
		}
		if l == 0 {
			break // can't do better than an empty mailbox
		}
	}

	if bestIdx == -1 {
		return ""
	}
	return ws.WorkerAt(bestIdx).id
}

// randomWorker picks a uniformly random worker, independent of load or
// history.
func randomWorker(ws *workerSupervisor) string {
	n := ws.Count()
	if n == 0 {
		return ""
	}
	w := ws.WorkerAt(rand.Intn(n))
	if w == nil {
		return ""
	}
	return w.id
}

// nextWorker advances the descriptor's shared round-robin cursor with
// a single CAS attempt and no retry loop: under contention two callers
// may briefly read the same starting value, trading perfect fairness
// for a strategy that never blocks.
func nextWorker(d *Descriptor) string {
	cur := d.cursor.Load()
	next := cur + 1
	if next > uint64(d.size) {
		next = 1
	}
	d.cursor.CompareAndSwap(cur, next) // single attempt only, no retry
	return d.WorkerAt(int(cur))
}

// hashWorker deterministically maps a key to the same worker on every
// call, hashing the key with FNV-1a.
func hashWorker(d *Descriptor, key string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	n := int(h.Sum64() % uint64(d.size))
	return d.WorkerAt(n + 1)
}

// nextAvailableWorker probes from a random start for the first worker
// that is both idle and empty, falling back to "" if none qualifies
// rather than blocking — callers that want to wait belong on the
// queue-manager-backed strategies instead.
func nextAvailableWorker(ws *workerSupervisor) string {
	n := ws.Count()
	if n == 0 {
		return ""
	}
	start := rand.Intn(n)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		w := ws.WorkerAt(idx)
		if w != nil && w.isAvailable() {
			return w.id
		}
	}
	return ""
}

// broadcast casts t to every worker slot, skipping any slot that has
// not been (re)spawned. It never waits on a reply and never fails: a
// worker whose mailbox has just closed simply drops the submission,
// the same as any other cast.
func broadcast(ws *workerSupervisor, t Task) {
	n := ws.Count()
	for i := 0; i < n; i++ {
		w := ws.WorkerAt(i)
		if w == nil {
			continue
		}
		w.box.Enqueue(submission{task: t, kind: kindCast, submitTime: time.Now().UnixNano()})
	}
}

func awaitReply(reply chan Reply, timeout time.Duration) Reply {
	if timeout <= 0 {
		return <-reply
	}
	select {
	case r := <-reply:
		return r
	case <-time.After(timeout):
		return Reply{Err: ErrTimeout}
	}
}

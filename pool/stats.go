package pool

import (
	"runtime"
	"time"
)

// WorkerStat is one worker unit's entry in a Snapshot.
// CurrentPayload and ElapsedSeconds are only meaningful when Busy is
// true; an idle worker's function/location is deliberately omitted
// rather than reported as a generic loop frame. Memory is an
// approximate per-worker share of the process heap growth since the
// previous snapshot, not a precise per-worker allocation figure —
// runtime.MemStats has no notion of which goroutine owns which byte.
type WorkerStat struct {
	WorkerID       string
	MailboxLen     int
	Busy           bool
	CurrentPayload any
	ElapsedSeconds float64
	Memory         int64
}

// Snapshot is the stats collector's output for a single pool.
// TotalMessageQueueLen sums every worker's mailbox length plus the
// queue manager's own pending-task count, since a task that hasn't
// matched a worker yet is still "queued" from the caller's perspective.
type Snapshot struct {
	PoolName             string
	SupervisorID         string
	Options              map[string]any
	Size                 int
	Cursor               uint64
	TotalMessageQueueLen int
	Workers              []WorkerStat
}

// Stats produces a point-in-time snapshot. Workers whose slot has not
// yet been (re)spawned are omitted rather than reported with zeroed
// fields: a worker whose process has disappeared is omitted, not
// errored on.
func (p *Pool) Stats() Snapshot {
	ws := p.sup.workers()
	snap := Snapshot{
		PoolName:     p.Descriptor.Name(),
		SupervisorID: p.Descriptor.ID(),
		Options:      p.Descriptor.Options(),
		Size:         p.Descriptor.Size(),
		Cursor:       p.Descriptor.Cursor(),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	prevHeap := p.sup.lastHeapAlloc.Swap(ms.HeapAlloc)
	var heapDelta int64
	if prevHeap != 0 {
		heapDelta = int64(ms.HeapAlloc) - int64(prevHeap)
	}

	n := ws.Count()
	var perWorker int64
	if n > 0 {
		perWorker = heapDelta / int64(n)
	}

	total := p.sup.queueManagerHandle().pendingTaskCount()
	for i := 0; i < n; i++ {
		w := ws.WorkerAt(i)
		if w == nil {
			continue
		}

		mlen := w.mailboxLen()
		total += mlen

		stat := WorkerStat{WorkerID: w.id, MailboxLen: mlen, Memory: perWorker}
		if marker := w.currentTask(); marker != nil {
			stat.Busy = true
			stat.CurrentPayload = marker.payload
			stat.ElapsedSeconds = time.Since(marker.startedAt).Seconds()
		}
		snap.Workers = append(snap.Workers, stat)
	}

	snap.TotalMessageQueueLen = total
	return snap
}

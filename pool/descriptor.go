package pool

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Descriptor is the read-mostly Pool Descriptor from the data model:
// published once at StartLink, then read by every dispatch call. Only
// Cursor is mutated after publication.
type Descriptor struct {
	id        uuid.UUID
	name      string
	size      int
	cursor    atomic.Uint64 // values live in [1, size]
	workerIDs []string      // immutable for the pool's lifetime
	opts      *options
	birth     time.Time
}

func newDescriptor(name string, opts *options) *Descriptor {
	d := &Descriptor{
		id:        uuid.New(),
		name:      name,
		size:      opts.workers,
		workerIDs: workerIDTable(name, opts.workers),
		opts:      opts,
		birth:     time.Now(),
	}
	d.cursor.Store(1)
	return d
}

// workerIDTable builds the deterministic (pool-name, index) -> worker-id
// mapping the registry relies on to reconstruct a descriptor from just
// a name and a live worker count.
func workerIDTable(name string, size int) []string {
	ids := make([]string, size)
	for i := range ids {
		ids[i] = workerID(name, i)
	}
	return ids
}

func workerID(name string, index int) string {
	return fmt.Sprintf("%s-worker-%d", name, index+1)
}

// ID returns the descriptor's unique identifier, reported by stats as
// the pool's "supervisor identifier".
func (d *Descriptor) ID() string { return d.id.String() }

// Name returns the pool's name.
func (d *Descriptor) Name() string { return d.name }

// Size returns the pool's fixed worker count.
func (d *Descriptor) Size() int { return d.size }

// Cursor returns the current round-robin cursor value, in [1, Size()].
func (d *Descriptor) Cursor() uint64 { return d.cursor.Load() }

// WorkerAt returns the worker identifier at 1-based index n, wrapping
// into range. Exported so client-authored custom strategies can pick a
// worker from the descriptor the same way the built-in strategies do.
func (d *Descriptor) WorkerAt(n int) string {
	idx := ((n - 1) % d.size + d.size) % d.size
	return d.workerIDs[idx]
}

// Options returns the normalized, read-only options the pool was
// started with.
func (d *Descriptor) Options() map[string]any { return d.opts.normalized() }

// Birth returns the pool's start time.
func (d *Descriptor) Birth() time.Time { return d.birth }

//go:build linux

// Package affinity optionally pins worker unit OS threads to CPU cores,
// keyed by a worker's index within its pool.
package affinity

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCore pins the current OS thread to a specific CPU core.
// Must be called after runtime.LockOSThread().
func pinToCore(cpuID int) error {
	numCPU := runtime.NumCPU()
	if cpuID < 0 || cpuID >= numCPU {
		cpuID %= numCPU
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)

	return unix.SchedSetaffinity(0, &mask)
}

// Pin locks the calling goroutine to its OS thread and pins that thread
// to CPU core (workerIndex mod NumCPU). It returns a cleanup function
// that must be deferred to release the thread lock.
func Pin(workerIndex int) func() {
	runtime.LockOSThread()
	_ = pinToCore(workerIndex)

	return func() {
		runtime.UnlockOSThread()
	}
}

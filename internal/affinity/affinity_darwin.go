//go:build darwin

package affinity

import "runtime"

// Pin locks the calling goroutine to its OS thread. CPU-core pinning
// itself is not exposed by Darwin, so this only provides the thread
// lock half of the contract.
func Pin(workerIndex int) func() {
	runtime.LockOSThread()

	return func() {
		runtime.UnlockOSThread()
	}
}

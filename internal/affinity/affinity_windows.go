//go:build windows

package affinity

import (
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

func pinToCore(cpuID int) error {
	numCPU := runtime.NumCPU()
	if cpuID < 0 || cpuID >= numCPU {
		cpuID %= numCPU
	}

	handle, _, _ := getCurrentThread.Call()
	mask := uintptr(1 << cpuID)

	prevMask, _, err := setThreadAffinityMask.Call(handle, mask)
	if prevMask == 0 {
		return err
	}
	return nil
}

// Pin locks the calling goroutine to its OS thread and pins that thread
// to CPU core (workerIndex mod NumCPU).
func Pin(workerIndex int) func() {
	runtime.LockOSThread()
	_ = pinToCore(workerIndex)

	return func() {
		runtime.UnlockOSThread()
	}
}

//go:build !debug

package pool

// debugLog is a no-op without -tags debug, so call sites never pay for
// argument formatting in release builds.
func debugLog(format string, args ...any) {}

package pool

import (
	"fmt"
	"log"
	"os"
)

var warnLogger = log.New(os.Stderr, "[wpool] WARN ", log.Ltime)

// warnf emits the always-on warnings for conditions worth surfacing
// explicitly (registry rebuild, task overrun). Unlike debugLog these
// are not gated behind a build tag: an operator needs to see them by
// default.
func warnf(format string, args ...any) {
	_ = warnLogger.Output(2, fmt.Sprintf(format, args...))
}

package signal

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// Reporter receives panics recovered during subscriber invocation.
// The stack is captured at the recovery point.
type Reporter func(value any, stack []byte)

var (
	reporterMu sync.RWMutex
	reporter   Reporter = func(value any, stack []byte) {
		slog.Error("signal subscriber panicked",
			"panic", value,
			"stack", string(stack))
	}
)

// SetReporter replaces the package panic reporter. A nil reporter silences
// reports. The reporter runs in whichever goroutine the subscriber ran in.
func SetReporter(r Reporter) {
	reporterMu.Lock()
	reporter = r
	reporterMu.Unlock()
}

func reportPanic(value any) {
	reporterMu.RLock()
	r := reporter
	reporterMu.RUnlock()

	if r != nil {
		r(value, debug.Stack())
	}
}

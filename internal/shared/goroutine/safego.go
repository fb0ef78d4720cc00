// Package goroutine provides utilities for safely launching goroutines with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

// SafeGo launches fn on its own goroutine. A panic is logged with its stack
// and then swallowed so the process keeps running.
func SafeGo(log logger.Interface, name string, fn func()) {
	go Run(log, name, fn)
}

// Run calls fn on the current goroutine with the same recovery as SafeGo and
// reports whether fn panicked.
func Run(log logger.Interface, name string, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			log.Errorw("goroutine panicked",
				"goroutine", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
	return false
}

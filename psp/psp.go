// Package psp is the platform panic hook: the last resort a driver calls
// on an unrecoverable error. It accepts an opaque code, halts execution
// and never returns. It does not interpret the code or classify resets;
// the DMA core itself never calls it.
package psp

import (
	"sync"

	"dmacore-go/logx"
)

var (
	mu   sync.Mutex
	hook func(code int32)
)

// SetHook installs the halt hook. The hook must not return; Panic blocks
// forever if it does. Hosts and tests install their own.
func SetHook(h func(code int32)) {
	mu.Lock()
	hook = h
	mu.Unlock()
}

// Panic halts the platform with an opaque error code. It never returns:
// with no hook installed, or a hook that comes back, it parks the calling
// goroutine for good, the hosted equivalent of a halt loop.
func Panic(code int32) {
	logx.Logger("psp").Error("platform panic", "code", code)
	mu.Lock()
	h := hook
	mu.Unlock()
	if h != nil {
		h(code)
	}
	select {}
}

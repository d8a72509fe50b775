// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch implements the single entry point every breakpoint hit
// funnels through: reentry guarding, hook lookup, handler invocation, and
// the "no leaked pending failure" postcondition (spec.md §4.4).
package dispatch // import "github.com/jvmtrace/agent/dispatch"

import (
	"sync"

	"github.com/jvmtrace/agent/vmhost"
)

// RecursionGuard is spec.md §3's RecursionFlag, made explicit per thread
// rather than modeled as goroutine-local state: the host runtime delivers
// events on arbitrary native threads the Go scheduler does not own, so
// "current goroutine" is not a stand-in for "current VM thread".
type RecursionGuard struct {
	mu     sync.Mutex
	active map[vmhost.ThreadID]bool
}

// NewRecursionGuard returns a guard with no thread marked active.
func NewRecursionGuard() *RecursionGuard {
	return &RecursionGuard{active: make(map[vmhost.ThreadID]bool)}
}

// TryEnter reports whether thread was not already inside a handler, and if
// so marks it active. A false return means the current call is itself the
// product of a handler calling back into instrumented code on the same
// thread, and dispatch must return immediately without invoking anything.
func (g *RecursionGuard) TryEnter(thread vmhost.ThreadID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[thread] {
		return false
	}
	g.active[thread] = true
	return true
}

// Exit clears thread's active flag. Callers must invoke this on every exit
// path from the guarded section, including a propagated panic.
func (g *RecursionGuard) Exit(thread vmhost.ThreadID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, thread)
}

// Active reports whether thread is currently inside a guarded section.
// Exposed for tests asserting the "at most one handler per thread at a
// time" property (spec.md §8).
func (g *RecursionGuard) Active(thread vmhost.ThreadID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active[thread]
}

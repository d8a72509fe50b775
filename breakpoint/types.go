// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package breakpoint implements the static breakpoint table, the installer
// that resolves it against a running host, and the installed-method-hook
// registry DispatchCore looks entries up in (spec.md §3, §4.1, §4.2).
package breakpoint // import "github.com/jvmtrace/agent/breakpoint"

import (
	"sync"

	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// Hit describes one breakpoint-hit event handed to a Handler: the thread it
// fired on and the intercepted method. It carries no bytecode index; the
// loadclass filter reads the caller's bci from the caller frame instead.
type Hit struct {
	Thread vmhost.ThreadID
	Method vmhost.MethodID
}

// Handler is the per-hook callback HandlerSet implements one of per hook
// kind (spec.md §4.1). It receives the live VM so it can read arguments,
// walk frames, and re-invoke the intercepted method, and the trace emitter
// to report what it found. The returned bool is advisory, matching
// spec.md §4.4's "handler's return value is advisory".
type Handler interface {
	Handle(vm vmhost.VM, emit trace.Emitter, hit Hit) bool
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(vm vmhost.VM, emit trace.Emitter, hit Hit) bool

func (f HandlerFunc) Handle(vm vmhost.VM, emit trace.Emitter, hit Hit) bool {
	return f(vm, emit, hit)
}

// HookSpec is one immutable, process-static entry of the breakpoint table:
// a (class, method, descriptor) triple naming the method to intercept, the
// handler that processes hits on it, and whether its absence from the host
// runtime is tolerated.
type HookSpec struct {
	ClassName  string
	MethodName string
	Descriptor string
	Handler    Handler
	Optional   bool
}

// Hook is a HookSpec resolved against a live runtime: a tracked class
// reference and an opaque, stable method identity. Hooks are created at
// install time and released at agent unload.
type Hook struct {
	Spec   HookSpec
	Class  vmhost.ClassRef
	Method vmhost.MethodID
}

// InstalledSet maps a resolved method identity to its Hook. It is
// insert-only during the single-threaded install phase; when classloader
// discovery is enabled (spec.md §4.6) entries are also inserted
// concurrently as new classloader subclasses are discovered, so every
// mutation and lookup here is mutex-guarded regardless of mode — the
// modest lock overhead during the single-threaded phase is not worth a
// second lockless code path.
type InstalledSet struct {
	mu      sync.RWMutex
	entries map[vmhost.MethodID]*Hook
}

// NewInstalledSet returns an empty set.
func NewInstalledSet() *InstalledSet {
	return &InstalledSet{entries: make(map[vmhost.MethodID]*Hook)}
}

// Insert adds hook keyed by its method identity. Insert panics if the
// identity is already present: spec.md §3 states this is a fatal bug. Both
// production callers check Contains first: Installer translates the
// condition into a logged, process-aborting invariant violation, and
// classloaderdiscovery skips a method that is already installed.
func (s *InstalledSet) Insert(hook *Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[hook.Method]; exists {
		panic("breakpoint: duplicate method identity inserted into InstalledSet")
	}
	s.entries[hook.Method] = hook
}

// Lookup returns the Hook installed for method, if any.
func (s *InstalledSet) Lookup(method vmhost.MethodID) (*Hook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.entries[method]
	return h, ok
}

// Contains reports whether method has an installed Hook, without exposing it.
func (s *InstalledSet) Contains(method vmhost.MethodID) bool {
	_, ok := s.Lookup(method)
	return ok
}

// All returns every installed Hook. Used at agent unload to release
// tracked class references.
func (s *InstalledSet) All() []*Hook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Hook, 0, len(s.entries))
	for _, h := range s.entries {
		out = append(out, h)
	}
	return out
}

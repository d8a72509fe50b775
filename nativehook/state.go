// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package nativehook

import (
	"github.com/jvmtrace/agent/internal/agentlog"
	"github.com/jvmtrace/agent/internal/xsync"
	"github.com/jvmtrace/agent/vmhost"
)

// tables is the data a single mutex protects: the installed native hooks,
// the bindings that arrived before their hook existed, and a reentrancy
// bit guarding the cyclic interaction between registering our replacement
// (which can itself raise a binding event) and handling binding events
// (spec.md §9 "Cyclic interaction").
type tables struct {
	installed map[vmhost.MethodID]*NativeHook
	pending   map[vmhost.MethodID]vmhost.NativeFunc
	// registering is set for the duration of a call to the host's native
	// method registration interface; OnBind treats an event that arrives
	// while it is set as caused by our own registration and ignores it.
	registering bool
}

// State is PendingBindings + NativeInstalledSet, guarded by the single
// mutex spec.md §4.3/§5 requires ("all reads/writes of PendingBindings and
// the NativeInstalledSet occur under a single mutex"). Using
// internal/xsync.RWMutex[T] rather than a bare sync.Mutex means the two
// maps have no name reachable without locking first.
type State struct {
	tables xsync.RWMutex[tables]
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		tables: xsync.NewRWMutex(tables{
			installed: make(map[vmhost.MethodID]*NativeHook),
			pending:   make(map[vmhost.MethodID]vmhost.NativeFunc),
		}),
	}
}

// OnBind handles a "native method about to bind" event (spec.md §4.3 steps
// 2 and 4). original is the entry the runtime is about to call; replacement
// is what the caller should substitute in its place, if anything.
//
// If registration is in progress (the reentrant case), the event is
// ignored entirely: it was raised by our own RegisterNativeMethod call.
// If a NativeHook already exists for method, its original-entry cell is
// set if it is still empty (spec.md §3's "once set, read-only for the
// lifetime" invariant: a later binding event never overwrites it) and the
// hook's replacement is returned for the runtime to install. Otherwise
// the binding is recorded in PendingBindings for Install to pick up later.
func (s *State) OnBind(method vmhost.MethodID, original vmhost.NativeFunc) (replacement vmhost.NativeFunc, ok bool) {
	t := s.tables.WLock()
	defer s.tables.WUnlock(&t)

	if t.registering {
		return nil, false
	}
	if hook, exists := t.installed[method]; exists {
		if hook.original == nil {
			hook.original = original
		}
		return hook.replacement, true
	}
	t.pending[method] = original
	return nil, false
}

// install registers hook under the mutex: if a pending binding already
// exists for its method, the original entry is consumed immediately;
// otherwise the hook waits with a nil original until a later OnBind call
// supplies one. install is fatal on a duplicate method identity, matching
// breakpoint.InstalledSet's invariant.
func (s *State) install(hook *NativeHook) {
	t := s.tables.WLock()
	defer s.tables.WUnlock(&t)

	if _, exists := t.installed[hook.Method]; exists {
		agentlog.Fatalf("nativehook: duplicate method identity for %s.%s%s",
			hook.Spec.ClassName, hook.Spec.MethodName, hook.Spec.Descriptor)
	}
	if original, pending := t.pending[hook.Method]; pending {
		hook.original = original
		delete(t.pending, hook.Method)
	}
	t.installed[hook.Method] = hook
}

// withRegistrationGuard runs fn with the reentrancy bit held, so that a
// binding event the runtime raises synchronously from inside fn (our own
// RegisterNativeMethod call triggering a fresh "about to bind" callback)
// is recognized by OnBind and ignored rather than recursing.
func (s *State) withRegistrationGuard(fn func() error) error {
	t := s.tables.WLock()
	t.registering = true
	s.tables.WUnlock(&t)

	err := fn()

	t = s.tables.WLock()
	t.registering = false
	s.tables.WUnlock(&t)
	return err
}

// Lookup returns the installed NativeHook for method, if any.
func (s *State) Lookup(method vmhost.MethodID) (*NativeHook, bool) {
	t := s.tables.RLock()
	defer s.tables.RUnlock(&t)
	h, ok := t.installed[method]
	return h, ok
}

// All returns every installed NativeHook, used at agent unload.
func (s *State) All() []*NativeHook {
	t := s.tables.RLock()
	defer s.tables.RUnlock(&t)
	out := make([]*NativeHook, 0, len(t.installed))
	for _, h := range t.installed {
		out = append(out, h)
	}
	return out
}

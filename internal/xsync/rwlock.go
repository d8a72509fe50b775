// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package xsync // import "github.com/jvmtrace/agent/internal/xsync"

import "sync"

// RWMutex is a thin wrapper around sync.RWMutex that hides away the data it protects to ensure it's
// not accidentally accessed without actually holding the lock.
//
// The design is inspired by how Rust implement its locks.
//
// Given Go's weak type system it's not able to provide perfect safety, but it at least clearly
// communicates to developers exactly which resources are protected by which lock without having to
// sift through documentation (or code, if documentation doesn't exist).
//
// This matters in particular for the native-method-bind path: the pending-bindings map and the
// native-hook table are both mutated from binding-event callbacks and from install, and spec.md
// §4.3/§5 requires a single mutex to guard both. Naively that looks like:
//
//	type nativeHookState struct {
//		mu       sync.Mutex
//		pending  map[MethodID]NativeFunc
//		installed map[MethodID]*NativeHook
//	}
//
//	func (s *nativeHookState) recordPending(m MethodID, fn NativeFunc) {
//		s.mu.Lock()
//		s.mu.Unlock() // <- oh no, forgot to write `defer`!
//		s.pending[m] = fn
//	}
//
//	func (s *nativeHookState) lookup(m MethodID) *NativeHook {
//		// oh no, forgot to take the lock entirely!
//		return s.installed[m]
//	}
//
// With xsync.RWMutex the protected fields have no name you can reach without locking first:
//
//	type nativeHookTables struct {
//		pending   map[MethodID]NativeFunc
//		installed map[MethodID]*NativeHook
//	}
//
//	type nativeHookState struct {
//		tables xsync.RWMutex[nativeHookTables]
//	}
//
//	func (s *nativeHookState) recordPending(m MethodID, fn NativeFunc) {
//		t := s.tables.WLock()
//		defer s.tables.WUnlock(&t)
//		t.pending[m] = fn
//	}
//
//	func (s *nativeHookState) lookup(m MethodID) *NativeHook {
//		t := s.tables.RLock()
//		defer s.tables.RUnlock(&t)
//		return t.installed[m]
//	}
type RWMutex[T any] struct {
	guarded T
	mutex   sync.RWMutex
}

// NewRWMutex creates a new read-write mutex.
func NewRWMutex[T any](guarded T) RWMutex[T] {
	return RWMutex[T]{
		guarded: guarded,
	}
}

// RLock locks the mutex for reading, returning a pointer to the protected data.
//
// The caller **must not** write to the data pointed to by the returned pointer.
//
// Further, the caller **must not** let the returned pointer leak out of the scope of the function
// where it was originally created, except for temporarily borrowing it to other functions. The
// caller must make sure that callees never save this pointer anywhere.
func (mtx *RWMutex[T]) RLock() *T {
	mtx.mutex.RLock()
	return &mtx.guarded
}

// RUnlock unlocks the mutex after previously being locked by RLock.
//
// Pass a reference to the pointer returned from RLock here to ensure it is invalidated.
func (mtx *RWMutex[T]) RUnlock(ref **T) {
	*ref = nil
	mtx.mutex.RUnlock()
}

// WLock locks the mutex for writing, returning a pointer to the protected data.
//
// The caller **must not** let the returned pointer leak out of the scope of the function where it
// was originally created, except for temporarily borrowing it to other functions. The caller must
// make sure that callees never save this pointer anywhere.
func (mtx *RWMutex[T]) WLock() *T {
	mtx.mutex.Lock()
	return &mtx.guarded
}

// WUnlock unlocks the mutex after previously being locked by WLock.
//
// Pass a reference to the pointer returned from WLock here to ensure it is invalidated.
func (mtx *RWMutex[T]) WUnlock(ref **T) {
	*ref = nil
	mtx.mutex.Unlock()
}

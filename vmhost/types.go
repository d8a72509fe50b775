// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package vmhost defines the capability surface the breakpoint interceptor
// needs from a managed runtime (JNI/JVMTI in a real HotSpot-like VM). The
// core packages (breakpoint, nativehook, dispatch, loadclass, handlers)
// depend only on the VM interface here, never on a concrete runtime, so
// they can be exercised against the in-memory fake in vmhost/fake.
package vmhost // import "github.com/jvmtrace/agent/vmhost"

import "github.com/jvmtrace/agent/internal/hash"

// ClassRef is an opaque, process-unique identifier for a resolved class.
// It plays the role of a tracked global reference: as long as a Hook holds
// one, the runtime must not reclaim the underlying class.
type ClassRef uint64

// Hash32 lets ClassRef key a freelru cache.
func (c ClassRef) Hash32() uint32 { return hash.Uint32(uint32(c)) }

// MethodID is an opaque, process-unique identifier for a resolved method,
// stable for the method's lifetime. It is the map key for InstalledSet and
// NativeInstalledSet.
type MethodID uint64

// Hash32 lets MethodID key a freelru cache or act as a sync.Map-free key.
func (m MethodID) Hash32() uint32 { return hash.Uint32(uint32(m)) }

// ThreadID identifies the OS/VM thread a hook fired on. The host runtime
// hands this to every event entry point explicitly; the interceptor never
// infers "current thread" implicitly, since the callback may run on an
// arbitrary native thread the Go runtime does not schedule.
type ThreadID uint64

// BCI is a bytecode index within a method's code array.
type BCI int32

// ObjectRef is an opaque handle to a runtime object: a receiver, an
// argument, a Class, a Field, a reflective Method, a String, and so on.
// Like ClassRef, it stands in for a JNI local/global reference.
type ObjectRef uint64

// NullRef is the sentinel used in place of the host runtime's null handle.
const NullRef ObjectRef = 0

// Frame describes one entry of a caller stack walk.
type Frame struct {
	Method MethodID
	BCI    BCI
}

// NativeFunc is the signature of a replacement native entry point the
// interceptor registers in place of a runtime-resolved native method. The
// runtime invokes it with the same receiver/argument shape it would have
// passed to the original entry.
type NativeFunc func(thread ThreadID, receiver ObjectRef, args []ObjectRef) (ObjectRef, bool)

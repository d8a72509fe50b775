// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package loadclass implements the heuristic classloader-callsite filter
// spec.md §4.5 requires for the optional loadClass hook: hooking loadClass
// directly would trace every VM-internal classload, so each callsite is
// classified as either an explicit user invocation or an internal one
// before any record is ever emitted for it. Only explicit decisions are
// remembered; a callsite classified internal is examined again, and
// rejected again, on each later hit.
package loadclass // import "github.com/jvmtrace/agent/loadclass"

import (
	"github.com/jvmtrace/agent/classfile"
	"github.com/jvmtrace/agent/internal/xsync"
	"github.com/jvmtrace/agent/vmhost"
)

// opInvokeVirtual is the JVMS invokevirtual opcode (0xb6). A loadClass hit
// whose caller bytecode at the recorded index is anything else did not
// originate from an explicit invocation (spec.md §4.5 step 4).
const opInvokeVirtual = 0xb6

// MethodLocation is a (method identity, bytecode index) pair: the key
// ExplicitCallSiteSet uses to remember "already classified explicit call
// sites" (spec.md §3). Equality and hash are structural, which a plain Go
// struct already gives us as a map key.
type MethodLocation struct {
	Method vmhost.MethodID
	BCI    vmhost.BCI
}

// ExplicitCallSiteSet is a concurrent, insert-only set of MethodLocation
// (spec.md §3, §5). Once a callsite is classified explicit, subsequent
// hits at the same location skip reclassification entirely (spec.md §8).
type ExplicitCallSiteSet struct {
	sites xsync.RWMutex[map[MethodLocation]struct{}]
}

// NewExplicitCallSiteSet returns an empty set.
func NewExplicitCallSiteSet() *ExplicitCallSiteSet {
	return &ExplicitCallSiteSet{sites: xsync.NewRWMutex(make(map[MethodLocation]struct{}))}
}

// Contains reports whether loc was already classified explicit.
func (s *ExplicitCallSiteSet) Contains(loc MethodLocation) bool {
	m := s.sites.RLock()
	defer s.sites.RUnlock(&m)
	_, ok := (*m)[loc]
	return ok
}

// Insert marks loc as classified explicit.
func (s *ExplicitCallSiteSet) Insert(loc MethodLocation) {
	m := s.sites.WLock()
	defer s.sites.WUnlock(&m)
	(*m)[loc] = struct{}{}
}

// Filter implements BytecodeCallsiteFilter (spec.md §4.5). VM supplies the
// stack, bytecode and constant-pool reads; Sites memoizes explicit
// decisions across hits; MethodName/Descriptor is the hooked signature (normally
// "loadClass"/"(Ljava/lang/String;)Ljava/lang/Class;") every explicit
// callsite's resolved constant-pool entry must match.
type Filter struct {
	VM         vmhost.VM
	Sites      *ExplicitCallSiteSet
	MethodName string
	Descriptor string
}

// Classify reports whether the hit on thread originated from an explicit
// user invocation of the hooked method, walking spec.md §4.5's seven
// steps. loaderClass is the resolved classloader type used to suppress
// recursive loader-to-loader calls (step 2).
func (f *Filter) Classify(thread vmhost.ThreadID, loaderClass vmhost.ClassRef) bool {
	frames := f.VM.CallerFrames(thread, 1)
	if len(frames) == 0 {
		return false
	}
	frame := frames[0]

	callerClass, _, _, ok := f.VM.DeclaringClass(frame.Method)
	if !ok {
		return false
	}
	if f.VM.IsAssignableFrom(callerClass, loaderClass) {
		// Recursive loader call: a classloader invoking loadClass on
		// itself or a sibling loader, not a user callsite.
		return false
	}

	loc := MethodLocation{Method: frame.Method, BCI: frame.BCI}
	if f.Sites.Contains(loc) {
		return true
	}

	code, release, ok := f.VM.Bytecode(frame.Method)
	if !ok {
		return false
	}
	defer release()

	idx := int(frame.BCI)
	if idx < 0 || idx+3 > len(code) || code[idx] != opInvokeVirtual {
		return false
	}
	poolIndex := int(code[idx+1])<<8 | int(code[idx+2])

	pool, releasePool, ok := f.VM.ConstantPool(callerClass)
	if !ok {
		return false
	}
	defer releasePool()

	ref, err := classfile.ReadMethodReference(pool, poolIndex)
	if err != nil {
		return false
	}
	if ref.Name != f.MethodName || ref.Descriptor != f.Descriptor {
		return false
	}

	f.Sites.Insert(loc)
	return true
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package nativehook implements hooking of native methods: instead of the
// runtime's hook facility, the interceptor substitutes the function
// pointer the runtime would otherwise call (spec.md §4.3).
package nativehook // import "github.com/jvmtrace/agent/nativehook"

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// Handler builds and emits the trace record for a native hook hit, after
// the replacement entry has already called through to the original
// implementation. receiver and args are exactly what the runtime passed
// the replacement entry — unlike a breakpoint.Handler, a native hook has
// no Java frame for ArgumentShim to read locals from, so the replacement
// entry hands its own call arguments straight through. success reports
// whether the original call completed without raising a failure. The
// returned bool is advisory, matching breakpoint.Handler's contract.
type Handler interface {
	Handle(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit,
		receiver vmhost.ObjectRef, args []vmhost.ObjectRef, success bool) bool
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit,
	receiver vmhost.ObjectRef, args []vmhost.ObjectRef, success bool) bool

func (f HandlerFunc) Handle(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit,
	receiver vmhost.ObjectRef, args []vmhost.ObjectRef, success bool) bool {
	return f(vm, emit, hit, receiver, args, success)
}

// NativeHookSpec is the native-method counterpart of breakpoint.HookSpec:
// immutable, process-static, installed at most once.
type NativeHookSpec struct {
	ClassName  string
	MethodName string
	Descriptor string
	Handler    Handler
	Optional   bool
}

// NativeHook is a resolved NativeHookSpec plus the cell holding the
// original native entry point, set exactly once by the binding event that
// supplies it (either before or after install — see State). Once set, the
// cell is never written again for the hook's lifetime.
type NativeHook struct {
	Spec   NativeHookSpec
	Class  vmhost.ClassRef
	Method vmhost.MethodID

	original    vmhost.NativeFunc
	replacement vmhost.NativeFunc
}

// Original returns the original native entry point, if a binding event has
// supplied one yet.
func (h *NativeHook) Original() (vmhost.NativeFunc, bool) {
	return h.original, h.original != nil
}

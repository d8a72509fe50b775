// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// traceOnlyListing builds a breakpoint.Handler for a zero-argument
// reflective listing method (getFields, getMethods, getClasses, and their
// getDeclared* counterparts): read the receiver Class, read the direct
// caller, emit with result=null, no re-invocation (spec.md §4.1
// "Trace-only handlers").
func traceOnlyListing(function string) breakpoint.Handler {
	return breakpoint.HandlerFunc(func(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
		receiver, ok := vm.Argument(hit.Thread, 0)
		clazz := classValueName(vm, receiver)
		if !ok {
			clazz = trace.SentinelUnknown
		}
		emitTraceOnly(emit, function, clazz, callerClassName(vm, hit.Thread))
		return true
	})
}

// GetFields, GetMethods, GetConstructors, GetClasses and their Declared
// counterparts are every public-listing reflective query the table wires
// to traceOnlyListing. Each is a distinct handler value (rather than one
// shared closure looked up by method name) so the breakpoint table can
// name each hit with its own function string without threading extra
// state through the dispatch path.
var (
	GetFields                = traceOnlyListing("getFields")
	GetMethods                = traceOnlyListing("getMethods")
	GetConstructors           = traceOnlyListing("getConstructors")
	GetClasses                = traceOnlyListing("getClasses")
	GetDeclaredFields         = traceOnlyListing("getDeclaredFields")
	GetDeclaredMethods        = traceOnlyListing("getDeclaredMethods")
	GetDeclaredConstructors   = traceOnlyListing("getDeclaredConstructors")
	GetDeclaredClasses        = traceOnlyListing("getDeclaredClasses")
)

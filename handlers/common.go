// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package handlers implements HandlerSet (spec.md §4.1): one handler per
// hook kind, grouped by the families spec.md describes — trace-only,
// re-invoking, argument-expanding, enclosing-method, Unsafe field offset,
// serialization and resource-bundle — each reconstructing the semantic
// arguments of its hit and calling the trace.Emitter.
package handlers // import "github.com/jvmtrace/agent/handlers"

import (
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// callerClassName resolves the direct caller's class name, or the "unknown"
// sentinel if the caller frame or its class cannot be resolved — every
// handler reads this the same way, so it lives here rather than being
// repeated per handler (spec.md §4.1 "read the direct caller class").
func callerClassName(vm vmhost.VM, thread vmhost.ThreadID) string {
	class, ok := vm.DirectCallerClass(thread)
	if !ok {
		return trace.SentinelUnknown
	}
	return vm.ClassName(class)
}

// classNameOfObject resolves obj's runtime class name, or a sentinel if obj
// is null or unresolvable.
func classNameOfObject(vm vmhost.VM, obj vmhost.ObjectRef) string {
	if vm.IsNullRef(obj) {
		return trace.SentinelNull
	}
	name, ok := vm.ClassNameOfObject(obj)
	if !ok {
		return trace.SentinelUnknown
	}
	return name
}

// classValueName resolves obj as a java.lang.Class instance to the name of
// the class it denotes (as opposed to classNameOfObject, which would
// report "java.lang.Class" itself).
func classValueName(vm vmhost.VM, obj vmhost.ObjectRef) string {
	if vm.IsNullRef(obj) {
		return trace.SentinelNull
	}
	class, ok := vm.ClassFromClassObject(obj)
	if !ok {
		return trace.SentinelUnknown
	}
	return vm.ClassName(class)
}

// stringArgValue reads obj as a java.lang.String, falling back to the
// "unknown" sentinel for an unreadable argument and "null" for an unset
// reference (spec.md §4.1 "Argument extraction").
func stringArgValue(vm vmhost.VM, obj vmhost.ObjectRef, ok bool) trace.Arg {
	if !ok {
		return trace.UnknownArg()
	}
	if vm.IsNullRef(obj) {
		return trace.NullArg()
	}
	s, ok := vm.StringValue(obj)
	if !ok {
		return trace.UnknownArg()
	}
	return trace.StringArg(s)
}

// classNameArrayArg materialises an array of java.lang.Class references
// into a list-of-names argument (spec.md §4.1 "Argument-expanding
// handlers"). A missing or unreadable element becomes "unknown"; a null
// element becomes "null".
func classNameArrayArg(vm vmhost.VM, arr vmhost.ObjectRef, ok bool) trace.Arg {
	if !ok {
		return trace.UnknownArg()
	}
	if vm.IsNullRef(arr) {
		return trace.NullArg()
	}
	n, ok := vm.ArrayLength(arr)
	if !ok {
		return trace.UnknownArg()
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		elem, ok := vm.ArrayElement(arr, i)
		if !ok {
			names[i] = trace.SentinelUnknown
			continue
		}
		names[i] = classValueName(vm, elem)
	}
	return trace.ListArg(names)
}

// emitReinvoke is the shared emission path for the "Re-invoking handlers"
// family (spec.md §4.1): it packages function, clazz, the caller class, the
// re-invocation's success flag, and the positional args already extracted
// by the caller into one record.
func emitReinvoke(emit trace.Emitter, function, clazz, callerClass string, success bool, args ...trace.Arg) {
	emit.TraceCall(trace.Record{
		Kind:          trace.KindReflect,
		Function:      function,
		Clazz:         clazz,
		CallerClass:   callerClass,
		ResultBool:    success,
		HasResultBool: true,
		Args:          args,
	})
}

// emitTraceOnly is the shared emission path for "Trace-only" handlers: no
// re-invocation is performed, so the record's result is the sentinel null.
func emitTraceOnly(emit trace.Emitter, function, clazz, callerClass string, args ...trace.Arg) {
	emit.TraceCall(trace.Record{
		Kind:         trace.KindReflect,
		Function:     function,
		Clazz:        clazz,
		CallerClass:  callerClass,
		IsNullResult: true,
		Args:         args,
	})
}

// reinvokeStaticBool re-invokes a static method for its success/failure
// outcome only, the shape most re-invoking handlers need: the returned
// object is irrelevant, just whether the call raised a failure.
func reinvokeStaticBool(vm vmhost.VM, thread vmhost.ThreadID, method vmhost.MethodID,
	args []vmhost.ObjectRef, classLoader vmhost.ObjectRef, haveClassLoader bool) bool {
	_, ok := vm.ReinvokeStatic(thread, method, args, classLoader, haveClassLoader)
	return ok
}

// reinvokeInstanceBool is reinvokeStaticBool's instance-method counterpart.
func reinvokeInstanceBool(vm vmhost.VM, thread vmhost.ThreadID, method vmhost.MethodID,
	receiver vmhost.ObjectRef, args []vmhost.ObjectRef, useCallerClassLoader bool) bool {
	_, ok := vm.Reinvoke(thread, method, receiver, args, useCallerClassLoader)
	return ok
}

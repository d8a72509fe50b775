// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/nativehook"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// emitUnsafeOffset is the one emission helper every objectFieldOffset
// variant shares (spec.md §4.1 "Unsafe field offset handlers"): a
// (declaringClass, fieldName, success) triple regardless of whether the
// call was resolved by Field, by (class, name), or through the legacy
// native entry point.
func emitUnsafeOffset(emit trace.Emitter, clazz, declaringClass, fieldName, caller string, success bool) {
	emit.TraceCall(trace.Record{
		Kind:           trace.KindJNI,
		Function:       "objectFieldOffset",
		Clazz:          clazz,
		DeclaringClass: declaringClass,
		CallerClass:    caller,
		ResultBool:     success,
		HasResultBool:  true,
		Args:           []trace.Arg{trace.StringArg(fieldName)},
	})
}

// ObjectFieldOffsetByField handles Unsafe.objectFieldOffset(Field): read
// the Field's declaring class and name via vmhost.VM.FieldInfo, re-invoke
// to see whether the offset resolves (spec.md §8 scenario 3's Field-based
// shape, used on runtimes where this overload is ordinary bytecode rather
// than native).
var ObjectFieldOffsetByField = breakpoint.HandlerFunc(func(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
	receiver, _ := vm.Argument(hit.Thread, 0)
	fieldObj, fieldOK := vm.Argument(hit.Thread, 1)

	declaringClass, name := trace.SentinelUnknown, trace.SentinelUnknown
	if fieldOK {
		if dc, n, ok := vm.FieldInfo(fieldObj); ok {
			declaringClass, name = dc, n
		}
	}

	success := reinvokeInstanceBool(vm, hit.Thread, hit.Method, receiver, []vmhost.ObjectRef{fieldObj}, false)
	emitUnsafeOffset(emit, classNameOfObject(vm, receiver), declaringClass, name, callerClassName(vm, hit.Thread), success)
	return true
})

// ObjectFieldOffsetByClassAndName handles the (Class, String) shape of
// objectFieldOffset spec.md §4.1 names alongside the Field-based overload.
var ObjectFieldOffsetByClassAndName = breakpoint.HandlerFunc(func(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
	receiver, _ := vm.Argument(hit.Thread, 0)
	classObj, classOK := vm.Argument(hit.Thread, 1)
	nameObj, nameOK := vm.Argument(hit.Thread, 2)

	declaringClass := trace.SentinelUnknown
	if classOK {
		declaringClass = classValueName(vm, classObj)
	}
	name := trace.SentinelUnknown
	if nameOK {
		if s, ok := vm.StringValue(nameObj); ok {
			name = s
		}
	}

	success := reinvokeInstanceBool(vm, hit.Thread, hit.Method, receiver,
		[]vmhost.ObjectRef{classObj, nameObj}, false)
	emitUnsafeOffset(emit, classNameOfObject(vm, receiver), declaringClass, name, callerClassName(vm, hit.Thread), success)
	return true
})

// ObjectFieldOffsetNative is the nativehook.Handler for the legacy native
// entry point objectFieldOffset used to be on JDK 8 (spec.md §8 scenario
// 3). Unlike a breakpoint hit, there is no Java frame to read locals from:
// the replacement entry hands receiver/args straight through, so this
// reads the Field argument directly from args[0] rather than via
// vm.Argument.
var ObjectFieldOffsetNative = nativehook.HandlerFunc(func(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit,
	receiver vmhost.ObjectRef, args []vmhost.ObjectRef, success bool) bool {
	declaringClass, name := trace.SentinelUnknown, trace.SentinelUnknown
	if len(args) > 0 {
		if dc, n, ok := vm.FieldInfo(args[0]); ok {
			declaringClass, name = dc, n
		}
	}
	emitUnsafeOffset(emit, classNameOfObject(vm, receiver), declaringClass, name, callerClassName(vm, hit.Thread), success)
	return true
})

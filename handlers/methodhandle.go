// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// methodHandleLookup builds a handler for one of MethodHandles.Lookup's
// find* factories. All of them take a receiver Class and a MethodType;
// findVirtual/findStatic additionally take a member name, findConstructor
// does not. Like the Proxy factories, these are simultaneously Re-invoking
// and Argument-expanding (spec.md §4.1): the MethodType's parameter list is
// materialised into a list of class names via the same array-argument
// helper used for Class[] arguments, since a MethodType exposes its
// parameters the same way an array does for this purpose.
func methodHandleLookup(function string, hasName bool) breakpoint.Handler {
	return breakpoint.HandlerFunc(func(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
		lookup, _ := vm.Argument(hit.Thread, 0)
		refc, refcOK := vm.Argument(hit.Thread, 1)

		var (
			nameObj vmhost.ObjectRef
			nameArg trace.Arg
		)
		typeIdx := 2
		if hasName {
			var nameOK bool
			nameObj, nameOK = vm.Argument(hit.Thread, 2)
			nameArg = stringArgValue(vm, nameObj, nameOK)
			typeIdx = 3
		}
		methodType, typeOK := vm.Argument(hit.Thread, typeIdx)
		paramArg := classNameArrayArg(vm, methodType, typeOK)

		declClass := trace.SentinelUnknown
		if refcOK {
			declClass = classValueName(vm, refc)
		}

		reinvokeArgs := []vmhost.ObjectRef{refc, methodType}
		if hasName {
			reinvokeArgs = []vmhost.ObjectRef{refc, nameObj, methodType}
		}
		success := reinvokeInstanceBool(vm, hit.Thread, hit.Method, lookup, reinvokeArgs, true)

		args := []trace.Arg{paramArg}
		if hasName {
			args = []trace.Arg{nameArg, paramArg}
		}
		emitReinvoke(emit, function, declClass, callerClassName(vm, hit.Thread), success, args...)
		return true
	})
}

var (
	FindVirtual     = methodHandleLookup("findVirtual", true)
	FindStatic      = methodHandleLookup("findStatic", true)
	FindConstructor = methodHandleLookup("findConstructor", false)
)

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// resourceLookup builds a handler for Class.getResource/getResourceAsStream
// and their ClassLoader counterparts: argument 1 is the resource path
// string, re-invoked against the receiver to observe whether it resolves.
// Resource lookup is caller-sensitive in the real JDK (the path is
// resolved relative to the caller's package/module), so the re-invocation
// passes the direct caller's classloader per spec.md §4.1's re-invocation
// contract.
func resourceLookup(function string) breakpoint.Handler {
	return breakpoint.HandlerFunc(func(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
		receiver, recvOK := vm.Argument(hit.Thread, 0)
		pathObj, pathOK := vm.Argument(hit.Thread, 1)
		pathArg := stringArgValue(vm, pathObj, pathOK)

		clazz := trace.SentinelUnknown
		if recvOK {
			clazz = classValueName(vm, receiver)
		}

		var success bool
		if recvOK {
			success = reinvokeInstanceBool(vm, hit.Thread, hit.Method, receiver, []vmhost.ObjectRef{pathObj}, true)
		}
		emitReinvoke(emit, function, clazz, callerClassName(vm, hit.Thread), success, pathArg)
		return true
	})
}

var (
	GetResource          = resourceLookup("getResource")
	GetResourceAsStream  = resourceLookup("getResourceAsStream")
	ClassLoaderGetResource         = resourceLookup("getResource")
	ClassLoaderGetResourceAsStream = resourceLookup("getResourceAsStream")
)

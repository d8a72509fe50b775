// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// newProxyInstanceImpl handles Proxy.newProxyInstance(ClassLoader, Class[]
// interfaces, InvocationHandler): a Re-invoking handler that is also
// Argument-expanding (spec.md §4.1) — the interfaces array is materialised
// into a list of class names rather than reported as a single opaque
// argument.
func newProxyInstanceImpl(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
	loader, _ := vm.Argument(hit.Thread, 0)
	interfaces, ifaceOK := vm.Argument(hit.Thread, 1)
	handler, _ := vm.Argument(hit.Thread, 2)
	ifaceArg := classNameArrayArg(vm, interfaces, ifaceOK)

	success := reinvokeStaticBool(vm, hit.Thread, hit.Method,
		[]vmhost.ObjectRef{loader, interfaces, handler}, loader, true)

	emitReinvoke(emit, "newProxyInstance", "java.lang.reflect.Proxy",
		callerClassName(vm, hit.Thread), success, ifaceArg)
	return true
}

// getProxyClassImpl handles the older Proxy.getProxyClass(ClassLoader,
// Class[] interfaces) factory, the same shape minus the invocation handler.
func getProxyClassImpl(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
	loader, _ := vm.Argument(hit.Thread, 0)
	interfaces, ifaceOK := vm.Argument(hit.Thread, 1)
	ifaceArg := classNameArrayArg(vm, interfaces, ifaceOK)

	success := reinvokeStaticBool(vm, hit.Thread, hit.Method,
		[]vmhost.ObjectRef{loader, interfaces}, loader, true)

	emitReinvoke(emit, "getProxyClass", "java.lang.reflect.Proxy",
		callerClassName(vm, hit.Thread), success, ifaceArg)
	return true
}

var (
	NewProxyInstance = breakpoint.HandlerFunc(newProxyInstanceImpl)
	GetProxyClass     = breakpoint.HandlerFunc(getProxyClassImpl)
)

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// ResourceBundleHandler handles ResourceBundle.getBundle(String baseName,
// ...): the direct caller is never the real user code, since getBundle
// always goes through one or two internal trampoline frames first. The
// intermediate frame's method identity selects whether the real caller is
// three or four frames up (spec.md §4.1 "Resource bundle handler", §9's
// open question about re-deriving this per runtime version).
//
// DeepTrampoline is the resolved MethodID of the two-hop internal
// trampoline; when the second frame above the hit (the caller of the
// direct caller) is that method, the walk goes one frame deeper. It is the zero value (never matches) if the
// catalog could not resolve it on this runtime.
type ResourceBundleHandler struct {
	DeepTrampoline vmhost.MethodID
}

func (h ResourceBundleHandler) Handle(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
	baseNameObj, baseNameOK := vm.Argument(hit.Thread, 0)
	baseNameArg := stringArgValue(vm, baseNameObj, baseNameOK)

	frames := vm.CallerFrames(hit.Thread, 4)
	depth := 3
	if len(frames) >= 2 && h.DeepTrampoline != 0 && frames[1].Method == h.DeepTrampoline {
		depth = 4
	}

	caller := trace.SentinelUnknown
	if idx := depth - 1; len(frames) > idx {
		if class, _, _, ok := vm.DeclaringClass(frames[idx].Method); ok {
			caller = vm.ClassName(class)
		}
	}

	success := reinvokeStaticBool(vm, hit.Thread, hit.Method, []vmhost.ObjectRef{baseNameObj}, vmhost.NullRef, false)
	emitReinvoke(emit, "getBundle", "java.util.ResourceBundle", caller, success, baseNameArg)
	return true
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package loadclass

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// Handler is the breakpoint.Handler ClassLoaderDiscovery installs on every
// discovered classloader subclass's loadClass(String). It defers to Filter
// to decide whether this hit is worth tracing at all before reading any
// arguments (spec.md §4.5 step 7).
type Handler struct {
	Filter      *Filter
	LoaderClass vmhost.ClassRef
}

func (h *Handler) Handle(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
	if !h.Filter.Classify(hit.Thread, h.LoaderClass) {
		return false
	}

	receiver, recvOK := vm.Argument(hit.Thread, 0)
	nameObj, nameOK := vm.Argument(hit.Thread, 1)

	clazz := trace.SentinelUnknown
	if recvOK {
		if vm.IsNullRef(receiver) {
			clazz = trace.SentinelNull
		} else if name, ok := vm.ClassNameOfObject(receiver); ok {
			clazz = name
		} else {
			clazz = trace.SentinelUnknown
		}
	}

	nameArg := trace.UnknownArg()
	if nameOK {
		if vm.IsNullRef(nameObj) {
			nameArg = trace.NullArg()
		} else if s, ok := vm.StringValue(nameObj); ok {
			nameArg = trace.StringArg(s)
		}
	}

	var success bool
	if recvOK {
		_, success = vm.Reinvoke(hit.Thread, hit.Method, receiver, []vmhost.ObjectRef{nameObj}, false)
	}

	emit.TraceCall(trace.Record{
		Kind:          trace.KindReflect,
		Function:      "loadClass",
		Clazz:         clazz,
		CallerClass:   callerClassName(vm, hit.Thread),
		ResultBool:    success,
		HasResultBool: true,
		Args:          []trace.Arg{nameArg},
	})
	return true
}

func callerClassName(vm vmhost.VM, thread vmhost.ThreadID) string {
	class, ok := vm.DirectCallerClass(thread)
	if !ok {
		return trace.SentinelUnknown
	}
	return vm.ClassName(class)
}

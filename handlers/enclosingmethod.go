// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// EnclosingMethod handles Class.getEnclosingMethod(): re-invoke to obtain
// the returned reflective Method reference, then resolve its declaring
// class, name and descriptor via vmhost.VM.MethodInfo and format them as
// "<class>.<name><descriptor>" (spec.md §4.1 "Enclosing-method handler").
var EnclosingMethod = breakpoint.HandlerFunc(func(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
	receiver, recvOK := vm.Argument(hit.Thread, 0)
	clazz := trace.SentinelUnknown
	if recvOK {
		clazz = classValueName(vm, receiver)
	}

	rec := trace.Record{
		Kind:        trace.KindReflect,
		Function:    "getEnclosingMethod",
		Clazz:       clazz,
		CallerClass: callerClassName(vm, hit.Thread),
	}

	if !recvOK {
		rec.IsUnknownResult = true
		emit.TraceCall(rec)
		return true
	}

	result, ok := vm.Reinvoke(hit.Thread, hit.Method, receiver, nil, false)
	switch {
	case !ok:
		rec.IsUnknownResult = true
	case vm.IsNullRef(result):
		rec.IsNullResult = true
	default:
		declClass, name, descriptor, infoOK := vm.MethodInfo(result)
		if !infoOK {
			rec.IsUnknownResult = true
		} else {
			rec.ResultString = declClass + "." + name + descriptor
			rec.HasResultString = true
		}
	}
	emit.TraceCall(rec)
	return true
})

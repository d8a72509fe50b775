// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"strings"

	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// lambdaMarker is the substring an internal lambda-synthesized class name
// contains. Checked with a plain strings.Contains, matching the original
// source's String.contains — not a regexp, since this is a fixed literal
// (spec.md §4.1 "Lambda-synthetic class names").
const lambdaMarker = "$$Lambda$"

// SerializationHandler handles the ObjectStreamClass(Class) constructor:
// it walks the target class's serializable superclass chain (its
// class-data-layout) and emits one serialization record per transitive
// target, in layout order — most-derived first (spec.md §4.1 "Serialization
// constructor handler", §8 scenario 5).
//
// Serializable is the resolved ClassRef for java.io.Serializable, used to
// decide how far up the superclass chain the walk continues; if it could
// not be resolved on this runtime the walk still emits a record for the
// target itself but does not climb further, since "transitively
// serializable" cannot be determined without it.
type SerializationHandler struct {
	Serializable     vmhost.ClassRef
	HaveSerializable bool
}

func (h SerializationHandler) Handle(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit) bool {
	targetObj, targetOK := vm.Argument(hit.Thread, 1)
	if !targetOK || vm.IsNullRef(targetObj) {
		return true
	}
	target, ok := vm.ClassFromClassObject(targetObj)
	if !ok {
		return true
	}
	if strings.Contains(vm.ClassName(target), lambdaMarker) {
		return true
	}

	caller := callerClassName(vm, hit.Thread)
	cur := target
	for {
		emit.TraceCall(trace.Record{
			Kind:         trace.KindSerialization,
			Function:     "ObjectStreamClass.<init>",
			Clazz:        "java.io.ObjectStreamClass",
			CallerClass:  caller,
			IsNullResult: true,
			Args:         []trace.Arg{trace.StringArg(vm.ClassName(cur))},
		})

		next, ok := vm.Superclass(cur)
		if !ok {
			break
		}
		if !h.HaveSerializable || !vm.IsAssignableFrom(next, h.Serializable) {
			break
		}
		cur = next
	}
	return true
}

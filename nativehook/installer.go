// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package nativehook

import (
	"fmt"

	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/internal/agentlog"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// Table is the static catalog of NativeHookSpecs.
type Table []NativeHookSpec

// Installer resolves Table against a live VM and wires its State.
type Installer struct {
	VM    vmhost.VM
	Emit  trace.Emitter
	State *State
}

// EnableEvents asks the host to start delivering "native method about to
// bind" events and turns them on immediately (spec.md §4.3 step 1). This
// must run at agent load, before Install, so that bindings arriving during
// the installation window land in PendingBindings instead of being missed.
func (in *Installer) EnableEvents() {
	in.VM.EnableNativeBindEvents()
}

// Install resolves every table entry's class and method, builds its
// NativeHook and replacement entry, consumes any pending binding already
// recorded for it, and registers the replacement with the host (spec.md
// §4.3 step 3).
//
// Resolution failure for an optional entry is skipped; for a mandatory
// entry it is an invariant violation (spec.md §7 kind 4) and aborts the
// process, matching breakpoint.Installer's treatment of its own table.
func (in *Installer) Install(table Table) {
	for _, spec := range table {
		class, ok := in.VM.ResolveClass(spec.ClassName)
		if !ok {
			in.skipOrFatal(spec, "class %q not present in host runtime", spec.ClassName)
			continue
		}
		method, ok := in.VM.ResolveMethod(class, spec.MethodName, spec.Descriptor)
		if !ok {
			in.skipOrFatal(spec, "native method %s.%s%s not present in host runtime",
				spec.ClassName, spec.MethodName, spec.Descriptor)
			continue
		}

		hook := &NativeHook{Spec: spec, Class: class, Method: method}
		hook.replacement = in.makeReplacement(hook)
		in.State.install(hook)

		err := in.State.withRegistrationGuard(func() error {
			return in.VM.RegisterNativeMethod(class, spec.MethodName, spec.Descriptor, hook.replacement)
		})
		if err != nil {
			if spec.Optional {
				agentlog.Get().WithError(breakpoint.NewError(breakpoint.FailureOptionalAbsence, err)).
					WithField("method", spec.MethodName).Debug("skipping optional native hook: registration failed")
				continue
			}
			agentlog.Fatalf("%v", breakpoint.NewError(breakpoint.FailureInvariant, fmt.Errorf(
				"nativehook: mandatory registration failed for %s.%s%s: %w",
				spec.ClassName, spec.MethodName, spec.Descriptor, err)))
		}
	}
}

func (in *Installer) skipOrFatal(spec NativeHookSpec, format string, args ...any) {
	cause := fmt.Errorf(format, args...)
	if spec.Optional {
		err := breakpoint.NewError(breakpoint.FailureOptionalAbsence, cause)
		agentlog.Get().WithError(err).WithField("class", spec.ClassName).
			WithField("method", spec.MethodName).Debug("skipping optional table entry")
		return
	}
	agentlog.Fatalf("%v", breakpoint.NewError(breakpoint.FailureInvariant, cause))
}

// makeReplacement builds the function substituted for hook's native entry.
// It calls through to the original, observes the outcome, emits a trace
// record via hook's handler, and — if the original call failed — calls it
// again so the caller observes the same failure the untraced call would
// have raised (spec.md §4.3, last paragraph).
func (in *Installer) makeReplacement(hook *NativeHook) vmhost.NativeFunc {
	return func(thread vmhost.ThreadID, receiver vmhost.ObjectRef, args []vmhost.ObjectRef) (vmhost.ObjectRef, bool) {
		original, ok := hook.Original()
		if !ok {
			agentlog.Fatalf("nativehook: replacement entry invoked before original bound for %s.%s%s",
				hook.Spec.ClassName, hook.Spec.MethodName, hook.Spec.Descriptor)
		}

		result, callOK := original(thread, receiver, args)
		hadFailure := in.VM.ClearPendingFailure(thread)
		success := callOK && !hadFailure

		hook.Spec.Handler.Handle(in.VM, in.Emit, breakpoint.Hit{Thread: thread, Method: hook.Method},
			receiver, args, success)

		if !success {
			result, callOK = original(thread, receiver, args)
		}
		return result, callOK
	}
}

// Release drops the tracked class reference held by every installed
// NativeHook, invoked once at agent unload (spec.md §5 "Resource
// discipline"), the native-hook counterpart of breakpoint.Release.
func Release(vm vmhost.VM, state *State) {
	for _, hook := range state.All() {
		vm.Release(hook.Class)
	}
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"

	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/internal/agentlog"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// Core is the single entry function every breakpoint-hit event is routed
// through (spec.md §4.4). It is safe for concurrent use by multiple
// runtime threads; per-thread reentry is what RecursionGuard prevents.
type Core struct {
	VM        vmhost.VM
	Emit      trace.Emitter
	Installed *breakpoint.InstalledSet
	Guard     *RecursionGuard
}

// NewCore wires a Core from its collaborators, allocating its own guard.
func NewCore(vm vmhost.VM, emit trace.Emitter, installed *breakpoint.InstalledSet) *Core {
	return &Core{VM: vm, Emit: emit, Installed: installed, Guard: NewRecursionGuard()}
}

// Dispatch is the entry point spec.md §4.4 describes, taking the thread
// the event fired on and the method identity the host delivered it for.
// Returns the handler's advisory accept/reject result, or false if this
// call was suppressed as a reentrant hit.
func (c *Core) Dispatch(thread vmhost.ThreadID, method vmhost.MethodID) bool {
	if !c.Guard.TryEnter(thread) {
		return false
	}
	defer c.Guard.Exit(thread)

	hook, ok := c.Installed.Lookup(method)
	if !ok {
		agentlog.Fatalf("%v", breakpoint.NewError(breakpoint.FailureInvariant, fmt.Errorf(
			"dispatch: no installed hook for method identity %d; stale event from host runtime", method)))
	}

	accepted := hook.Spec.Handler.Handle(c.VM, c.Emit, breakpoint.Hit{Thread: thread, Method: method})

	if c.VM.ClearPendingFailure(thread) {
		agentlog.Fatalf("%v", breakpoint.NewError(breakpoint.FailureInvariant, fmt.Errorf(
			"dispatch: handler for %s.%s%s left a pending failure on exit",
			hook.Spec.ClassName, hook.Spec.MethodName, hook.Spec.Descriptor)))
	}

	return accepted
}

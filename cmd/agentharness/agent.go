// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/catalog"
	"github.com/jvmtrace/agent/classdefine"
	"github.com/jvmtrace/agent/classloaderdiscovery"
	"github.com/jvmtrace/agent/dispatch"
	"github.com/jvmtrace/agent/internal/agentlog"
	"github.com/jvmtrace/agent/nativehook"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
)

// agent bundles every live component the process needs for the lifetime of
// one attached VM: the static breakpoint and native-hook tables resolved
// against it, the dispatch core event delivery funnels through, and the
// optional classloader-discovery / dynamic-class-definition components
// spec.md §4.6 and SPEC_FULL.md §4 describe. It is spec.md §9's "explicit
// agent context struct" replacing process-wide static state.
type agent struct {
	vm vmhost.VM

	installed   *breakpoint.InstalledSet
	nativeState *nativehook.State
	dispatch    *dispatch.Core
	nativeInst  *nativehook.Installer

	discovery   *classloaderdiscovery.Discovery
	classdefine *classdefine.Detector

	trace  trace.Emitter
	closer func() error
}

// current holds the single live agent instance. The event-entry
// trampolines the host integration registers with the VM are bound by its
// ABI to carry no user-data pointer, so they recover the instance through
// this process-global rather than a parameter (spec.md §9 "Process-wide
// static state").
var current atomic.Pointer[agent]

// load builds every component against vm according to cfg, installs the
// static tables, and enables event delivery in the order spec.md's
// installers require, then publishes the result as the process's current
// agent. It is an error to call load while an agent is already loaded.
func load(vm vmhost.VM, cfg *config, emit trace.Emitter, closer func() error) (*agent, error) {
	if current.Load() != nil {
		return nil, fmt.Errorf("agentharness: an agent is already loaded")
	}

	a := &agent{
		vm:        vm,
		installed: breakpoint.NewInstalledSet(),
		trace:     emit,
		closer:    closer,
	}

	bpInstaller := &breakpoint.Installer{VM: vm}
	bpInstaller.Install(catalog.BreakpointTable(vm), a.installed)
	bpInstaller.EnableEvents()

	a.nativeState = nativehook.NewState()
	a.nativeInst = &nativehook.Installer{VM: vm, Emit: emit, State: a.nativeState}
	a.nativeInst.EnableEvents()
	a.nativeInst.Install(catalog.NativeTable())

	a.dispatch = dispatch.NewCore(vm, emit, a.installed)

	if cfg.ClassLoaderSupport {
		discovery, ok := classloaderdiscovery.New(vm, a.installed)
		if !ok {
			agentlog.Get().Warn("agentharness: java/lang/ClassLoader not resolvable; " +
				"classloader discovery disabled")
		} else {
			a.discovery = discovery
			vm.EnableClassPrepareEvents()
			discovery.Scan()
		}
		a.classdefine = &classdefine.Detector{Emit: emit}
	}

	current.Store(a)
	return a, nil
}

// unload releases every tracked class reference held by the loaded agent's
// installed hooks (spec.md §5 "Resource discipline") and closes the trace
// sink. It clears the process-global so a subsequent load can run.
func unload() error {
	a := current.Load()
	if a == nil {
		return fmt.Errorf("agentharness: no agent loaded")
	}
	breakpoint.Release(a.vm, a.installed)
	nativehook.Release(a.vm, a.nativeState)
	current.Store(nil)
	if a.closer != nil {
		return a.closer()
	}
	return nil
}

// onBreakpointHit is the trampoline the host's breakpoint-hit callback
// recovers current from and forwards to (spec.md §4.4).
func onBreakpointHit(thread vmhost.ThreadID, method vmhost.MethodID) bool {
	a := current.Load()
	if a == nil {
		agentlog.Fatalf("agentharness: breakpoint hit delivered with no agent loaded")
	}
	return a.dispatch.Dispatch(thread, method)
}

// onClassPrepare is the trampoline the host's ClassPrepare callback
// recovers current from, forwarded only when classloader discovery is
// enabled (spec.md §4.6).
func onClassPrepare(class vmhost.ClassRef) {
	a := current.Load()
	if a == nil || a.discovery == nil {
		return
	}
	a.discovery.OnClassPrepare(class)
}

// onClassFileLoad is the trampoline the host's ClassFileLoadHook callback
// recovers current from, forwarded only when classloader discovery is
// enabled (SPEC_FULL.md §4 "isDynamicallyGenerated").
func onClassFileLoad(className string, loader vmhost.ObjectRef, hasBackingResource bool) {
	a := current.Load()
	if a == nil || a.classdefine == nil {
		return
	}
	a.classdefine.OnDefine(a.vm, className, loader, hasBackingResource)
}

func newLogger(verbose bool) *logrus.Logger {
	l := logrus.New()
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package classloaderdiscovery implements the optional loadClass hook
// installer spec.md §4.6 describes: at agent-ready, every already-loaded
// class assignable to java.lang.ClassLoader gets loadClass(String) hooked;
// afterwards, every newly class-prepared classloader subclass gets the
// same treatment. It is gated behind the classloader-discovery flag
// (SPEC_FULL.md §2.3) since it is far more invasive than the default
// static breakpoint table.
package classloaderdiscovery // import "github.com/jvmtrace/agent/classloaderdiscovery"

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/internal/agentlog"
	"github.com/jvmtrace/agent/loadclass"
	"github.com/jvmtrace/agent/vmhost"
)

// loadClassDescriptor is the only loadClass shape this module hooks; the
// two-argument resolve-aware overload is internal-only and always reached
// through the single-argument one on every runtime the teacher repository
// this module is grounded on targets.
const loadClassDescriptor = "(Ljava/lang/String;)Ljava/lang/Class;"

// Discovery installs loadClass hooks on classloader subclasses, discovered
// either by an up-front scan or incrementally as new classes prepare.
// Sites is shared across every installed Handler so the explicit-callsite
// memoization spec.md §4.5 describes applies VM-wide, not per classloader.
type Discovery struct {
	VM              vmhost.VM
	Installed       *breakpoint.InstalledSet
	Sites           *loadclass.ExplicitCallSiteSet
	RootLoaderClass vmhost.ClassRef
}

// New returns a Discovery rooted at the resolved java/lang/ClassLoader
// class. ok is false if the host runtime has no such class, which should
// never happen outside of a test double.
func New(vm vmhost.VM, installed *breakpoint.InstalledSet) (*Discovery, bool) {
	root, ok := vm.ResolveClass("java/lang/ClassLoader")
	if !ok {
		return nil, false
	}
	return &Discovery{
		VM:              vm,
		Installed:       installed,
		Sites:           loadclass.NewExplicitCallSiteSet(),
		RootLoaderClass: root,
	}, true
}

// Scan walks every class currently loaded, installing a loadClass hook on
// each classloader subclass found (spec.md §4.6 "agent-ready scan").
func (d *Discovery) Scan() {
	for _, class := range d.VM.LoadedClasses() {
		d.tryInstall(class)
	}
}

// OnClassPrepare is the ClassPrepare event callback: it repeats the same
// classloader-subclass check against a single newly prepared class (spec.md
// §4.6 "incremental discovery").
func (d *Discovery) OnClassPrepare(class vmhost.ClassRef) {
	d.tryInstall(class)
}

func (d *Discovery) tryInstall(class vmhost.ClassRef) {
	if !d.VM.IsAssignableFrom(class, d.RootLoaderClass) {
		return
	}

	method, ok := d.VM.ResolveMethod(class, "loadClass", loadClassDescriptor)
	if !ok {
		return
	}
	if d.Installed.Contains(method) {
		return
	}

	if err := d.VM.AttachBreakpoint(method); err != nil {
		agentlog.Get().WithError(err).WithField("class", d.VM.ClassName(class)).
			Debug("classloaderdiscovery: skipping loadClass hook: attach failed")
		return
	}

	handler := &loadclass.Handler{
		Filter: &loadclass.Filter{
			VM:         d.VM,
			Sites:      d.Sites,
			MethodName: "loadClass",
			Descriptor: loadClassDescriptor,
		},
		LoaderClass: d.RootLoaderClass,
	}

	hook := &breakpoint.Hook{
		Spec: breakpoint.HookSpec{
			ClassName:  d.VM.ClassName(class),
			MethodName: "loadClass",
			Descriptor: loadClassDescriptor,
			Handler:    handler,
			Optional:   true,
		},
		Class:  class,
		Method: method,
	}
	d.Installed.Insert(hook)
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package breakpoint

import (
	"fmt"

	lru "github.com/elastic/go-freelru"
	"github.com/zeebo/xxh3"

	"github.com/jvmtrace/agent/internal/agentlog"
	"github.com/jvmtrace/agent/vmhost"
)

// Table is the static catalog of HookSpecs, ordered the way the table is
// declared. Installer walks it in order so the class-resolution cache below
// actually pays off for runs of entries sharing a class name, the way the
// original source's breakpoint table groups entries per class.
type Table []HookSpec

// classResolutionCacheSize bounds the LRU backing Installer's class
// resolution cache. The table's longest observed run of distinct class
// names sharing a contiguous block is small (spec.md groups entries by
// class), so this is sized generously rather than tuned.
const classResolutionCacheSize = 64

func hashClassName(name string) uint32 {
	return uint32(xxh3.HashString(name))
}

// Installer resolves Table against a live vm, attaching a breakpoint for
// every entry and recording the result in an InstalledSet (spec.md §4.2).
type Installer struct {
	VM vmhost.VM
}

// Install iterates table in order, resolving each entry's class and method
// and attaching a breakpoint at bytecode offset 0. Class resolution is
// cached across entries naming the same class, matching spec.md §4.2's
// "memoised across consecutive entries with the same class name to
// amortise lookups" — an LRU rather than a single last-seen slot, so a
// class name seen earlier in the table is still found after entries for
// other classes. The cache is created afresh for each Install call and is
// not shared with ClassLoaderDiscovery, which resolves its classes itself.
//
// An optional entry whose class or method cannot be resolved, or whose
// AttachBreakpoint call fails, is skipped. A mandatory entry's resolution
// or AttachBreakpoint failure, or inserting a duplicate method identity,
// is an invariant violation
// (spec.md §7 kind 4): Install aborts the process via agentlog.Fatalf
// rather than returning an error, since these conditions are defined to be
// unrecoverable bugs, not something a caller could meaningfully handle.
func (in *Installer) Install(table Table, installed *InstalledSet) {
	cache, err := lru.New[string, vmhost.ClassRef](classResolutionCacheSize, hashClassName)
	if err != nil {
		agentlog.Fatalf("breakpoint: failed to allocate class resolution cache: %v", err)
	}

	for _, spec := range table {
		class, ok := cache.Get(spec.ClassName)
		if !ok {
			class, ok = in.VM.ResolveClass(spec.ClassName)
			if ok {
				cache.Add(spec.ClassName, class)
			}
		}
		if !ok {
			in.skipOrFatal(spec, "class %q not present in host runtime", spec.ClassName)
			continue
		}

		method, ok := in.VM.ResolveMethod(class, spec.MethodName, spec.Descriptor)
		if !ok {
			in.skipOrFatal(spec, "method %s.%s%s not present in host runtime",
				spec.ClassName, spec.MethodName, spec.Descriptor)
			continue
		}

		if err := in.VM.AttachBreakpoint(method); err != nil {
			if spec.Optional {
				agentlog.Get().WithError(NewError(FailureOptionalAbsence, err)).
					WithField("method", spec.MethodName).Debug("skipping optional hook: attach failed")
				continue
			}
			agentlog.Fatalf("%v", NewError(FailureInvariant, fmt.Errorf(
				"breakpoint: mandatory attach failed for %s.%s%s: %w",
				spec.ClassName, spec.MethodName, spec.Descriptor, err)))
		}

		hook := &Hook{Spec: spec, Class: class, Method: method}
		if installed.Contains(method) {
			agentlog.Fatalf("%v", NewError(FailureInvariant, fmt.Errorf(
				"breakpoint: duplicate method identity for %s.%s%s",
				spec.ClassName, spec.MethodName, spec.Descriptor)))
		}
		installed.Insert(hook)
	}
}

func (in *Installer) skipOrFatal(spec HookSpec, format string, args ...any) {
	cause := fmt.Errorf(format, args...)
	if spec.Optional {
		err := NewError(FailureOptionalAbsence, cause)
		agentlog.Get().WithError(err).WithField("class", spec.ClassName).
			WithField("method", spec.MethodName).Debug("skipping optional table entry")
		return
	}
	agentlog.Fatalf("%v", NewError(FailureInvariant, cause))
}

// EnableEvents turns on delivery of hook-hit events. Installer.Install must
// run to completion first: spec.md §4.2 "Ordering" requires every table
// entry installed before the host is told to start delivering events.
func (in *Installer) EnableEvents() {
	in.VM.EnableBreakpointEvents()
}

// Release drops the tracked class reference held by every installed Hook,
// invoked once at agent unload (spec.md §5 "Resource discipline").
func Release(vm vmhost.VM, installed *InstalledSet) {
	for _, hook := range installed.All() {
		vm.Release(hook.Class)
	}
}

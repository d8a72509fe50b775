// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package breakpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
	"github.com/jvmtrace/agent/vmhost/fake"
)

func noopHandler() breakpoint.Handler {
	return breakpoint.HandlerFunc(func(vmhost.VM, trace.Emitter, breakpoint.Hit) bool { return true })
}

func TestInstall_ResolvesAndAttaches(t *testing.T) {
	vm := fake.New()
	class := vm.DefineClass("java/lang/Class")
	method := vm.DefineMethod(class, "forName", "(Ljava/lang/String;)Ljava/lang/Class;")

	table := breakpoint.Table{
		{ClassName: "java/lang/Class", MethodName: "forName",
			Descriptor: "(Ljava/lang/String;)Ljava/lang/Class;", Handler: noopHandler()},
	}

	installed := breakpoint.NewInstalledSet()
	in := &breakpoint.Installer{VM: vm}
	in.Install(table, installed)

	assert.True(t, vm.BreakpointAttached(method))
	hook, ok := installed.Lookup(method)
	require.True(t, ok)
	assert.Equal(t, class, hook.Class)
}

func TestInstall_OptionalEntrySkippedWithoutError(t *testing.T) {
	vm := fake.New()
	table := breakpoint.Table{
		{ClassName: "does/not/Exist", MethodName: "whatever", Descriptor: "()V",
			Handler: noopHandler(), Optional: true},
	}

	installed := breakpoint.NewInstalledSet()
	in := &breakpoint.Installer{VM: vm}
	assert.NotPanics(t, func() { in.Install(table, installed) })
	assert.Empty(t, installed.All())
}

// countingVM counts ResolveClass calls made through it.
type countingVM struct {
	*fake.VM
	resolveClassCalls int
}

func (c *countingVM) ResolveClass(name string) (vmhost.ClassRef, bool) {
	c.resolveClassCalls++
	return c.VM.ResolveClass(name)
}

func TestInstall_MemoizesConsecutiveClassResolution(t *testing.T) {
	vm := &countingVM{VM: fake.New()}
	class := vm.DefineClass("java/lang/Class")
	m1 := vm.DefineMethod(class, "getField", "(Ljava/lang/String;)Ljava/lang/reflect/Field;")
	m2 := vm.DefineMethod(class, "getMethod", "(Ljava/lang/String;)Ljava/lang/reflect/Method;")

	table := breakpoint.Table{
		{ClassName: "java/lang/Class", MethodName: "getField",
			Descriptor: "(Ljava/lang/String;)Ljava/lang/reflect/Field;", Handler: noopHandler()},
		{ClassName: "java/lang/Class", MethodName: "getMethod",
			Descriptor: "(Ljava/lang/String;)Ljava/lang/reflect/Method;", Handler: noopHandler()},
	}

	installed := breakpoint.NewInstalledSet()
	in := &breakpoint.Installer{VM: vm}
	in.Install(table, installed)

	assert.True(t, installed.Contains(m1))
	assert.True(t, installed.Contains(m2))
	assert.Equal(t, 1, vm.resolveClassCalls)
}

func TestInstalledSet_DuplicateInsertPanics(t *testing.T) {
	installed := breakpoint.NewInstalledSet()
	hook := &breakpoint.Hook{Method: vmhost.MethodID(1)}
	installed.Insert(hook)
	assert.Panics(t, func() { installed.Insert(hook) })
}

func TestRelease_ReleasesEveryInstalledClass(t *testing.T) {
	vm := fake.New()
	class := vm.DefineClass("java/lang/Class")
	method := vm.DefineMethod(class, "forName", "(Ljava/lang/String;)Ljava/lang/Class;")
	require.NoError(t, vm.AttachBreakpoint(method))

	installed := breakpoint.NewInstalledSet()
	installed.Insert(&breakpoint.Hook{Class: class, Method: method})

	breakpoint.Release(vm, installed)
	assert.True(t, vm.IsReleased(class))
}

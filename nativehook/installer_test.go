// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package nativehook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/nativehook"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
	"github.com/jvmtrace/agent/vmhost/fake"
)

func originalEntry(result vmhost.ObjectRef, ok bool) vmhost.NativeFunc {
	return func(vmhost.ThreadID, vmhost.ObjectRef, []vmhost.ObjectRef) (vmhost.ObjectRef, bool) {
		return result, ok
	}
}

func TestOnBindBeforeInstall_ThenInstallConsumesPending(t *testing.T) {
	vm := fake.New()
	class := vm.DefineClass("sun/misc/Unsafe")
	method := vm.DefineMethod(class, "objectFieldOffset", "(Ljava/lang/reflect/Field;)J")

	state := nativehook.NewState()

	replacement, ok := state.OnBind(method, originalEntry(42, true))
	assert.False(t, ok)
	assert.Nil(t, replacement)

	var handled bool
	spec := nativehook.NativeHookSpec{
		ClassName: "sun/misc/Unsafe", MethodName: "objectFieldOffset",
		Descriptor: "(Ljava/lang/reflect/Field;)J",
		Handler: nativehook.HandlerFunc(func(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit,
			receiver vmhost.ObjectRef, args []vmhost.ObjectRef, success bool) bool {
			handled = true
			assert.True(t, success)
			return true
		}),
	}

	in := &nativehook.Installer{VM: vm, State: state}
	in.Install(nativehook.Table{spec})

	hook, ok := state.Lookup(method)
	require.True(t, ok)
	original, ok := hook.Original()
	require.True(t, ok)
	result, ok := original(1, vmhost.NullRef, nil)
	assert.True(t, ok)
	assert.Equal(t, vmhost.ObjectRef(42), result)

	registered, ok := vm.NativeMethodFor(class, "objectFieldOffset", "(Ljava/lang/reflect/Field;)J")
	require.True(t, ok)
	_, _ = registered(1, vmhost.NullRef, nil)
	assert.True(t, handled)
}

func TestOnBindAfterInstall_SetsOriginalAndReturnsReplacement(t *testing.T) {
	vm := fake.New()
	class := vm.DefineClass("sun/misc/Unsafe")
	vm.DefineMethod(class, "objectFieldOffset", "(Ljava/lang/reflect/Field;)J")

	state := nativehook.NewState()
	spec := nativehook.NativeHookSpec{
		ClassName: "sun/misc/Unsafe", MethodName: "objectFieldOffset",
		Descriptor: "(Ljava/lang/reflect/Field;)J",
		Handler: nativehook.HandlerFunc(func(vmhost.VM, trace.Emitter, breakpoint.Hit,
			vmhost.ObjectRef, []vmhost.ObjectRef, bool) bool {
			return true
		}),
	}
	in := &nativehook.Installer{VM: vm, State: state}
	in.Install(nativehook.Table{spec})

	method, _ := vm.ResolveMethod(class, "objectFieldOffset", "(Ljava/lang/reflect/Field;)J")
	replacement, ok := state.OnBind(method, originalEntry(7, true))
	require.True(t, ok)
	require.NotNil(t, replacement)

	hook, _ := state.Lookup(method)
	original, ok := hook.Original()
	require.True(t, ok)
	result, ok := original(1, vmhost.NullRef, nil)
	assert.True(t, ok)
	assert.Equal(t, vmhost.ObjectRef(7), result)
}

func TestReplacement_ReinvokesOriginalOnFailure(t *testing.T) {
	vm := fake.New()
	class := vm.DefineClass("sun/misc/Unsafe")
	vm.DefineMethod(class, "objectFieldOffset", "(Ljava/lang/reflect/Field;)J")

	state := nativehook.NewState()
	calls := 0
	var observedSuccess []bool
	spec := nativehook.NativeHookSpec{
		ClassName: "sun/misc/Unsafe", MethodName: "objectFieldOffset",
		Descriptor: "(Ljava/lang/reflect/Field;)J",
		Handler: nativehook.HandlerFunc(func(vm vmhost.VM, emit trace.Emitter, hit breakpoint.Hit,
			receiver vmhost.ObjectRef, args []vmhost.ObjectRef, success bool) bool {
			observedSuccess = append(observedSuccess, success)
			return true
		}),
	}
	in := &nativehook.Installer{VM: vm, State: state}
	in.Install(nativehook.Table{spec})

	method, _ := vm.ResolveMethod(class, "objectFieldOffset", "(Ljava/lang/reflect/Field;)J")
	failing := func(vmhost.ThreadID, vmhost.ObjectRef, []vmhost.ObjectRef) (vmhost.ObjectRef, bool) {
		calls++
		return 0, false
	}
	replacement, ok := state.OnBind(method, failing)
	require.True(t, ok)

	_, callOK := replacement(1, vmhost.NullRef, nil)
	assert.False(t, callOK)
	assert.Equal(t, 2, calls, "original should be called once to observe, once more to re-raise the failure")
	assert.Equal(t, []bool{false}, observedSuccess)
}

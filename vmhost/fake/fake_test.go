// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package fake_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmtrace/agent/vmhost"
	"github.com/jvmtrace/agent/vmhost/fake"
)

func TestResolveClassAndMethod(t *testing.T) {
	vm := fake.New()
	class := vm.DefineClass("java/lang/ClassLoader")
	method := vm.DefineMethod(class, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")

	got, ok := vm.ResolveClass("java/lang/ClassLoader")
	require.True(t, ok)
	assert.Equal(t, class, got)

	gotMethod, ok := vm.ResolveMethod(class, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")
	require.True(t, ok)
	assert.Equal(t, method, gotMethod)

	_, ok = vm.ResolveMethod(class, "loadClass", "()V")
	assert.False(t, ok)
}

func TestIsAssignableFrom(t *testing.T) {
	vm := fake.New()
	object := vm.DefineClass("java/lang/Object")
	urlClassLoader := vm.DefineClass("java/net/URLClassLoader")
	vm.SetSuper(urlClassLoader, object)

	assert.True(t, vm.IsAssignableFrom(urlClassLoader, object))
	assert.True(t, vm.IsAssignableFrom(object, object))
	assert.False(t, vm.IsAssignableFrom(object, urlClassLoader))
}

func TestReinvokeClearsPendingFailure(t *testing.T) {
	vm := fake.New()
	class := vm.DefineClass("java/lang/Class")
	method := vm.DefineMethod(class, "forName", "(Ljava/lang/String;)Ljava/lang/Class;")
	target := vm.DefineClass("com/example/Widget")

	vm.SetInvoke(method, func(args []vmhost.ObjectRef) (vmhost.ObjectRef, bool) {
		return vmhost.ObjectRef(target), true
	})

	const thread vmhost.ThreadID = 1
	result, ok := vm.ReinvokeStatic(thread, method, nil, vmhost.NullRef, false)
	require.True(t, ok)
	assert.Equal(t, vmhost.ObjectRef(target), result)
	assert.False(t, vm.ClearPendingFailure(thread))
}

func TestReinvokeWithoutInvokeFailsAndClearsPendingFailure(t *testing.T) {
	vm := fake.New()
	class := vm.DefineClass("java/lang/Class")
	method := vm.DefineMethod(class, "forName", "(Ljava/lang/String;)Ljava/lang/Class;")

	const thread vmhost.ThreadID = 7
	_, ok := vm.ReinvokeStatic(thread, method, nil, vmhost.NullRef, false)
	assert.False(t, ok)
	assert.False(t, vm.ClearPendingFailure(thread))
	assert.False(t, vm.ClearPendingFailure(thread))
}

func TestArrayAndFieldIntrospection(t *testing.T) {
	vm := fake.New()
	s1 := vm.NewString("a")
	s2 := vm.NewString("b")
	arr := vm.NewArray([]vmhost.ObjectRef{s1, s2})

	length, ok := vm.ArrayLength(arr)
	require.True(t, ok)
	assert.Equal(t, 2, length)

	elem, ok := vm.ArrayElement(arr, 1)
	require.True(t, ok)
	val, ok := vm.StringValue(elem)
	require.True(t, ok)
	assert.Equal(t, "b", val)

	field := vm.NewFieldObject("com/example/Widget", "count")
	declClass, name, ok := vm.FieldInfo(field)
	require.True(t, ok)
	assert.Equal(t, "com/example/Widget", declClass)
	assert.Equal(t, "count", name)
}

func TestAttachBreakpointAndRegisterNativeMethod(t *testing.T) {
	vm := fake.New()
	class := vm.DefineClass("com/example/Widget")
	method := vm.DefineMethod(class, "build", "()V")

	require.NoError(t, vm.AttachBreakpoint(method))
	assert.True(t, vm.BreakpointAttached(method))

	called := false
	fn := func(thread vmhost.ThreadID, receiver vmhost.ObjectRef, args []vmhost.ObjectRef) (vmhost.ObjectRef, bool) {
		called = true
		return vmhost.NullRef, true
	}
	require.NoError(t, vm.RegisterNativeMethod(class, "nativeBuild", "()V", fn))

	registered, ok := vm.NativeMethodFor(class, "nativeBuild", "()V")
	require.True(t, ok)
	_, _ = registered(1, vmhost.NullRef, nil)
	assert.True(t, called)
}

func TestReleaseTracksUnload(t *testing.T) {
	vm := fake.New()
	class := vm.DefineClass("com/example/Widget")
	assert.False(t, vm.IsReleased(class))
	vm.Release(class)
	assert.True(t, vm.IsReleased(class))
}

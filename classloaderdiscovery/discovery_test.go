// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package classloaderdiscovery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/classloaderdiscovery"
	"github.com/jvmtrace/agent/vmhost/fake"
)

func TestScan_InstallsHookOnClassLoaderSubclass(t *testing.T) {
	vm := fake.New()
	root := vm.DefineClass("java/lang/ClassLoader")
	plain := vm.DefineClass("PlainObject")
	userLoader := vm.DefineClass("UserLoader")
	vm.SetSuper(userLoader, root)
	vm.DefineMethod(userLoader, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")

	installed := breakpoint.NewInstalledSet()
	d, ok := classloaderdiscovery.New(vm, installed)
	require.True(t, ok)
	d.Scan()

	method, ok := vm.ResolveMethod(userLoader, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")
	require.True(t, ok)
	assert.True(t, installed.Contains(method))
	assert.True(t, vm.BreakpointAttached(method))

	_ = plain // not assignable to root: must not be touched
}

func TestScan_SkipsClassWithoutLoadClass(t *testing.T) {
	vm := fake.New()
	root := vm.DefineClass("java/lang/ClassLoader")
	userLoader := vm.DefineClass("UserLoader")
	vm.SetSuper(userLoader, root)
	// No loadClass method defined.

	installed := breakpoint.NewInstalledSet()
	d, ok := classloaderdiscovery.New(vm, installed)
	require.True(t, ok)
	d.Scan()

	assert.Empty(t, installed.All())
}

func TestOnClassPrepare_InstallsIncrementally(t *testing.T) {
	vm := fake.New()
	root := vm.DefineClass("java/lang/ClassLoader")

	installed := breakpoint.NewInstalledSet()
	d, ok := classloaderdiscovery.New(vm, installed)
	require.True(t, ok)
	d.Scan()
	assert.Empty(t, installed.All())

	laterLoader := vm.DefineClass("LaterLoader")
	vm.SetSuper(laterLoader, root)
	vm.DefineMethod(laterLoader, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")

	d.OnClassPrepare(laterLoader)

	method, ok := vm.ResolveMethod(laterLoader, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")
	require.True(t, ok)
	assert.True(t, installed.Contains(method))
}

func TestScan_DoesNotReinstallAlreadyDiscovered(t *testing.T) {
	vm := fake.New()
	root := vm.DefineClass("java/lang/ClassLoader")
	userLoader := vm.DefineClass("UserLoader")
	vm.SetSuper(userLoader, root)
	vm.DefineMethod(userLoader, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")

	installed := breakpoint.NewInstalledSet()
	d, ok := classloaderdiscovery.New(vm, installed)
	require.True(t, ok)
	d.Scan()
	d.Scan() // duplicate scan must not panic via InstalledSet.Insert's duplicate check
}

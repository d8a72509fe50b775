// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package loadclass_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmtrace/agent/loadclass"
	"github.com/jvmtrace/agent/vmhost"
	"github.com/jvmtrace/agent/vmhost/fake"
)

// countingVM wraps fake.VM to count Bytecode/ConstantPool calls, letting
// tests assert the "no re-execute constant-pool parsing" property (spec.md
// §8) without a mocking framework.
type countingVM struct {
	*fake.VM
	bytecodeCalls int
	poolCalls     int
}

func (v *countingVM) Bytecode(m vmhost.MethodID) ([]byte, func(), bool) {
	v.bytecodeCalls++
	return v.VM.Bytecode(m)
}

func (v *countingVM) ConstantPool(c vmhost.ClassRef) ([]byte, func(), bool) {
	v.poolCalls++
	return v.VM.ConstantPool(c)
}

// classFileConstantPool builds a minimal constant pool with a single
// Methodref at index 1 pointing at (name, descriptor).
func classFileConstantPool(name, descriptor string) []byte {
	// indices: 1=Methodref(class=2, nameAndType=3), 2=Class(name_utf8=4),
	// 3=NameAndType(name_utf8=5, descriptor_utf8=6), 4="X", 5=name, 6=descriptor
	buf := []byte{}
	u2 := func(v uint16) { buf = append(buf, byte(v>>8), byte(v)) }
	utf8 := func(s string) {
		buf = append(buf, 1)
		u2(uint16(len(s)))
		buf = append(buf, []byte(s)...)
	}

	buf = append(buf, 10) // Methodref
	u2(2)
	u2(3)
	buf = append(buf, 7) // Class
	u2(4)
	buf = append(buf, 12) // NameAndType
	u2(5)
	u2(6)
	utf8("X")
	utf8(name)
	utf8(descriptor)
	return buf
}

func TestClassify_ExplicitInvokevirtualAccepted(t *testing.T) {
	base := fake.New()
	userLoader := base.DefineClass("UserLoader")
	loaderSuper := base.DefineClass("java/lang/ClassLoader")
	userMethod := base.DefineMethod(userLoader, "load", "(Ljava/lang/String;)Ljava/lang/Class;")

	code := make([]byte, 10)
	code[7] = 0xb6
	code[8], code[9] = 0, 1
	base.SetBytecode(userMethod, code)
	base.SetConstantPool(userLoader, classFileConstantPool("loadClass", "(Ljava/lang/String;)Ljava/lang/Class;"))

	vm := &countingVM{VM: base}
	thread := vmhost.ThreadID(1)
	base.SetFrames(thread, []vmhost.Frame{{Method: userMethod, BCI: 7}})

	sites := loadclass.NewExplicitCallSiteSet()
	f := &loadclass.Filter{VM: vm, Sites: sites, MethodName: "loadClass",
		Descriptor: "(Ljava/lang/String;)Ljava/lang/Class;"}

	assert.True(t, f.Classify(thread, loaderSuper))
	assert.Equal(t, 1, vm.bytecodeCalls)
	assert.Equal(t, 1, vm.poolCalls)

	// Re-hitting the same (method, bci) must not reparse.
	assert.True(t, f.Classify(thread, loaderSuper))
	assert.Equal(t, 1, vm.bytecodeCalls)
	assert.Equal(t, 1, vm.poolCalls)
}

func TestClassify_NonInvokevirtualRejectedForever(t *testing.T) {
	base := fake.New()
	userLoader := base.DefineClass("UserLoader")
	loaderSuper := base.DefineClass("java/lang/ClassLoader")
	userMethod := base.DefineMethod(userLoader, "internal", "()V")

	code := make([]byte, 10)
	code[3] = 0x01 // not invokevirtual
	base.SetBytecode(userMethod, code)

	thread := vmhost.ThreadID(1)
	base.SetFrames(thread, []vmhost.Frame{{Method: userMethod, BCI: 3}})

	sites := loadclass.NewExplicitCallSiteSet()
	f := &loadclass.Filter{VM: base, Sites: sites, MethodName: "loadClass",
		Descriptor: "(Ljava/lang/String;)Ljava/lang/Class;"}

	require.False(t, f.Classify(thread, loaderSuper))
	assert.False(t, sites.Contains(loadclass.MethodLocation{Method: userMethod, BCI: 3}))
}

func TestClassify_RecursiveLoaderCallSuppressed(t *testing.T) {
	base := fake.New()
	loaderSuper := base.DefineClass("java/lang/ClassLoader")
	innerLoader := base.DefineClass("InnerLoader")
	base.SetSuper(innerLoader, loaderSuper)
	innerMethod := base.DefineMethod(innerLoader, "loadClassInternal", "(Ljava/lang/String;)Ljava/lang/Class;")

	thread := vmhost.ThreadID(1)
	base.SetFrames(thread, []vmhost.Frame{{Method: innerMethod, BCI: 0}})

	sites := loadclass.NewExplicitCallSiteSet()
	f := &loadclass.Filter{VM: base, Sites: sites, MethodName: "loadClass",
		Descriptor: "(Ljava/lang/String;)Ljava/lang/Class;"}

	assert.False(t, f.Classify(thread, loaderSuper))
}

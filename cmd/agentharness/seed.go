// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/jvmtrace/agent/vmhost/fake"

// seedMandatoryTable defines every class and method catalog.BreakpointTable
// and catalog.NativeTable name as a mandatory (non-Optional) entry, so this
// harness's Load can run against vmhost/fake without the real JVM classes
// those entries expect to resolve. A real build supplies a cgo-backed VM
// where every one of these already exists; this fixture exists only
// because there is no such VM available in this module (see DESIGN.md).
func seedMandatoryTable(vm *fake.VM) {
	classMethod := vm.DefineClass("java/lang/Class")
	vm.DefineMethod(classMethod, "forName", "(Ljava/lang/String;)Ljava/lang/Class;")
	vm.DefineMethod(classMethod, "getField", "(Ljava/lang/String;)Ljava/lang/reflect/Field;")
	vm.DefineMethod(classMethod, "getDeclaredField", "(Ljava/lang/String;)Ljava/lang/reflect/Field;")
	vm.DefineMethod(classMethod, "getMethod", "(Ljava/lang/String;[Ljava/lang/Class;)Ljava/lang/reflect/Method;")
	vm.DefineMethod(classMethod, "getDeclaredMethod", "(Ljava/lang/String;[Ljava/lang/Class;)Ljava/lang/reflect/Method;")
	vm.DefineMethod(classMethod, "getConstructor", "([Ljava/lang/Class;)Ljava/lang/reflect/Constructor;")
	vm.DefineMethod(classMethod, "getDeclaredConstructor", "([Ljava/lang/Class;)Ljava/lang/reflect/Constructor;")
	vm.DefineMethod(classMethod, "getFields", "()[Ljava/lang/reflect/Field;")
	vm.DefineMethod(classMethod, "getDeclaredFields", "()[Ljava/lang/reflect/Field;")
	vm.DefineMethod(classMethod, "getMethods", "()[Ljava/lang/reflect/Method;")
	vm.DefineMethod(classMethod, "getDeclaredMethods", "()[Ljava/lang/reflect/Method;")
	vm.DefineMethod(classMethod, "getConstructors", "()[Ljava/lang/reflect/Constructor;")
	vm.DefineMethod(classMethod, "getDeclaredConstructors", "()[Ljava/lang/reflect/Constructor;")
	vm.DefineMethod(classMethod, "getClasses", "()[Ljava/lang/Class;")
	vm.DefineMethod(classMethod, "getDeclaredClasses", "()[Ljava/lang/Class;")
	vm.DefineMethod(classMethod, "getResource", "(Ljava/lang/String;)Ljava/net/URL;")
	vm.DefineMethod(classMethod, "getResourceAsStream", "(Ljava/lang/String;)Ljava/io/InputStream;")

	classLoader := vm.DefineClass("java/lang/ClassLoader")
	vm.DefineMethod(classLoader, "getResource", "(Ljava/lang/String;)Ljava/net/URL;")
	vm.DefineMethod(classLoader, "getResourceAsStream", "(Ljava/lang/String;)Ljava/io/InputStream;")
	vm.DefineMethod(classLoader, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;")

	proxy := vm.DefineClass("java/lang/reflect/Proxy")
	vm.DefineMethod(proxy, "newProxyInstance",
		"(Ljava/lang/ClassLoader;[Ljava/lang/Class;Ljava/lang/reflect/InvocationHandler;)Ljava/lang/Object;")

	lookup := vm.DefineClass("java/lang/invoke/MethodHandles$Lookup")
	vm.DefineMethod(lookup, "findVirtual",
		"(Ljava/lang/Class;Ljava/lang/String;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/MethodHandle;")
	vm.DefineMethod(lookup, "findStatic",
		"(Ljava/lang/Class;Ljava/lang/String;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/MethodHandle;")
	vm.DefineMethod(lookup, "findConstructor",
		"(Ljava/lang/Class;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/MethodHandle;")

	resourceBundle := vm.DefineClass("java/util/ResourceBundle")
	vm.DefineMethod(resourceBundle, "getBundle", "(Ljava/lang/String;)Ljava/util/ResourceBundle;")
}

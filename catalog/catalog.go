// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog assembles spec.md §4.1's BreakpointTable and its native
// counterpart: the static list of (class, method, descriptor) triples this
// agent intercepts, each bound to the handlers package's implementation.
// It is the one place the method signatures named throughout spec.md §4.1,
// §8 and SPEC_FULL.md's Supplemented Features are spelled out concretely.
package catalog // import "github.com/jvmtrace/agent/catalog"

import (
	"github.com/jvmtrace/agent/breakpoint"
	"github.com/jvmtrace/agent/handlers"
	"github.com/jvmtrace/agent/nativehook"
	"github.com/jvmtrace/agent/vmhost"
)

// Internal (slash-separated) class names used to resolve table entries
// against the host runtime. Trace output uses canonical dotted names
// instead — handlers resolve those from the live objects they observe, not
// from these constants.
const (
	classClass             = "java/lang/Class"
	classLoaderClass       = "java/lang/ClassLoader"
	proxyClass             = "java/lang/reflect/Proxy"
	unsafeClass            = "sun/misc/Unsafe"
	lookupClass            = "java/lang/invoke/MethodHandles$Lookup"
	resourceBundleClass    = "java/util/ResourceBundle"
	objectStreamClassClass = "java/io/ObjectStreamClass"
	serializableClass      = "java/io/Serializable"
)

// getBundleImplDescriptor is the internal trampoline ResourceBundle.getBundle
// funnels through on runtimes that carry a Module-aware overload; its
// presence selects the deeper, 4-frame caller walk (spec.md §4.1, §9).
const getBundleImplDescriptor = "(Ljava/lang/Module;Ljava/lang/Module;Ljava/lang/String;" +
	"Ljava/util/Locale;Ljava/lang/ClassLoader;Ljava/util/ResourceBundle$Control;)Ljava/util/ResourceBundle;"

// BreakpointTable builds the static table spec.md §4.2's installer walks.
// A handful of handlers carry auxiliary runtime-resolved state
// (SerializationHandler's Serializable marker, ResourceBundleHandler's
// trampoline identity) that only vm can supply, so the table is built
// against a live VM rather than declared as a package-level literal.
func BreakpointTable(vm vmhost.VM) breakpoint.Table {
	serialization := handlers.SerializationHandler{}
	if ref, ok := vm.ResolveClass(serializableClass); ok {
		serialization.Serializable, serialization.HaveSerializable = ref, true
	}

	resourceBundle := handlers.ResourceBundleHandler{}
	if rb, ok := vm.ResolveClass(resourceBundleClass); ok {
		if trampoline, ok := vm.ResolveMethod(rb, "getBundleImpl", getBundleImplDescriptor); ok {
			resourceBundle.DeepTrampoline = trampoline
		}
	}

	return breakpoint.Table{
		{ClassName: classClass, MethodName: "forName",
			Descriptor: "(Ljava/lang/String;)Ljava/lang/Class;", Handler: handlers.ForName},
		{ClassName: classClass, MethodName: "forName",
			Descriptor: "(Ljava/lang/String;ZLjava/lang/ClassLoader;)Ljava/lang/Class;",
			Handler:    handlers.ForName, Optional: true},

		{ClassName: classClass, MethodName: "getField",
			Descriptor: "(Ljava/lang/String;)Ljava/lang/reflect/Field;", Handler: handlers.GetField},
		{ClassName: classClass, MethodName: "getDeclaredField",
			Descriptor: "(Ljava/lang/String;)Ljava/lang/reflect/Field;", Handler: handlers.GetDeclaredField},
		{ClassName: classClass, MethodName: "getMethod",
			Descriptor: "(Ljava/lang/String;[Ljava/lang/Class;)Ljava/lang/reflect/Method;",
			Handler:    handlers.GetMethod},
		{ClassName: classClass, MethodName: "getDeclaredMethod",
			Descriptor: "(Ljava/lang/String;[Ljava/lang/Class;)Ljava/lang/reflect/Method;",
			Handler:    handlers.GetDeclaredMethod},
		{ClassName: classClass, MethodName: "getConstructor",
			Descriptor: "([Ljava/lang/Class;)Ljava/lang/reflect/Constructor;", Handler: handlers.GetConstructor},
		{ClassName: classClass, MethodName: "getDeclaredConstructor",
			Descriptor: "([Ljava/lang/Class;)Ljava/lang/reflect/Constructor;",
			Handler:    handlers.GetDeclaredConstructor},

		{ClassName: classClass, MethodName: "getFields",
			Descriptor: "()[Ljava/lang/reflect/Field;", Handler: handlers.GetFields},
		{ClassName: classClass, MethodName: "getDeclaredFields",
			Descriptor: "()[Ljava/lang/reflect/Field;", Handler: handlers.GetDeclaredFields},
		{ClassName: classClass, MethodName: "getMethods",
			Descriptor: "()[Ljava/lang/reflect/Method;", Handler: handlers.GetMethods},
		{ClassName: classClass, MethodName: "getDeclaredMethods",
			Descriptor: "()[Ljava/lang/reflect/Method;", Handler: handlers.GetDeclaredMethods},
		{ClassName: classClass, MethodName: "getConstructors",
			Descriptor: "()[Ljava/lang/reflect/Constructor;", Handler: handlers.GetConstructors},
		{ClassName: classClass, MethodName: "getDeclaredConstructors",
			Descriptor: "()[Ljava/lang/reflect/Constructor;", Handler: handlers.GetDeclaredConstructors},
		{ClassName: classClass, MethodName: "getClasses",
			Descriptor: "()[Ljava/lang/Class;", Handler: handlers.GetClasses},
		{ClassName: classClass, MethodName: "getDeclaredClasses",
			Descriptor: "()[Ljava/lang/Class;", Handler: handlers.GetDeclaredClasses},

		{ClassName: classClass, MethodName: "getEnclosingMethod",
			Descriptor: "()Ljava/lang/reflect/Method;", Handler: handlers.EnclosingMethod, Optional: true},

		{ClassName: classClass, MethodName: "getResource",
			Descriptor: "(Ljava/lang/String;)Ljava/net/URL;", Handler: handlers.GetResource},
		{ClassName: classClass, MethodName: "getResourceAsStream",
			Descriptor: "(Ljava/lang/String;)Ljava/io/InputStream;", Handler: handlers.GetResourceAsStream},
		{ClassName: classLoaderClass, MethodName: "getResource",
			Descriptor: "(Ljava/lang/String;)Ljava/net/URL;", Handler: handlers.ClassLoaderGetResource},
		{ClassName: classLoaderClass, MethodName: "getResourceAsStream",
			Descriptor: "(Ljava/lang/String;)Ljava/io/InputStream;", Handler: handlers.ClassLoaderGetResourceAsStream},

		{ClassName: proxyClass, MethodName: "newProxyInstance",
			Descriptor: "(Ljava/lang/ClassLoader;[Ljava/lang/Class;Ljava/lang/reflect/InvocationHandler;)" +
				"Ljava/lang/Object;",
			Handler: handlers.NewProxyInstance},
		{ClassName: proxyClass, MethodName: "getProxyClass",
			Descriptor: "(Ljava/lang/ClassLoader;[Ljava/lang/Class;)Ljava/lang/Class;",
			Handler:    handlers.GetProxyClass, Optional: true},

		{ClassName: lookupClass, MethodName: "findVirtual",
			Descriptor: "(Ljava/lang/Class;Ljava/lang/String;Ljava/lang/invoke/MethodType;)" +
				"Ljava/lang/invoke/MethodHandle;",
			Handler: handlers.FindVirtual},
		{ClassName: lookupClass, MethodName: "findStatic",
			Descriptor: "(Ljava/lang/Class;Ljava/lang/String;Ljava/lang/invoke/MethodType;)" +
				"Ljava/lang/invoke/MethodHandle;",
			Handler: handlers.FindStatic},
		{ClassName: lookupClass, MethodName: "findConstructor",
			Descriptor: "(Ljava/lang/Class;Ljava/lang/invoke/MethodType;)Ljava/lang/invoke/MethodHandle;",
			Handler:    handlers.FindConstructor},

		{ClassName: unsafeClass, MethodName: "objectFieldOffset",
			Descriptor: "(Ljava/lang/reflect/Field;)J", Handler: handlers.ObjectFieldOffsetByField, Optional: true},
		{ClassName: unsafeClass, MethodName: "objectFieldOffset",
			Descriptor: "(Ljava/lang/Class;Ljava/lang/String;)J",
			Handler:    handlers.ObjectFieldOffsetByClassAndName, Optional: true},

		{ClassName: objectStreamClassClass, MethodName: "<init>",
			Descriptor: "(Ljava/lang/Class;)V", Handler: serialization, Optional: true},

		{ClassName: resourceBundleClass, MethodName: "getBundle",
			Descriptor: "(Ljava/lang/String;)Ljava/util/ResourceBundle;", Handler: resourceBundle},
	}
}

// NativeTable builds the table of methods hooked via function-pointer
// substitution rather than a breakpoint (spec.md §4.3): on a JDK 8-era
// host, objectFieldOffset's internal entry point is native. It carries a
// distinct method name from the bytecode-breakpoint variant above so a
// runtime where both happen to resolve never installs the same method
// identity into both InstalledSet and NativeInstalledSet (spec.md §8's
// "no method identity appears in both" invariant).
func NativeTable() nativehook.Table {
	return nativehook.Table{
		{ClassName: unsafeClass, MethodName: "objectFieldOffset0",
			Descriptor: "(Ljava/lang/reflect/Field;)J",
			Handler:    handlers.ObjectFieldOffsetNative, Optional: true},
	}
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package vmhost

// VM is the inbound capability surface spec.md §6 requires of the host
// runtime. It generalizes the teacher repository's interpreter.EbpfHandler
// (an interface abstracting over eBPF map operations for a single process)
// into an abstraction over JVMTI/JNI-equivalent operations for a single
// managed runtime. Production code is expected to bind this to cgo/JNI
// callouts; tests bind it to vmhost/fake.
type VM interface {
	// --- MethodResolver / installer (spec §4.2) ---

	// ResolveClass resolves a class by internal name (e.g. "java/lang/Class").
	// ok is false if the class does not exist in this runtime.
	ResolveClass(name string) (ClassRef, bool)

	// ResolveMethod resolves a (name, descriptor) pair against class to a
	// method identity. ok is false if no such method exists.
	ResolveMethod(class ClassRef, name, descriptor string) (MethodID, bool)

	// IsAssignableFrom reports whether sub is the same as, or a subtype of,
	// super. Used by ClassLoaderDiscovery and the loadClass filter.
	IsAssignableFrom(sub, super ClassRef) bool

	// ClassName returns the internal (slash-separated) name of class.
	ClassName(class ClassRef) string

	// Release drops a tracked global reference to class, invoked at agent
	// unload for every Hook still holding one.
	Release(class ClassRef)

	// LoadedClasses enumerates every class currently loaded, used once by
	// ClassLoaderDiscovery's agent-ready scan (spec §4.6).
	LoadedClasses() []ClassRef

	// --- BreakpointInstaller / NativeBindingInterceptor ---

	// AttachBreakpoint installs a hook at bytecode offset 0 of method and
	// arranges for hook-hit events to be delivered once breakpoint event
	// notification is enabled.
	AttachBreakpoint(method MethodID) error

	// RegisterNativeMethod substitutes fn as the entry point the runtime
	// calls for the given native method, returning whatever registration
	// error the runtime's native-method-registration interface reports.
	RegisterNativeMethod(class ClassRef, name, descriptor string, fn NativeFunc) error

	// EnableBreakpointEvents, EnableNativeBindEvents and
	// EnableClassPrepareEvents turn on delivery of the three event kinds
	// spec §5 names. The installer enables breakpoint events only after
	// every table entry has been installed (spec §4.2 "Ordering").
	EnableBreakpointEvents()
	EnableNativeBindEvents()
	EnableClassPrepareEvents()

	// --- ArgumentShim (spec §4.1 "Argument extraction") ---

	// ReadLocal reads a local variable slot of the frame that is currently
	// stopped at a breakpoint on thread. ok is false for a missing local.
	ReadLocal(thread ThreadID, slot int) (ObjectRef, bool)

	// Argument reads the pos'th argument (0 = receiver for an instance
	// method) via operand position rather than local-variable index.
	Argument(thread ThreadID, pos int) (ObjectRef, bool)

	// CallerFrames walks up to maxDepth frames above the intercepted
	// method on thread, nearest first.
	CallerFrames(thread ThreadID, maxDepth int) []Frame

	// DirectCallerClass is shorthand for CallerFrames(thread, 1) followed
	// by resolving the declaring class of that single frame's method.
	DirectCallerClass(thread ThreadID) (ClassRef, bool)

	// --- object introspection ---

	ClassOf(obj ObjectRef) (ClassRef, bool)
	ClassNameOfObject(obj ObjectRef) (string, bool)
	StringValue(obj ObjectRef) (string, bool)
	IsNullRef(obj ObjectRef) bool
	ArrayLength(obj ObjectRef) (int, bool)
	ArrayElement(obj ObjectRef, index int) (ObjectRef, bool)
	IsSameObject(a, b ObjectRef) bool

	// FieldInfo reads the declaring class and name of a java.lang.reflect.Field.
	FieldInfo(field ObjectRef) (declaringClass, name string, ok bool)

	// MethodInfo reads the declaring class, name and descriptor of a
	// java.lang.reflect.Method or Constructor (spec §4.1 "Enclosing-method").
	MethodInfo(method ObjectRef) (declaringClass, name, descriptor string, ok bool)

	// ClassLoaderOf returns the defining classloader of class, or ok=false
	// if it is the boot classloader (the spec's "null" classloader).
	ClassLoaderOf(class ClassRef) (ObjectRef, bool)

	// Superclass returns class's direct superclass, or ok=false if class is
	// java.lang.Object (or another class with no superclass). Used by the
	// serialization constructor handler to walk class-data-layout order
	// (spec §4.1 "Serialization constructor handler").
	Superclass(class ClassRef) (ClassRef, bool)

	// ClassFromClassObject resolves a java.lang.Class instance to the
	// ClassRef it denotes, as opposed to ClassOf which would report
	// java.lang.Class itself. Used wherever a handler receives a Class
	// argument it must inspect rather than merely name.
	ClassFromClassObject(obj ObjectRef) (ClassRef, bool)

	// --- re-invocation (spec §4.1 "Re-invocation contract") ---

	// Reinvoke calls method again on receiver with args, optionally
	// resolved against the classloader of the direct caller rather than
	// the agent's own classloader when useCallerClassLoader is set (for
	// caller-sensitive APIs). ok is false if the call raised a failure;
	// the failure is always cleared from thread's pending-failure state
	// before Reinvoke returns, per spec §4.1's re-invocation contract.
	Reinvoke(thread ThreadID, method MethodID, receiver ObjectRef, args []ObjectRef,
		useCallerClassLoader bool) (result ObjectRef, ok bool)

	// ReinvokeStatic is Reinvoke for a static method (no receiver). The
	// classLoader argument, when haveClassLoader is set, overrides the
	// classloader used to resolve caller-sensitive behavior (used by
	// Class.forName).
	ReinvokeStatic(thread ThreadID, method MethodID, args []ObjectRef,
		classLoader ObjectRef, haveClassLoader bool) (result ObjectRef, ok bool)

	// NewInstance invokes a constructor, used by the serialization handler
	// to construct an ObjectStreamClass for observation.
	NewInstance(class ClassRef, ctor MethodID, args []ObjectRef) (ObjectRef, bool)

	// ClearPendingFailure clears any failure raised on thread by our own
	// calls, reporting whether one was pending. DispatchCore's exit
	// postcondition (spec §4.4 step 6) requires this to return false.
	ClearPendingFailure(thread ThreadID) bool

	// --- bytecode / constant pool (BytecodeCallsiteFilter, spec §4.5/§4.7) ---

	// Bytecode returns method's code array. release must be called exactly
	// once the caller is done reading, even on an error path.
	Bytecode(method MethodID) (code []byte, release func(), ok bool)

	// ConstantPool returns class's constant pool in the class-file wire
	// format. release must be called exactly once.
	ConstantPool(class ClassRef) (pool []byte, release func(), ok bool)

	// DeclaringClass resolves method's declaring class, name and descriptor
	// (used by the enclosing-method handler and the loadClass filter).
	DeclaringClass(method MethodID) (class ClassRef, name, descriptor string, ok bool)
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package fake implements vmhost.VM entirely in memory, for use by every
// other package's tests. The core packages never import it; besides the
// tests, only cmd/agentharness uses it, as the VM its Load/Unload
// lifecycle runs against. It is the test double that lets the core
// packages stay free of any real JNI/JVMTI dependency, mirroring how the teacher repository
// keeps interpreter.EbpfHandler implementations separate from its tests.
package fake // import "github.com/jvmtrace/agent/vmhost/fake"

import (
	"sync"

	"github.com/jvmtrace/agent/vmhost"
)

// Method is a registered method: its owning class, name, descriptor, and
// (for re-invocation tests) the canned result/failure it produces.
type Method struct {
	Class      vmhost.ClassRef
	Name       string
	Descriptor string

	// Invoke, if set, is called by Reinvoke/ReinvokeStatic/NewInstance to
	// compute a result for this method. Tests that don't care about
	// re-invocation can leave it nil; Reinvoke then returns ok=false.
	Invoke func(args []vmhost.ObjectRef) (vmhost.ObjectRef, bool)
}

// Object is a registered fake runtime object: optionally a class instance,
// a boxed string, or an array.
type Object struct {
	Class       vmhost.ClassRef
	String      string
	IsString    bool
	Array       []vmhost.ObjectRef
	IsArray     bool
	Field       *FieldInfo
	MethodInfo  *MethodInfo
	ClassValue  vmhost.ClassRef // set when this object is a java.lang.Class instance
	IsClassValue bool
}

// FieldInfo backs FieldInfo() for java.lang.reflect.Field fakes.
type FieldInfo struct {
	DeclaringClass string
	Name           string
}

// MethodInfo backs MethodInfo() for java.lang.reflect.Method/Constructor fakes.
type MethodInfo struct {
	DeclaringClass string
	Name           string
	Descriptor     string
}

// VM is an in-memory fake satisfying vmhost.VM. The zero value is not
// usable; construct with New.
type VM struct {
	mu sync.Mutex

	nextClass  uint64
	nextMethod uint64
	nextObject uint64

	classByName map[string]vmhost.ClassRef
	classNames  map[vmhost.ClassRef]string
	supers      map[vmhost.ClassRef]map[vmhost.ClassRef]bool

	methods      map[vmhost.MethodID]*Method
	methodLookup map[vmhost.ClassRef]map[string]vmhost.MethodID // "name\x00descriptor" -> id

	objects map[vmhost.ObjectRef]*Object

	classLoaderOf map[vmhost.ClassRef]vmhost.ObjectRef
	superclassOf  map[vmhost.ClassRef]vmhost.ClassRef

	breakpoints   map[vmhost.MethodID]bool
	nativeMethods map[vmhost.MethodID]vmhost.NativeFunc

	breakpointEventsEnabled   bool
	nativeBindEventsEnabled   bool
	classPrepareEventsEnabled bool

	locals    map[vmhost.ThreadID]map[int]vmhost.ObjectRef
	arguments map[vmhost.ThreadID]map[int]vmhost.ObjectRef
	frames    map[vmhost.ThreadID][]vmhost.Frame

	pendingFailure map[vmhost.ThreadID]bool

	bytecode map[vmhost.MethodID][]byte
	pool     map[vmhost.ClassRef][]byte

	released map[vmhost.ClassRef]bool
}

// New returns an empty fake VM.
func New() *VM {
	return &VM{
		classByName:   make(map[string]vmhost.ClassRef),
		classNames:    make(map[vmhost.ClassRef]string),
		supers:        make(map[vmhost.ClassRef]map[vmhost.ClassRef]bool),
		methods:       make(map[vmhost.MethodID]*Method),
		methodLookup:  make(map[vmhost.ClassRef]map[string]vmhost.MethodID),
		objects:       make(map[vmhost.ObjectRef]*Object),
		classLoaderOf: make(map[vmhost.ClassRef]vmhost.ObjectRef),
		superclassOf:  make(map[vmhost.ClassRef]vmhost.ClassRef),
		breakpoints:   make(map[vmhost.MethodID]bool),
		nativeMethods: make(map[vmhost.MethodID]vmhost.NativeFunc),
		locals:        make(map[vmhost.ThreadID]map[int]vmhost.ObjectRef),
		arguments:     make(map[vmhost.ThreadID]map[int]vmhost.ObjectRef),
		frames:        make(map[vmhost.ThreadID][]vmhost.Frame),
		pendingFailure: make(map[vmhost.ThreadID]bool),
		bytecode:      make(map[vmhost.MethodID][]byte),
		pool:          make(map[vmhost.ClassRef][]byte),
		released:      make(map[vmhost.ClassRef]bool),
	}
}

// --- test setup helpers (not part of vmhost.VM) ---

// DefineClass registers a class by internal name and returns its ref.
func (v *VM) DefineClass(name string) vmhost.ClassRef {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextClass++
	ref := vmhost.ClassRef(v.nextClass)
	v.classByName[name] = ref
	v.classNames[ref] = name
	v.supers[ref] = map[vmhost.ClassRef]bool{ref: true}
	return ref
}

// SetSuper records that sub is assignable to super (and transitively to
// whatever super is itself assignable to).
func (v *VM) SetSuper(sub, super vmhost.ClassRef) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for s := range v.supers[super] {
		v.supers[sub][s] = true
	}
}

// DefineMethod registers a method on class and returns its id.
func (v *VM) DefineMethod(class vmhost.ClassRef, name, descriptor string) vmhost.MethodID {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextMethod++
	id := vmhost.MethodID(v.nextMethod)
	v.methods[id] = &Method{Class: class, Name: name, Descriptor: descriptor}
	if v.methodLookup[class] == nil {
		v.methodLookup[class] = make(map[string]vmhost.MethodID)
	}
	v.methodLookup[class][name+"\x00"+descriptor] = id
	return id
}

// SetInvoke attaches a re-invocation result function to a previously
// defined method.
func (v *VM) SetInvoke(m vmhost.MethodID, fn func(args []vmhost.ObjectRef) (vmhost.ObjectRef, bool)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.methods[m].Invoke = fn
}

// NewObject registers a new fake object of the given class and returns its ref.
func (v *VM) NewObject(class vmhost.ClassRef) vmhost.ObjectRef {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextObject++
	ref := vmhost.ObjectRef(v.nextObject)
	v.objects[ref] = &Object{Class: class}
	return ref
}

// NewString registers a fake java.lang.String instance.
func (v *VM) NewString(s string) vmhost.ObjectRef {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextObject++
	ref := vmhost.ObjectRef(v.nextObject)
	v.objects[ref] = &Object{String: s, IsString: true}
	return ref
}

// NewArray registers a fake array backed by elems.
func (v *VM) NewArray(elems []vmhost.ObjectRef) vmhost.ObjectRef {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextObject++
	ref := vmhost.ObjectRef(v.nextObject)
	v.objects[ref] = &Object{Array: elems, IsArray: true}
	return ref
}

// NewFieldObject registers a fake java.lang.reflect.Field instance.
func (v *VM) NewFieldObject(declaringClass, name string) vmhost.ObjectRef {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextObject++
	ref := vmhost.ObjectRef(v.nextObject)
	v.objects[ref] = &Object{Field: &FieldInfo{DeclaringClass: declaringClass, Name: name}}
	return ref
}

// NewMethodObject registers a fake java.lang.reflect.Method/Constructor instance.
func (v *VM) NewMethodObject(declaringClass, name, descriptor string) vmhost.ObjectRef {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextObject++
	ref := vmhost.ObjectRef(v.nextObject)
	v.objects[ref] = &Object{MethodInfo: &MethodInfo{DeclaringClass: declaringClass, Name: name, Descriptor: descriptor}}
	return ref
}

// SetClassLoader records class's defining classloader object.
func (v *VM) SetClassLoader(class vmhost.ClassRef, loader vmhost.ObjectRef) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.classLoaderOf[class] = loader
}

// SetSuperclass records class's direct superclass for Superclass().
func (v *VM) SetSuperclass(class, super vmhost.ClassRef) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.superclassOf[class] = super
}

// NewClassObject registers a fake java.lang.Class instance denoting class.
func (v *VM) NewClassObject(class vmhost.ClassRef) vmhost.ObjectRef {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextObject++
	ref := vmhost.ObjectRef(v.nextObject)
	v.objects[ref] = &Object{ClassValue: class, IsClassValue: true}
	return ref
}

// SetLocal sets the value ReadLocal(thread, slot) will return.
func (v *VM) SetLocal(thread vmhost.ThreadID, slot int, val vmhost.ObjectRef) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.locals[thread] == nil {
		v.locals[thread] = make(map[int]vmhost.ObjectRef)
	}
	v.locals[thread][slot] = val
}

// SetArgument sets the value Argument(thread, pos) will return.
func (v *VM) SetArgument(thread vmhost.ThreadID, pos int, val vmhost.ObjectRef) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.arguments[thread] == nil {
		v.arguments[thread] = make(map[int]vmhost.ObjectRef)
	}
	v.arguments[thread][pos] = val
}

// SetFrames sets the stack CallerFrames(thread, ...) will walk.
func (v *VM) SetFrames(thread vmhost.ThreadID, frames []vmhost.Frame) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frames[thread] = frames
}

// SetBytecode sets the raw code array Bytecode(method) will return.
func (v *VM) SetBytecode(method vmhost.MethodID, code []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bytecode[method] = code
}

// SetConstantPool sets the raw constant-pool bytes ConstantPool(class) will return.
func (v *VM) SetConstantPool(class vmhost.ClassRef, pool []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pool[class] = pool
}

// BreakpointAttached reports whether AttachBreakpoint was called for method.
func (v *VM) BreakpointAttached(method vmhost.MethodID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.breakpoints[method]
}

// ClassPrepareEventsEnabled reports whether EnableClassPrepareEvents was
// called.
func (v *VM) ClassPrepareEventsEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.classPrepareEventsEnabled
}

// NativeMethodFor returns the function most recently registered via
// RegisterNativeMethod for (class, name, descriptor), if any.
func (v *VM) NativeMethodFor(class vmhost.ClassRef, name, descriptor string) (vmhost.NativeFunc, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id, ok := v.methodLookup[class][name+"\x00"+descriptor]
	if !ok {
		return nil, false
	}
	fn, ok := v.nativeMethods[id]
	return fn, ok
}

// IsReleased reports whether Release(class) was called.
func (v *VM) IsReleased(class vmhost.ClassRef) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.released[class]
}

// --- vmhost.VM implementation ---

func (v *VM) ResolveClass(name string) (vmhost.ClassRef, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ref, ok := v.classByName[name]
	return ref, ok
}

func (v *VM) ResolveMethod(class vmhost.ClassRef, name, descriptor string) (vmhost.MethodID, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id, ok := v.methodLookup[class][name+"\x00"+descriptor]
	return id, ok
}

func (v *VM) IsAssignableFrom(sub, super vmhost.ClassRef) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.supers[sub][super]
}

func (v *VM) ClassName(class vmhost.ClassRef) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.classNames[class]
}

func (v *VM) Release(class vmhost.ClassRef) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.released[class] = true
}

func (v *VM) LoadedClasses() []vmhost.ClassRef {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]vmhost.ClassRef, 0, len(v.classNames))
	for ref := range v.classNames {
		out = append(out, ref)
	}
	return out
}

func (v *VM) AttachBreakpoint(method vmhost.MethodID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.breakpoints[method] = true
	return nil
}

func (v *VM) RegisterNativeMethod(class vmhost.ClassRef, name, descriptor string, fn vmhost.NativeFunc) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	id, ok := v.methodLookup[class][name+"\x00"+descriptor]
	if !ok {
		v.nextMethod++
		id = vmhost.MethodID(v.nextMethod)
		v.methods[id] = &Method{Class: class, Name: name, Descriptor: descriptor}
		if v.methodLookup[class] == nil {
			v.methodLookup[class] = make(map[string]vmhost.MethodID)
		}
		v.methodLookup[class][name+"\x00"+descriptor] = id
	}
	v.nativeMethods[id] = fn
	return nil
}

func (v *VM) EnableBreakpointEvents()   { v.mu.Lock(); v.breakpointEventsEnabled = true; v.mu.Unlock() }
func (v *VM) EnableNativeBindEvents()   { v.mu.Lock(); v.nativeBindEventsEnabled = true; v.mu.Unlock() }
func (v *VM) EnableClassPrepareEvents() { v.mu.Lock(); v.classPrepareEventsEnabled = true; v.mu.Unlock() }

func (v *VM) ReadLocal(thread vmhost.ThreadID, slot int) (vmhost.ObjectRef, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.locals[thread][slot]
	return val, ok
}

func (v *VM) Argument(thread vmhost.ThreadID, pos int) (vmhost.ObjectRef, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.arguments[thread][pos]
	return val, ok
}

func (v *VM) CallerFrames(thread vmhost.ThreadID, maxDepth int) []vmhost.Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	frames := v.frames[thread]
	if maxDepth < len(frames) {
		frames = frames[:maxDepth]
	}
	out := make([]vmhost.Frame, len(frames))
	copy(out, frames)
	return out
}

func (v *VM) DirectCallerClass(thread vmhost.ThreadID) (vmhost.ClassRef, bool) {
	frames := v.CallerFrames(thread, 1)
	if len(frames) == 0 {
		return 0, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	m, ok := v.methods[frames[0].Method]
	if !ok {
		return 0, false
	}
	return m.Class, true
}

func (v *VM) ClassOf(obj vmhost.ObjectRef) (vmhost.ClassRef, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, ok := v.objects[obj]
	if !ok {
		return 0, false
	}
	return o.Class, o.Class != 0
}

func (v *VM) ClassNameOfObject(obj vmhost.ObjectRef) (string, bool) {
	class, ok := v.ClassOf(obj)
	if !ok {
		return "", false
	}
	return v.ClassName(class), true
}

func (v *VM) StringValue(obj vmhost.ObjectRef) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, ok := v.objects[obj]
	if !ok || !o.IsString {
		return "", false
	}
	return o.String, true
}

func (v *VM) IsNullRef(obj vmhost.ObjectRef) bool {
	return obj == vmhost.NullRef
}

func (v *VM) ArrayLength(obj vmhost.ObjectRef) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, ok := v.objects[obj]
	if !ok || !o.IsArray {
		return 0, false
	}
	return len(o.Array), true
}

func (v *VM) ArrayElement(obj vmhost.ObjectRef, index int) (vmhost.ObjectRef, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, ok := v.objects[obj]
	if !ok || !o.IsArray || index < 0 || index >= len(o.Array) {
		return 0, false
	}
	return o.Array[index], true
}

func (v *VM) IsSameObject(a, b vmhost.ObjectRef) bool {
	return a == b
}

func (v *VM) FieldInfo(field vmhost.ObjectRef) (declaringClass, name string, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, found := v.objects[field]
	if !found || o.Field == nil {
		return "", "", false
	}
	return o.Field.DeclaringClass, o.Field.Name, true
}

func (v *VM) MethodInfo(method vmhost.ObjectRef) (declaringClass, name, descriptor string, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, found := v.objects[method]
	if !found || o.MethodInfo == nil {
		return "", "", "", false
	}
	return o.MethodInfo.DeclaringClass, o.MethodInfo.Name, o.MethodInfo.Descriptor, true
}

func (v *VM) ClassLoaderOf(class vmhost.ClassRef) (vmhost.ObjectRef, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	loader, ok := v.classLoaderOf[class]
	return loader, ok
}

func (v *VM) Superclass(class vmhost.ClassRef) (vmhost.ClassRef, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	super, ok := v.superclassOf[class]
	return super, ok
}

func (v *VM) ClassFromClassObject(obj vmhost.ObjectRef) (vmhost.ClassRef, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	o, ok := v.objects[obj]
	if !ok || !o.IsClassValue {
		return 0, false
	}
	return o.ClassValue, true
}

func (v *VM) Reinvoke(thread vmhost.ThreadID, method vmhost.MethodID, receiver vmhost.ObjectRef,
	args []vmhost.ObjectRef, useCallerClassLoader bool) (vmhost.ObjectRef, bool) {
	v.mu.Lock()
	m, ok := v.methods[method]
	v.mu.Unlock()
	if !ok || m.Invoke == nil {
		// The failure is reported through ok and cleared, never left pending.
		v.setPendingFailure(thread, false)
		return 0, false
	}
	result, ok := m.Invoke(args)
	v.setPendingFailure(thread, false)
	return result, ok
}

func (v *VM) ReinvokeStatic(thread vmhost.ThreadID, method vmhost.MethodID, args []vmhost.ObjectRef,
	classLoader vmhost.ObjectRef, haveClassLoader bool) (vmhost.ObjectRef, bool) {
	return v.Reinvoke(thread, method, vmhost.NullRef, args, haveClassLoader)
}

func (v *VM) NewInstance(class vmhost.ClassRef, ctor vmhost.MethodID, args []vmhost.ObjectRef) (vmhost.ObjectRef, bool) {
	v.mu.Lock()
	m, ok := v.methods[ctor]
	v.mu.Unlock()
	if !ok || m.Invoke == nil {
		return 0, false
	}
	return m.Invoke(args)
}

func (v *VM) setPendingFailure(thread vmhost.ThreadID, failed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pendingFailure[thread] = failed
}

func (v *VM) ClearPendingFailure(thread vmhost.ThreadID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	had := v.pendingFailure[thread]
	v.pendingFailure[thread] = false
	return had
}

func (v *VM) Bytecode(method vmhost.MethodID) ([]byte, func(), bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	code, ok := v.bytecode[method]
	return code, func() {}, ok
}

func (v *VM) ConstantPool(class vmhost.ClassRef) ([]byte, func(), bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	pool, ok := v.pool[class]
	return pool, func() {}, ok
}

func (v *VM) DeclaringClass(method vmhost.MethodID) (vmhost.ClassRef, string, string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	m, ok := v.methods[method]
	if !ok {
		return 0, "", "", false
	}
	return m.Class, m.Name, m.Descriptor, true
}

var _ vmhost.VM = (*VM)(nil)

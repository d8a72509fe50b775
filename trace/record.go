// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package trace defines the structured call record every handler emits and
// the Emitter interface that accepts them. The core packages never depend
// on a concrete emitter: the writer is an external collaborator (spec.md
// §1, §6), supplied by the process that wires an agent together.
package trace // import "github.com/jvmtrace/agent/trace"

// Kind classifies the intercepted operation family.
type Kind string

const (
	KindReflect       Kind = "reflect"
	KindSerialization Kind = "serialization"
	KindJNI           Kind = "jni"
)

// Sentinel values used in place of a real name or value wherever the agent
// could not determine one, matching spec.md §6's outbound contract.
const (
	SentinelNull    = "null"
	SentinelUnknown = "unknown"
)

// Record is the single outbound shape every handler produces: one call to
// the trace emitter's "traceCall" operation.
type Record struct {
	Kind Kind

	// Function is the name of the intercepted operation, e.g. "forName" or
	// "ObjectStreamClass.<init>".
	Function string

	// Clazz is the receiver or target class name, or SentinelNull/SentinelUnknown.
	Clazz string

	// DeclaringClass is the originating class name, or a sentinel.
	DeclaringClass string

	// CallerClass is the direct caller class name, or a sentinel.
	CallerClass string

	// Result is a bool, string, []string, or one of the sentinel strings.
	// Handlers populate exactly one of ResultBool/ResultString/ResultList;
	// IsUnknownResult/IsNullResult cover the two sentinel cases.
	ResultBool      bool
	HasResultBool   bool
	ResultString    string
	HasResultString bool
	ResultList      []string
	HasResultList   bool
	IsNullResult    bool
	IsUnknownResult bool

	// Args holds zero or more positional values, each a string, a []string,
	// or a sentinel string.
	Args []Arg
}

// Arg is one positional argument value: a string, a list of strings, or a
// sentinel. Exactly one of the three forms is populated.
type Arg struct {
	String   string
	HasString bool
	List      []string
	HasList   bool
	Sentinel  string // SentinelNull or SentinelUnknown when neither of the above is set
}

// StringArg builds a plain string argument.
func StringArg(s string) Arg { return Arg{String: s, HasString: true} }

// ListArg builds a list-of-strings argument.
func ListArg(items []string) Arg { return Arg{List: items, HasList: true} }

// NullArg and UnknownArg build sentinel arguments for missing or unreadable
// values (spec.md §4.1 "Argument-expanding handlers").
func NullArg() Arg    { return Arg{Sentinel: SentinelNull} }
func UnknownArg() Arg { return Arg{Sentinel: SentinelUnknown} }

// Emitter accepts structured call records. Implementations must be
// append-only, safe for concurrent use, and must not block the calling
// handler on anything beyond the cost of the write itself (spec.md §6).
type Emitter interface {
	TraceCall(r Record)
}

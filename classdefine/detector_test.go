// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package classdefine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmtrace/agent/classdefine"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost"
	"github.com/jvmtrace/agent/vmhost/fake"
)

type recordingEmitter struct {
	records []trace.Record
}

func (r *recordingEmitter) TraceCall(rec trace.Record) {
	r.records = append(r.records, rec)
}

func TestOnDefine_TracesClassWithNoBackingResource(t *testing.T) {
	vm := fake.New()
	loaderClass := vm.DefineClass("UserLoader")
	loader := vm.NewObject(loaderClass)

	emit := &recordingEmitter{}
	d := &classdefine.Detector{Emit: emit}
	d.OnDefine(vm, "Generated$Proxy0", loader, false)

	require.Len(t, emit.records, 1)
	rec := emit.records[0]
	assert.Equal(t, trace.KindReflect, rec.Kind)
	assert.Equal(t, "ClassLoader.defineClass", rec.Function)
	assert.Equal(t, "Generated$Proxy0", rec.Clazz)
	assert.Equal(t, "UserLoader", rec.CallerClass)
}

func TestOnDefine_IgnoresOrdinaryClassfileLoad(t *testing.T) {
	vm := fake.New()
	loaderClass := vm.DefineClass("UserLoader")
	loader := vm.NewObject(loaderClass)

	emit := &recordingEmitter{}
	d := &classdefine.Detector{Emit: emit}
	d.OnDefine(vm, "com/example/Widget", loader, true)

	assert.Empty(t, emit.records)
}

func TestOnDefine_BootClassLoaderIsNullSentinel(t *testing.T) {
	vm := fake.New()

	emit := &recordingEmitter{}
	d := &classdefine.Detector{Emit: emit}
	d.OnDefine(vm, "Generated$Proxy0", vmhost.NullRef, false)

	require.Len(t, emit.records, 1)
	assert.Equal(t, trace.SentinelNull, emit.records[0].CallerClass)
}

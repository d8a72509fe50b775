// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost/fake"
)

func TestLoad_InstallsMandatoryTableAndUnloadReleases(t *testing.T) {
	vm := fake.New()
	seedMandatoryTable(vm)

	var buf bytes.Buffer
	emit := trace.NewJSONLWriter(&buf, nil)

	var closed bool
	a, err := load(vm, &config{TraceOutput: "n/a"}, emit, func() error {
		closed = true
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.installed.All())
	assert.Same(t, a, current.Load())

	require.NoError(t, unload())
	assert.Nil(t, current.Load())
	assert.True(t, closed)
}

func TestLoad_RefusesConcurrentAgent(t *testing.T) {
	vm := fake.New()
	seedMandatoryTable(vm)

	emit := trace.NewJSONLWriter(&bytes.Buffer{}, nil)

	_, err := load(vm, &config{}, emit, func() error { return nil })
	require.NoError(t, err)
	defer unload()

	_, err = load(vm, &config{}, emit, func() error { return nil })
	assert.Error(t, err)
}

func TestUnload_WithoutLoadIsError(t *testing.T) {
	assert.Error(t, unload())
}

func TestLoad_ClassLoaderSupportInstallsDiscoveryAndDetector(t *testing.T) {
	vm := fake.New()
	seedMandatoryTable(vm)

	emit := trace.NewJSONLWriter(&bytes.Buffer{}, nil)

	a, err := load(vm, &config{ClassLoaderSupport: true}, emit, func() error { return nil })
	require.NoError(t, err)
	defer unload()

	assert.NotNil(t, a.discovery)
	assert.NotNil(t, a.classdefine)
	assert.True(t, vm.ClassPrepareEventsEnabled())
}

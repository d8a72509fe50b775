// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package trace_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmtrace/agent/trace"
)

func TestJSONLWriter_EmitsOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	w := trace.NewJSONLWriter(&buf, nil)

	w.TraceCall(trace.Record{
		Kind:          trace.KindReflect,
		Function:      "forName",
		Clazz:         "java.lang.Class",
		CallerClass:   "com.example.App",
		ResultBool:    false,
		HasResultBool: true,
		Args:          []trace.Arg{trace.StringArg("DoesNotExist")},
	})
	w.TraceCall(trace.Record{
		Kind:          trace.KindReflect,
		Function:      "getField",
		Clazz:         "C",
		DeclaringClass: "C",
		CallerClass:    "com.example.App",
		ResultBool:     true,
		HasResultBool:  true,
		Args:           []trace.Arg{trace.StringArg("s")},
	})

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "forName", first["function"])
	assert.Equal(t, false, first["result"])
	assert.Equal(t, []any{"DoesNotExist"}, first["args"])

	var second map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "getField", second["function"])
	assert.Equal(t, "C", second["declaringClass"])
}

func TestJSONLWriter_SentinelResultAndArgs(t *testing.T) {
	var buf bytes.Buffer
	w := trace.NewJSONLWriter(&buf, nil)

	w.TraceCall(trace.Record{
		Kind:            trace.KindReflect,
		Function:        "getDeclaredField",
		Clazz:           "C",
		IsUnknownResult: true,
		Args:            []trace.Arg{trace.NullArg(), trace.UnknownArg()},
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimRight(buf.Bytes(), "\n"), &got))
	assert.Equal(t, "unknown", got["result"])
	assert.Equal(t, []any{"null", "unknown"}, got["args"])
}

func TestJSONLWriter_ConcurrentWritesAreSerialized(t *testing.T) {
	var buf bytes.Buffer
	w := trace.NewJSONLWriter(&buf, nil)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			for j := 0; j < 50; j++ {
				w.TraceCall(trace.Record{Kind: trace.KindJNI, Function: "objectFieldOffset", Clazz: "Widget"})
			}
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	assert.Len(t, lines, 400)
	for _, line := range lines {
		var r map[string]any
		assert.NoError(t, json.Unmarshal(line, &r))
	}
}

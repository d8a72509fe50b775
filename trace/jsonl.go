// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// wireRecord is the newline-delimited JSON shape a JSONLWriter emits. It
// flattens Record's tagged-union fields into plain JSON values the way the
// original source's trace writer does (a single JSON object per call),
// using encoding/json directly since the shape is small and fixed — the
// same reasoning the rest of this codebase's lineage applies to its own
// small marshalers (libpf.UnixTime32 and similar).
type wireRecord struct {
	Kind           Kind     `json:"kind"`
	Function       string   `json:"function"`
	Clazz          string   `json:"clazz"`
	DeclaringClass string   `json:"declaringClass,omitempty"`
	CallerClass    string   `json:"callerClass,omitempty"`
	Result         any      `json:"result"`
	Args           []any    `json:"args,omitempty"`
}

func toWire(r Record) wireRecord {
	w := wireRecord{
		Kind:           r.Kind,
		Function:       r.Function,
		Clazz:          r.Clazz,
		DeclaringClass: r.DeclaringClass,
		CallerClass:    r.CallerClass,
	}
	switch {
	case r.HasResultBool:
		w.Result = r.ResultBool
	case r.HasResultString:
		w.Result = r.ResultString
	case r.HasResultList:
		w.Result = r.ResultList
	case r.IsUnknownResult:
		w.Result = SentinelUnknown
	default:
		w.Result = SentinelNull
	}
	for _, a := range r.Args {
		switch {
		case a.HasString:
			w.Args = append(w.Args, a.String)
		case a.HasList:
			w.Args = append(w.Args, a.List)
		default:
			w.Args = append(w.Args, a.Sentinel)
		}
	}
	return w
}

// JSONLWriter appends one JSON object per line to an io.Writer. A single
// mutex serializes writes, matching the simplicity of the fifo ring-buffer
// pattern this codebase's reporter package uses elsewhere for its own
// append-only sinks, without that pattern's network/batching machinery —
// batching and transport belong to the offline trace consumer, out of
// scope here (spec.md §1).
type JSONLWriter struct {
	mu  sync.Mutex
	w   io.Writer
	log *logrus.Entry
}

// NewJSONLWriter returns a JSONLWriter appending to w. log may be nil, in
// which case encoding failures are silently dropped (they should not
// happen for this record shape).
func NewJSONLWriter(w io.Writer, log *logrus.Entry) *JSONLWriter {
	return &JSONLWriter{w: w, log: log}
}

// TraceCall implements Emitter. It never blocks on anything but the
// underlying writer and never panics: a marshaling failure is logged (if a
// logger was supplied) and the record is dropped, since emitting never is
// allowed to feed back into a handler's error path.
func (j *JSONLWriter) TraceCall(r Record) {
	line, err := json.Marshal(toWire(r))
	if err != nil {
		if j.log != nil {
			j.log.WithError(err).WithField("function", r.Function).
				Warn("dropping trace record that failed to marshal")
		}
		return
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(line); err != nil && j.log != nil {
		j.log.WithError(err).Warn("failed to write trace record")
	}
}

var _ Emitter = (*JSONLWriter)(nil)

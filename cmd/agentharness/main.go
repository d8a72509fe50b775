// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Command agentharness is the process bootstrap around the breakpoint
// interceptor core: it parses its command-line surface, opens the trace
// sink, and drives load/unload of an agent against a vmhost.VM. A real
// deployment supplies a cgo-backed VM wired to the live JVM's JVMTI/JNI
// entry points; this harness exercises the same Load/Unload lifecycle
// against vmhost/fake so the core packages can be driven end-to-end
// without a real JVM attached (DESIGN.md, "`cmd/agentharness`'s VM
// binding": there is no cgo/JNI boundary in this module).
package main

import (
	"fmt"
	"os"

	"github.com/jvmtrace/agent/internal/agentlog"
	"github.com/jvmtrace/agent/trace"
	"github.com/jvmtrace/agent/vmhost/fake"
)

// exitCode mirrors the teacher's cmd entrypoint convention of a typed exit
// status threaded out of main rather than scattered os.Exit calls.
type exitCode int

const (
	exitSuccess    exitCode = 0
	exitFailure    exitCode = 1
	exitParseError exitCode = 2
)

func main() {
	os.Exit(int(run(os.Args[1:])))
}

func run(argv []string) exitCode {
	cfg, err := parseArgs(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitParseError
	}
	if cfg.TraceOutput == "" {
		fmt.Fprintln(os.Stderr, "agentharness: -trace-output is required")
		return exitParseError
	}

	agentlog.SetLogger(newLogger(cfg.Verbose))

	f, err := os.Create(cfg.TraceOutput)
	if err != nil {
		agentlog.Get().WithError(err).Error("agentharness: failed to open trace output")
		return exitFailure
	}
	emit := trace.NewJSONLWriter(f, agentlog.Get().WithField("component", "trace"))

	vm := fake.New()
	seedMandatoryTable(vm)

	a, err := load(vm, cfg, emit, f.Close)
	if err != nil {
		agentlog.Get().WithError(err).Error("agentharness: load failed")
		return exitFailure
	}
	agentlog.Get().WithField("installed", len(a.installed.All())).Info("agentharness: agent loaded")

	if err := unload(); err != nil {
		agentlog.Get().WithError(err).Error("agentharness: unload failed")
		return exitFailure
	}
	return exitSuccess
}

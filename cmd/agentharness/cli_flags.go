// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"

	"github.com/peterbourgon/ff/v3"
)

// Help strings for command line arguments.
var (
	classLoaderSupportHelp = "Enable experimental classloader discovery: hook loadClass on every " +
		"discovered classloader subclass and trace dynamically defined classes with no backing " +
		"classfile resource. Far more invasive than the default static breakpoint table."
	traceOutputHelp = "Path to write newline-delimited JSON trace records to. Required."
	verboseModeHelp = "Enable verbose (debug-level) logging."
)

// config is the parsed process-level surface (SPEC_FULL.md §2.3).
type config struct {
	ClassLoaderSupport bool
	TraceOutput        string
	Verbose            bool
}

// parseArgs parses argv against fs and applies environment-variable
// fallback, matching the teacher's cli_flags.go use of ff.Parse over a
// flag.FlagSet.
func parseArgs(argv []string) (*config, error) {
	var cfg config

	fs := flag.NewFlagSet("agentharness", flag.ExitOnError)
	fs.BoolVar(&cfg.ClassLoaderSupport, "experimental-classloader-support", false, classLoaderSupportHelp)
	fs.StringVar(&cfg.TraceOutput, "trace-output", "", traceOutputHelp)
	fs.BoolVar(&cfg.Verbose, "v", false, "Shorthand for -verbose.")
	fs.BoolVar(&cfg.Verbose, "verbose", false, verboseModeHelp)

	fs.Usage = func() {
		fs.PrintDefaults()
	}

	if err := ff.Parse(fs, argv, ff.WithEnvVarPrefix("JVMTRACE_AGENT")); err != nil {
		return nil, err
	}
	return &cfg, nil
}

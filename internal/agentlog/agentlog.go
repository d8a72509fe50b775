// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package agentlog holds the single structured logger every component in
// this module uses for diagnostics: optional-absence skips, callsite
// classification failures, and fatal invariant violations (spec.md §7).
package agentlog // import "github.com/jvmtrace/agent/internal/agentlog"

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var globalLogger = func() *atomic.Pointer[logrus.Logger] {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)

	p := new(atomic.Pointer[logrus.Logger])
	p.Store(l)
	return p
}()

// SetLogger replaces the global logger. Tests use this to inject a logger
// writing to a buffer so diagnostics can be asserted on.
func SetLogger(l *logrus.Logger) {
	globalLogger.Store(l)
}

// Get returns the global logger.
func Get() *logrus.Logger {
	return globalLogger.Load()
}

// Fatalf logs an invariant violation and aborts the process. Every
// invariant-violation error kind (spec.md §7 kind 4) routes through this:
// duplicate install, missing Hook for a delivered event, a leaked pending
// failure on handler return, an uninstalled native hook called.
func Fatalf(format string, args ...any) {
	Get().Fatalf(format, args...)
}

// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package breakpoint_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jvmtrace/agent/breakpoint"
)

func TestError_UnwrapsToCause(t *testing.T) {
	cause := errors.New("class not present")
	err := breakpoint.NewError(breakpoint.FailureOptionalAbsence, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "optional-absence: class not present", err.Error())
}

func TestFailureKind_String(t *testing.T) {
	cases := map[breakpoint.FailureKind]string{
		breakpoint.FailureOptionalAbsence: "optional-absence",
		breakpoint.FailureTransient:       "transient",
		breakpoint.FailureClassification:  "classification",
		breakpoint.FailureInvariant:       "invariant",
		breakpoint.FailureKind(99):        "unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}

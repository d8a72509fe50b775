// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package hash provides the finalizer-style integer hash behind the Hash32
// methods of vmhost.ClassRef and vmhost.MethodID.
package hash // import "github.com/jvmtrace/agent/internal/hash"

// Uint32 computes a hash of a 32-bit uint using the finalizer function for Murmur.
// 32-bit via https://en.wikipedia.org/wiki/MurmurHash#Algorithm
//
// ClassRef and MethodID are uint64 handles that are hashed at 32-bit width
// (their Hash32 methods in vmhost/types.go truncate before hashing), so this
// is the only width this package needs; the 64-bit Murmur3 finalizer the
// teacher package also carries has no caller here and was dropped rather
// than kept unused (see DESIGN.md).
func Uint32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x85ebca6b
	x ^= x >> 13
	x *= 0xc2b2ae35
	x ^= x >> 16
	return x
}

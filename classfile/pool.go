// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package classfile implements the minimal class-file constant-pool parser
// the breakpoint interceptor needs to classify loadClass callsites (spec.md
// §4.5/§4.7). It mirrors the teacher's style of hand-rolled, allocation
// conscious binary decoding over raw byte slices used for other JVM wire
// formats in this codebase's lineage (e.g. the HotSpot UNSIGNED5 line-table
// decoder), rather than reaching for a general-purpose binary/struct
// library: class-file constant pool entries are a small, fixed, sequential
// format with no use for reflection-based (de)serialization.
package classfile // import "github.com/jvmtrace/agent/classfile"

import (
	"encoding/binary"
	"errors"
)

// ErrPoolFormat is the single typed failure for every constant-pool parsing
// problem: truncated input, an unrecognized tag, an out-of-range index, or
// a non-method-ref entry at the requested index. Callers (the loadClass
// callsite filter) treat any ErrPoolFormat identically: classify the
// callsite as "not explicit". The rejection is not remembered, so a later
// hit at the same callsite parses the pool again and is rejected again.
var ErrPoolFormat = errors.New("classfile: malformed constant pool")

// Constant pool tags, JVMS §4.4.
const (
	tagUTF8              = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// MethodReference is a resolved Methodref/InterfaceMethodref constant pool
// entry: the invoked method's name and descriptor.
type MethodReference struct {
	Name       string
	Descriptor string
}

type refEntry struct {
	tag              byte
	a, b             uint16 // meaning depends on tag; see readPool
}

// ReadMethodReference parses pool (the raw constant-pool bytes for a single
// class, entries only, 1-indexed per JVMS §4.4) and resolves the
// Methodref/InterfaceMethodref entry at index to a MethodReference.
//
// It returns ErrPoolFormat for every malformed input: truncated slice,
// unknown tag, index out of the pool's range, or a tag other than
// Methodref/InterfaceMethodref at index.
func ReadMethodReference(pool []byte, index int) (MethodReference, error) {
	refs, utf8, err := readPool(pool)
	if err != nil {
		return MethodReference{}, err
	}
	ref, ok := refs[index]
	if !ok || (ref.tag != tagMethodref && ref.tag != tagInterfaceMethodref) {
		return MethodReference{}, ErrPoolFormat
	}
	nat, ok := refs[int(ref.b)]
	if !ok || nat.tag != tagNameAndType {
		return MethodReference{}, ErrPoolFormat
	}
	name, ok := utf8[int(nat.a)]
	if !ok {
		return MethodReference{}, ErrPoolFormat
	}
	descriptor, ok := utf8[int(nat.b)]
	if !ok {
		return MethodReference{}, ErrPoolFormat
	}
	return MethodReference{Name: name, Descriptor: descriptor}, nil
}

// readPool parses every entry of the pool in one sequential pass (entries
// may reference each other in either direction, so nothing can be resolved
// lazily: javac does not guarantee a forward-only reference order), filling
// refs for Fieldref/Methodref/InterfaceMethodref/NameAndType/Dynamic/
// InvokeDynamic entries and utf8 for Utf8 entries. Entry kinds we never need
// to resolve a MethodReference (Class, Integer, Float, Long, Double, String,
// MethodHandle, MethodType, Module, Package) are skipped by length only.
func readPool(pool []byte) (map[int]refEntry, map[int]string, error) {
	refs := make(map[int]refEntry)
	utf8 := make(map[int]string)

	off := 0
	u1 := func() (byte, error) {
		if off >= len(pool) {
			return 0, ErrPoolFormat
		}
		v := pool[off]
		off++
		return v, nil
	}
	u2 := func() (uint16, error) {
		if off+2 > len(pool) {
			return 0, ErrPoolFormat
		}
		v := binary.BigEndian.Uint16(pool[off:])
		off += 2
		return v, nil
	}
	skip := func(n int) error {
		if off+n > len(pool) {
			return ErrPoolFormat
		}
		off += n
		return nil
	}

	for index := 1; off < len(pool); {
		tag, err := u1()
		if err != nil {
			return nil, nil, err
		}
		switch tag {
		case tagUTF8:
			length, err := u2()
			if err != nil {
				return nil, nil, err
			}
			if off+int(length) > len(pool) {
				return nil, nil, ErrPoolFormat
			}
			utf8[index] = string(pool[off : off+int(length)])
			off += int(length)
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			if _, err := u2(); err != nil {
				return nil, nil, err
			}
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType,
			tagDynamic, tagInvokeDynamic:
			a, err := u2()
			if err != nil {
				return nil, nil, err
			}
			b, err := u2()
			if err != nil {
				return nil, nil, err
			}
			refs[index] = refEntry{tag: tag, a: a, b: b}
		case tagInteger, tagFloat:
			if err := skip(4); err != nil {
				return nil, nil, err
			}
		case tagLong, tagDouble:
			if err := skip(8); err != nil {
				return nil, nil, err
			}
			// JVMS §4.4.5: long/double entries occupy two constant pool
			// indices; the next index is unusable.
			index++
		case tagMethodHandle:
			if err := skip(3); err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, ErrPoolFormat
		}
		index++
	}
	return refs, utf8, nil
}

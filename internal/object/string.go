// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package object

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/probescript/probescript/internal/value"
)

// String is an immutable heap string with its xxhash precomputed at
// construction, so that == between two heap strings can cheap-reject on a
// hash mismatch before paying for a byte comparison.
type String struct {
	head Header
	Data string
	Hash uint64
}

// NewString allocates a String object holding data.
func NewString(data string) *String {
	return &String{head: Header{Kind: KindString}, Data: data, Hash: xxhash.Sum64String(data)}
}

// Header returns the object's embedded allocator/GC header.
func (s *String) Header() *Header { return &s.head }

// AsValue boxes s as a NaN-boxed pointer Value.
func (s *String) AsValue() value.Value { return value.Pointer(unsafe.Pointer(s)) }

// Equal implements the language's string equality: hash compare first, then
// byte compare only on a hash hit.
func (s *String) Equal(o *String) bool {
	return s.Hash == o.Hash && s.Data == o.Data
}

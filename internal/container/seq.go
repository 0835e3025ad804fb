// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package container implements the runtime's three low-level collections:
// a growable sequence, an owned string builder, and a symbol-keyed hash map.
// Every heap object that holds a variable number of children — a module's
// variable slots, a class's field slots, a function's constant pool —
// bottoms out in one of these.
package container

// Seq is a growable sequence of T, generic Go's stand-in for the
// header-in-front-of-payload layout of a `void*`-stride growable array:
// instead of a byte-stride header the length and capacity simply live beside
// a Go slice. Reserve grows geometrically (double+6, with a floor) so that
// repeated single-element appends stay amortized O(1).
//
// The zero value is an empty, usable sequence.
type Seq[T any] struct {
	data []T
}

// Len returns the number of elements currently held.
func (s *Seq[T]) Len() int {
	return len(s.data)
}

// Cap returns the current backing capacity.
func (s *Seq[T]) Cap() int {
	return cap(s.data)
}

// At returns the element at index i. Panics if i is out of range, matching
// Go slice semantics rather than returning a zero value for an out-of-bounds
// read.
func (s *Seq[T]) At(i int) T {
	return s.data[i]
}

// Set overwrites the element at index i.
func (s *Seq[T]) Set(i int, v T) {
	s.data[i] = v
}

// Push appends v, growing the backing array if necessary.
func (s *Seq[T]) Push(v T) {
	s.Reserve(len(s.data) + 1)
	s.data = append(s.data, v)
}

// EmplaceN appends n zero-valued elements in one step and returns the index
// of the first one, avoiding n individual Push calls when a caller is about
// to fill a contiguous run (e.g. a function's fixed-size local-slot block).
func (s *Seq[T]) EmplaceN(n int) int {
	s.Reserve(len(s.data) + n)
	start := len(s.data)
	var zero T
	for i := 0; i < n; i++ {
		s.data = append(s.data, zero)
	}
	return start
}

// Reserve ensures the backing array can hold at least n elements without a
// further reallocation. Growth is geometric (double the current capacity,
// plus a flat floor of 6) so that amortized append cost stays O(1); callers
// that hold an interior pointer (a Go slice obtained via Raw) across a call
// that may grow the sequence are holding a stale reference, per the
// container's invalidate-on-reallocation contract.
func (s *Seq[T]) Reserve(n int) {
	if cap(s.data) >= n {
		return
	}
	newCap := cap(s.data)*2 + 6
	if newCap < n {
		newCap = n
	}
	grown := make([]T, len(s.data), newCap)
	copy(grown, s.data)
	s.data = grown
}

// Resize sets the sequence's length to n, growing (zero-filling new
// elements) or truncating as needed. It never shrinks the backing capacity.
func (s *Seq[T]) Resize(n int) {
	if n <= len(s.data) {
		s.data = s.data[:n]
		return
	}
	s.Reserve(n)
	var zero T
	for len(s.data) < n {
		s.data = append(s.data, zero)
	}
}

// SwapRemove removes the element at index i in O(1) by moving the last
// element into its place, which is cheaper than a shift-down but does not
// preserve order — the caller must not rely on sequence order surviving a
// SwapRemove.
func (s *Seq[T]) SwapRemove(i int) T {
	removed := s.data[i]
	last := len(s.data) - 1
	s.data[i] = s.data[last]
	var zero T
	s.data[last] = zero
	s.data = s.data[:last]
	return removed
}

// Raw exposes the backing slice directly, for callers (the GC's tracing
// pass, the disassembler) that need to range over every element without
// per-index bounds checks. The returned slice is invalidated by any
// subsequent call that reallocates (Push, Reserve, Resize growing).
func (s *Seq[T]) Raw() []T {
	return s.data
}

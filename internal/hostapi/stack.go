// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package hostapi

import (
	"unsafe"

	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/value"
	"github.com/probescript/probescript/internal/vm"
)

// Stack is the indexed value stack a host uses to marshal arguments and
// results across the call boundary (§4.I), independent of the VM's own
// internal register stack. Each indexed slot is backed by a VM handle, so
// whatever it holds is rooted against collection for as long as the slot is
// live — a host may park a value here across several API calls without it
// being swept out from under it.
type Stack struct {
	vm      *vm.VM
	host    *Host // for string allocation via the shared heap, see SetString
	handles []int
}

// NewStack creates an empty indexed stack over h's VM.
func (h *Host) NewStack() *Stack {
	return &Stack{vm: h.vm, host: h}
}

// Resize grows or shrinks the stack to exactly n slots, destroying the
// handles backing any slot dropped off the end and null-filling any newly
// added slot.
func (s *Stack) Resize(n int) {
	for len(s.handles) > n {
		last := len(s.handles) - 1
		s.vm.DestroyHandle(s.handles[last])
		s.handles = s.handles[:last]
	}
	for len(s.handles) < n {
		s.handles = append(s.handles, s.vm.MakeHandle(value.Null))
	}
}

// Arity returns the number of slots currently on the stack.
func (s *Stack) Arity() int { return len(s.handles) }

func (s *Stack) at(idx int) value.Value { return s.vm.LoadHandle(s.handles[idx]) }

// SetNumber, SetBool, and SetNull overwrite slot idx with a basic value.
func (s *Stack) SetNumber(idx int, n float64) { s.vm.SetHandle(s.handles[idx], value.Number(n)) }
func (s *Stack) SetBool(idx int, b bool)       { s.vm.SetHandle(s.handles[idx], value.Bool(b)) }
func (s *Stack) SetNull(idx int)               { s.vm.SetHandle(s.handles[idx], value.Null) }

// SetString allocates a fresh heap string and stores it at idx, tracking it
// with the shared heap the same way the compiler tracks a literal.
func (s *Stack) SetString(idx int, str string) {
	o := object.NewString(str)
	s.host.heap.Track(o, uint64(32+len(str)))
	s.vm.SetHandle(s.handles[idx], o.AsValue())
}

// SetWeakRef stores a weak reference to raw, bound to class, at idx. The
// collector never follows raw; the caller is responsible for its lifetime.
func (s *Stack) SetWeakRef(idx int, class *object.Class, raw unsafe.Pointer) {
	ptr := object.NewWeakReference(class, raw)
	s.vm.SetHandle(s.handles[idx], ptr.AsValue())
}

// Number, Bool reads the value at idx, per its own type's zero value if idx
// does not currently hold that type.
func (s *Stack) Number(idx int) float64 {
	v := s.at(idx)
	if !v.IsNumber() {
		return 0
	}
	return v.Double()
}

func (s *Stack) Bool(idx int) bool { return s.at(idx).IsTrue() }

// IsString, IsNumber, IsBool, IsNull are the type-query primitives §4.I
// names alongside the indexed stack's read/write accessors.
func (s *Stack) IsNull(idx int) bool { return s.at(idx).IsNull() }
func (s *Stack) IsBool(idx int) bool { return s.at(idx).IsBool() }
func (s *Stack) IsNumber(idx int) bool { return s.at(idx).IsNumber() }
func (s *Stack) IsString(idx int) bool {
	v := s.at(idx)
	if !v.IsPointer() {
		return false
	}
	_, ok := object.FromValue(v).(*object.String)
	return ok
}

// String reads idx as a string's raw content, or "" if it does not hold one.
func (s *Stack) String(idx int) string {
	v := s.at(idx)
	if !v.IsPointer() {
		return ""
	}
	str, ok := object.FromValue(v).(*object.String)
	if !ok {
		return ""
	}
	return str.Data
}

// Value returns the raw Value at idx, for a caller that wants to pass it
// straight into VM.Call's args slice.
func (s *Stack) Value(idx int) value.Value { return s.at(idx) }

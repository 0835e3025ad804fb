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

	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/value"
)

// FinalizerFn is a host-provided native finalizer, invoked immediately on an
// unreachable instance or reference of a class that registered one, before
// any scripted dtor runs on a later cycle.
type FinalizerFn func(self Object)

// Class holds methods and static fields in one symbol-indexed slot array —
// STORE_SYMBOL on a class grows Slots on a write past its current length,
// filling intermediate slots with value.Null rather than leaving a gap, and
// LOAD_SYMBOL walks Base on a miss until a non-null slot is found.
type Class struct {
	head Header

	Name  string
	Base  *Class
	Owner *Module
	Slots []value.Value // symbol-indexed: methods and static fields

	// FieldInits holds, for each instance field that declared an
	// initializer, the zero-argument function that computes its initial
	// value; fields absent from this map default to null on construction.
	FieldInits map[symbol.ID]*ScriptFunction

	// ExtraDataSize and Finalizer are set by a host class binding
	// (see internal/hostapi) for classes backing a native reference type.
	ExtraDataSize int
	Finalizer     FinalizerFn
}

// NewClass allocates a class named name with the given base (nil for none).
func NewClass(name string, base *Class, owner *Module) *Class {
	return &Class{head: Header{Kind: KindClass}, Name: name, Base: base, Owner: owner}
}

// Header returns the object's embedded allocator/GC header.
func (c *Class) Header() *Header { return &c.head }

// AsValue boxes c as a NaN-boxed pointer Value.
func (c *Class) AsValue() value.Value { return value.Pointer(unsafe.Pointer(c)) }

// Slot returns the slot at id, zero-extending with value.Null as needed —
// it never grows the backing array, matching LOAD_SYMBOL's read-only,
// miss-means-fall-through-to-base semantics.
func (c *Class) Slot(id symbol.ID) (value.Value, bool) {
	if int(id) < len(c.Slots) {
		return c.Slots[id], true
	}
	return value.Null, false
}

// Resolve walks c and its base chain, returning the first non-null slot at
// id, and the class that owns it (for the "originating class" named in an
// undefined-symbol runtime error).
func (c *Class) Resolve(id symbol.ID) (value.Value, *Class, bool) {
	for cur := c; cur != nil; cur = cur.Base {
		if v, ok := cur.Slot(id); ok && v != value.Null {
			return v, cur, true
		}
	}
	return value.Null, nil, false
}

// SetSlot stores v at id, growing Slots (filling intermediate slots with
// value.Null) if id is beyond the current length.
func (c *Class) SetSlot(id symbol.ID, v value.Value) {
	if int(id) >= len(c.Slots) {
		grown := make([]value.Value, id+1)
		copy(grown, c.Slots)
		for i := len(c.Slots); i < len(grown); i++ {
			grown[i] = value.Null
		}
		c.Slots = grown
	}
	c.Slots[id] = v
}

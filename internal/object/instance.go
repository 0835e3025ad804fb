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

	"github.com/probescript/probescript/internal/container"
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/value"
)

// Instance is a plain script object: a class pointer and a sparse hash map
// of field values, keyed by symbol id. Unlike a class's dense slot array,
// most instances only ever populate a handful of the fields their class
// declares, so a hash map is the better fit here.
type Instance struct {
	head Header

	Class     *Class
	Fields    *container.SymbolMap[value.Value]
	ExtraData []byte
}

// NewInstance allocates an instance of class, with every declared field
// initializer not yet applied (the caller — NEW_CLZ's handler — applies
// them next, walking class.FieldInits) and ExtraData sized from
// class.ExtraDataSize.
func NewInstance(class *Class) *Instance {
	return &Instance{
		head:      Header{Kind: KindInstance},
		Class:     class,
		Fields:    container.NewSymbolMap[value.Value](),
		ExtraData: make([]byte, class.ExtraDataSize),
	}
}

// Header returns the object's embedded allocator/GC header.
func (i *Instance) Header() *Header { return &i.head }

// AsValue boxes i as a NaN-boxed pointer Value.
func (i *Instance) AsValue() value.Value { return value.Pointer(unsafe.Pointer(i)) }

// Lookup implements LOAD_SYMBOL's instance-then-class-chain resolution: a
// hit in the instance's own field map wins outright; otherwise fall through
// to the class chain.
func (i *Instance) Lookup(id symbol.ID) (value.Value, bool) {
	if v, ok := i.Fields.Get(uint32(id)); ok {
		return v, true
	}
	v, _, ok := i.Class.Resolve(id)
	return v, ok
}

// Store implements STORE_SYMBOL on an instance: always a hash-map set,
// never falling through to the class (an instance field write never
// mutates the shared class slot it may shadow).
func (i *Instance) Store(id symbol.ID, v value.Value) {
	i.Fields.Set(uint32(id), v)
}

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

// Module is one compiled, executed source unit. Top-level `var` and `func`
// declarations become named variable slots, resolved by LOAD_SYMBOL's linear
// scan over VarNames — small and cache-friendly, per the interpreter's
// symbol resolution rule, rather than a hash lookup.
type Module struct {
	head Header

	Name     string
	VarNames []symbol.ID
	VarSlots []value.Value // parallel to VarNames
	Init     *ScriptFunction
}

// NewModule allocates an empty module named name.
func NewModule(name string) *Module {
	return &Module{head: Header{Kind: KindModule}, Name: name}
}

// Header returns the object's embedded allocator/GC header.
func (m *Module) Header() *Header { return &m.head }

// AsValue boxes m as a NaN-boxed pointer Value.
func (m *Module) AsValue() value.Value { return value.Pointer(unsafe.Pointer(m)) }

// Lookup performs the linear scan LOAD_SYMBOL uses against a module: find
// the slot named by id and return its value.
func (m *Module) Lookup(id symbol.ID) (value.Value, bool) {
	for i, name := range m.VarNames {
		if name == id {
			return m.VarSlots[i], true
		}
	}
	return value.Null, false
}

// Store sets the slot named by id, appending a new named slot if id has
// never been declared in this module before.
func (m *Module) Store(id symbol.ID, v value.Value) {
	for i, name := range m.VarNames {
		if name == id {
			m.VarSlots[i] = v
			return
		}
	}
	m.VarNames = append(m.VarNames, id)
	m.VarSlots = append(m.VarSlots, v)
}

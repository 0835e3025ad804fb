// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package symbol implements the VM-global, append-only identifier interner.
// Every field, method, variable, or import name used by a compiled program
// is looked up or inserted here; its position in the table is its stable
// 32-bit symbol id, used as a direct array index for O(1) method/field
// dispatch rather than a string compare at every call site — this is the
// single most important performance property to preserve in the interpreter.
package symbol

import "github.com/cespare/xxhash/v2"

// ID is a stable, process-local (per-VM) symbol identifier. IDs are assigned
// in first-use order starting at 0 and never reused.
type ID uint32

// Table is one VM's symbol interner.
type Table struct {
	names []string
	byKey map[uint64][]ID // xxhash(name) -> candidate ids (collision chain)

	// Built-in symbols cached at construction so hot paths (method dispatch,
	// subscript operator lowering) never pay an intern lookup.
	Ctor  ID // "ctor"
	Dtor  ID // "dtor"
	Call  ID // "call"
	Index ID // "[]"
	SetAt ID // "[]="
}

// New creates an empty table with the built-in symbols pre-interned.
func New() *Table {
	t := &Table{byKey: make(map[uint64][]ID)}
	t.Ctor = t.Intern("ctor")
	t.Dtor = t.Intern("dtor")
	t.Call = t.Intern("call")
	t.Index = t.Intern("[]")
	t.SetAt = t.Intern("[]=")
	return t
}

// Intern returns the stable id for name, inserting it if this is the first
// time name has been seen by this table.
func (t *Table) Intern(name string) ID {
	key := xxhash.Sum64String(name)
	for _, id := range t.byKey[key] {
		if t.names[id] == name {
			return id
		}
	}
	id := ID(len(t.names))
	t.names = append(t.names, name)
	t.byKey[key] = append(t.byKey[key], id)
	return id
}

// Lookup returns the id for name and true if name has already been interned,
// without inserting it.
func (t *Table) Lookup(name string) (ID, bool) {
	key := xxhash.Sum64String(name)
	for _, id := range t.byKey[key] {
		if t.names[id] == name {
			return id, true
		}
	}
	return 0, false
}

// Name returns the original string for id. Panics if id was never issued by
// this table (a symbol id is only ever meaningful relative to the table
// that issued it).
func (t *Table) Name(id ID) string {
	return t.names[id]
}

// Len returns the number of interned symbols.
func (t *Table) Len() int {
	return len(t.names)
}

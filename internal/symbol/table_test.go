// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package symbol_test

import (
	"testing"

	"github.com/probescript/probescript/internal/symbol"
)

func TestInternIsIdempotent(t *testing.T) {
	tab := symbol.New()
	a := tab.Intern("foo")
	b := tab.Intern("foo")
	if a != b {
		t.Errorf("Intern(\"foo\") returned different ids: %d, %d", a, b)
	}
}

func TestInternDistinctNames(t *testing.T) {
	tab := symbol.New()
	a := tab.Intern("foo")
	b := tab.Intern("bar")
	if a == b {
		t.Error("distinct names must get distinct ids")
	}
}

func TestNameRoundTrip(t *testing.T) {
	tab := symbol.New()
	id := tab.Intern("fieldName")
	if tab.Name(id) != "fieldName" {
		t.Errorf("Name(%d) = %q, want %q", id, tab.Name(id), "fieldName")
	}
}

func TestLookupWithoutInsert(t *testing.T) {
	tab := symbol.New()
	if _, ok := tab.Lookup("neverSeen"); ok {
		t.Error("Lookup should report false for a name never interned")
	}
	tab.Intern("nowSeen")
	if _, ok := tab.Lookup("nowSeen"); !ok {
		t.Error("Lookup should find a previously interned name")
	}
}

func TestBuiltinSymbolsPreInterned(t *testing.T) {
	tab := symbol.New()
	if tab.Name(tab.Ctor) != "ctor" {
		t.Errorf("Ctor = %q", tab.Name(tab.Ctor))
	}
	if tab.Name(tab.Dtor) != "dtor" {
		t.Errorf("Dtor = %q", tab.Name(tab.Dtor))
	}
	if tab.Name(tab.Call) != "call" {
		t.Errorf("Call = %q", tab.Name(tab.Call))
	}
	if tab.Name(tab.Index) != "[]" {
		t.Errorf("Index = %q", tab.Name(tab.Index))
	}
	if tab.Name(tab.SetAt) != "[]=" {
		t.Errorf("SetAt = %q", tab.Name(tab.SetAt))
	}
}

func TestIdsAreStableAcrossInterns(t *testing.T) {
	tab := symbol.New()
	base := tab.Len()
	first := tab.Intern("x")
	tab.Intern("y")
	tab.Intern("z")
	again := tab.Intern("x")
	if first != again {
		t.Error("id for x changed after interning other names")
	}
	if int(first) != base {
		t.Errorf("first new id = %d, want %d", first, base)
	}
}

// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler_test

import (
	"testing"

	"github.com/probescript/probescript/internal/gc"
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/vm"
)

// newTestVM builds a fresh VM with a default heap and symbol table, mirroring
// internal/vm's own test helper — this package exercises the compiler
// end-to-end by running scripts through a real VM rather than inspecting
// bytecode directly, since a compile alone can't observe control-flow
// correctness.
func newTestVM() (*vm.VM, *symbol.Table) {
	symtab := symbol.New()
	heap := gc.NewHeap(gc.DefaultConfig())
	return vm.New(heap, symtab), symtab
}

func TestForLoopSumsToExpectedTotal(t *testing.T) {
	m, symtab := newTestVM()
	mod, diags, err := m.Exec("main", "main.ps", []byte(`
		var total = 0;
		for (var i = 0; i < 5; i = i + 1) {
			total = total + i;
		}
		var result = total;
	`), nil)
	if err != nil {
		t.Fatalf("Exec failed: %v (diagnostics: %v)", err, diags)
	}

	id, _ := symtab.Lookup("result")
	got, _ := mod.Lookup(id)
	if !got.IsNumber() || got.Double() != 10 {
		t.Errorf("sum 0..4: got %v, want 10", got)
	}
}

func TestBreakExitsTheEnclosingLoopOnly(t *testing.T) {
	m, symtab := newTestVM()
	mod, diags, err := m.Exec("main", "main.ps", []byte(`
		var seen = 0;
		for (var i = 0; i < 10; i = i + 1) {
			if (i == 3) {
				break;
			}
			seen = seen + 1;
		}
		var result = seen;
	`), nil)
	if err != nil {
		t.Fatalf("Exec failed: %v (diagnostics: %v)", err, diags)
	}

	id, _ := symtab.Lookup("result")
	got, _ := mod.Lookup(id)
	if !got.IsNumber() || got.Double() != 3 {
		t.Errorf("iterations before break: got %v, want 3", got)
	}
}

func TestBreakOutsideLoopIsACompileError(t *testing.T) {
	m, _ := newTestVM()
	_, diags, err := m.Exec("main", "main.ps", []byte(`break;`), nil)
	if err == nil {
		t.Fatal("expected a compile error for break outside a loop")
	}
	if len(diags) == 0 {
		t.Error("expected at least one diagnostic naming the misplaced break")
	}
}

func TestWhileLoopWithNestedForAndBreak(t *testing.T) {
	m, symtab := newTestVM()
	mod, diags, err := m.Exec("main", "main.ps", []byte(`
		var outer = 0;
		var count = 0;
		while (outer < 3) {
			for (var i = 0; i < 10; i = i + 1) {
				if (i == 2) {
					break;
				}
				count = count + 1;
			}
			outer = outer + 1;
		}
		var result = count;
	`), nil)
	if err != nil {
		t.Fatalf("Exec failed: %v (diagnostics: %v)", err, diags)
	}

	id, _ := symtab.Lookup("result")
	got, _ := mod.Lookup(id)
	if !got.IsNumber() || got.Double() != 6 {
		t.Errorf("nested break count: got %v, want 6 (2 per outer iteration x 3)", got)
	}
}

func TestDuplicateLocalReportsADiagnosticAndLaterCodeStillCompiles(t *testing.T) {
	m, symtab := newTestVM()
	mod, diags, err := m.Exec("main", "main.ps", []byte(`
		func f() {
			var a = 1;
			var a = 2;
		}
		var result = 1;
	`), nil)
	if err == nil {
		t.Fatal("expected a compile error for redeclaring 'a' in the same scope")
	}
	if len(diags) == 0 {
		t.Fatal("expected at least one diagnostic")
	}

	// The error is raised before the offending declaration's initializer,
	// which is still parsed through its own ';', so the parser stops at f's
	// closing '}', no synchronize() call is needed, and parsing continues
	// through the rest of the module: the unrelated top-level declaration
	// after f still gets interned and given its declared-but-not-yet-run
	// binding (a failed compile's Init is never invoked, so it holds var's
	// zero value rather than the literal it was assigned).
	id, ok := symtab.Lookup("result")
	if !ok {
		t.Fatal("symbol 'result' should still be interned despite the earlier error")
	}
	if _, ok := mod.Lookup(id); !ok {
		t.Error("'result' should still have a top-level binding after recovering from the prior error")
	}
}

func TestImportWithoutALoaderIsACompileError(t *testing.T) {
	m, _ := newTestVM()
	_, diags, err := m.Exec("main", "main.ps", []byte(`import "anything";`), nil)
	if err == nil {
		t.Fatal("expected a compile error: this module's Exec path supplies a nil loader")
	}
	if len(diags) == 0 {
		t.Error("expected at least one diagnostic naming the disabled import")
	}
}

// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm_test

import (
	"fmt"
	"testing"

	"github.com/probescript/probescript/internal/gc"
	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/value"
	"github.com/probescript/probescript/internal/vm"
)

// newTestVM builds a fresh VM with a default heap and symbol table.
func newTestVM() (*vm.VM, *symbol.Table) {
	symtab := symbol.New()
	heap := gc.NewHeap(gc.DefaultConfig())
	return vm.New(heap, symtab), symtab
}

// lookupVar reads a top-level module binding by name, failing the test if
// it was never declared.
func lookupVar(t *testing.T, symtab *symbol.Table, mod *object.Module, name string) value.Value {
	t.Helper()
	id, ok := symtab.Lookup(name)
	if !ok {
		t.Fatalf("symbol %q was never interned", name)
	}
	v, ok := mod.Lookup(id)
	if !ok {
		t.Fatalf("module %q has no top-level binding %q", mod.Name, name)
	}
	return v
}

func runScript(t *testing.T, m *vm.VM, name, src string) *object.Module {
	t.Helper()
	mod, diags, err := m.Exec(name, name+".ps", []byte(src), nil)
	if err != nil {
		t.Fatalf("Exec(%s) failed: %v (diagnostics: %v)", name, err, diags)
	}
	return mod
}

func TestFibonacciRecursion(t *testing.T) {
	m, symtab := newTestVM()
	mod := runScript(t, m, "main", `
		func fib(n) {
			if (n < 2) {
				return n;
			}
			return fib(n - 1) + fib(n - 2);
		}
		var result = fib(10);
	`)
	got := lookupVar(t, symtab, mod, "result")
	if !got.IsNumber() || got.Double() != 55 {
		t.Errorf("fib(10): got %v, want 55", got)
	}
}

func TestClassConstructorAndFieldSum(t *testing.T) {
	m, symtab := newTestVM()
	mod := runScript(t, m, "main", `
		class Box {
			var x;
			var y;
			func ctor(a, b) {
				self.x = a;
				self.y = b;
			}
			func sum() {
				return self.x + self.y;
			}
		}
		var b = new Box(1, 2);
		var result = b:sum();
	`)
	got := lookupVar(t, symtab, mod, "result")
	if !got.IsNumber() || got.Double() != 3 {
		t.Errorf("Box(1,2):sum(): got %v, want 3", got)
	}
}

func TestInheritanceAndSuper(t *testing.T) {
	m, symtab := newTestVM()
	mod := runScript(t, m, "main", `
		class Animal {
			var base;
			func ctor(n) {
				self.base = n;
			}
			func speak() {
				return self.base;
			}
		}
		class Dog : Animal {
			func ctor(n) {
				super:ctor(n);
			}
			func speak() {
				return super:speak() + 1;
			}
		}
		var d = new Dog(10);
		var result = d:speak();
	`)
	got := lookupVar(t, symtab, mod, "result")
	if !got.IsNumber() || got.Double() != 11 {
		t.Errorf("Dog(10):speak(): got %v, want 11", got)
	}
}

func TestShortCircuitSkipsSideEffects(t *testing.T) {
	m, symtab := newTestVM()
	mod := runScript(t, m, "main", `
		var k = 0;
		func bump() {
			k = k + 1;
			return true;
		}
		var a = false && bump();
		var c = true || bump();
		var result = k;
	`)
	got := lookupVar(t, symtab, mod, "result")
	if !got.IsNumber() || got.Double() != 0 {
		t.Errorf("short-circuit: bump() ran, k = %v, want 0", got)
	}
}

func TestStringConcatenationStringifiesBothSides(t *testing.T) {
	m, symtab := newTestVM()
	mod := runScript(t, m, "main", `
		var x = 3;
		var y = true;
		var result = "x=" + x + ", y=" + y;
	`)
	got := lookupVar(t, symtab, mod, "result")
	if !got.IsPointer() {
		t.Fatalf("result is not a string value: %v", got)
	}
	s, ok := object.FromValue(got).(*object.String)
	if !ok {
		t.Fatalf("result is not a heap string")
	}
	if s.Data != "x=3, y=true" {
		t.Errorf("concat: got %q, want %q", s.Data, "x=3, y=true")
	}
}

// testLoader resolves an import by compiling and executing a fixed,
// in-memory source map against the same VM, satisfying compiler.ModuleLoader
// (Load must return a module whose body has already run).
type testLoader struct {
	vm      *vm.VM
	sources map[string]string
}

func (l *testLoader) Load(fromModule, name string) (*object.Module, error) {
	if mod, ok := l.vm.Module(name); ok {
		return mod, nil
	}
	src, ok := l.sources[name]
	if !ok {
		return nil, fmt.Errorf("no such module %q", name)
	}
	mod, _, err := l.vm.Exec(name, name+".ps", []byte(src), l)
	return mod, err
}

func TestImportForAsBindsOnlyTheAlias(t *testing.T) {
	m, symtab := newTestVM()
	loader := &testLoader{vm: m, sources: map[string]string{
		"mathutil": `var e = 99;`,
	}}
	mod, diags, err := m.Exec("main", "main.ps", []byte(`
		import "mathutil" for e as f;
		var result = f;
	`), loader)
	if err != nil {
		t.Fatalf("Exec failed: %v (diagnostics: %v)", err, diags)
	}

	got := lookupVar(t, symtab, mod, "result")
	if !got.IsNumber() || got.Double() != 99 {
		t.Errorf("f: got %v, want 99", got)
	}
	if _, ok := symtab.Lookup("e"); ok {
		if _, bound := mod.Lookup(mustLookup(t, symtab, "e")); bound {
			t.Errorf("aliased import also bound unaliased name %q in importing module", "e")
		}
	}
}

func mustLookup(t *testing.T, symtab *symbol.Table, name string) symbol.ID {
	t.Helper()
	id, ok := symtab.Lookup(name)
	if !ok {
		t.Fatalf("symbol %q never interned", name)
	}
	return id
}

func TestRuntimeErrorOnNumberEmitsStackTrace(t *testing.T) {
	m, _ := newTestVM()

	type event struct {
		kind vm.Kind
		line int
		msg  string
	}
	var events []event
	m.SetErrorCallback(func(kind vm.Kind, line int, msg string) {
		events = append(events, event{kind, line, msg})
	})

	_, _, err := m.Exec("main", "main.ps", []byte(`
		var x = 5;
		x:foo();
	`), nil)
	if err == nil {
		t.Fatal("expected a runtime error calling a method on a number")
	}

	if len(events) < 3 {
		t.Fatalf("expected at least 3 callback events (error + begin + end), got %d: %+v", len(events), events)
	}
	if events[0].kind != vm.KindInvalidOpOnType {
		t.Errorf("first event kind: got %v, want %v", events[0].kind, vm.KindInvalidOpOnType)
	}
	if events[1].kind != vm.KindStackTraceBegin {
		t.Errorf("second event kind: got %v, want %v", events[1].kind, vm.KindStackTraceBegin)
	}
	last := events[len(events)-1]
	if last.kind != vm.KindStackTraceEnd {
		t.Errorf("last event kind: got %v, want %v", last.kind, vm.KindStackTraceEnd)
	}
}

func TestArityMismatchOnWrongArgCount(t *testing.T) {
	m, _ := newTestVM()
	_, _, err := m.Exec("main", "main.ps", []byte(`
		func needsTwo(a, b) {
			return a + b;
		}
		var result = needsTwo(1);
	`), nil)
	if err == nil {
		t.Fatal("expected an arity-mismatch error")
	}
}

func TestUndefinedMethodNamesLeafClass(t *testing.T) {
	m, _ := newTestVM()
	_, _, err := m.Exec("main", "main.ps", []byte(`
		class Base {
			func ctor() {}
		}
		class Leaf : Base {
			func ctor() {}
		}
		var l = new Leaf();
		l:nope();
	`), nil)
	if err == nil {
		t.Fatal("expected an undefined-method runtime error")
	}
}

func TestEmptyModuleCompilesToAnImmediateReturn(t *testing.T) {
	m, _ := newTestVM()
	mod, diags, err := m.Exec("empty", "empty.ps", []byte(``), nil)
	if err != nil {
		t.Fatalf("Exec of an empty module failed: %v (diagnostics: %v)", err, diags)
	}
	if mod.Init == nil {
		t.Fatal("empty module's Init is nil")
	}
	if len(mod.Init.Code) != 1 {
		t.Errorf("empty module Init: got %d instructions, want 1 (RETURN)", len(mod.Init.Code))
	}
}

func TestGCFinalizesDroppedInstancesWithinTwoCycles(t *testing.T) {
	m, symtab := newTestVM()
	mod := runScript(t, m, "main", `
		class Widget {
			func ctor() {}
			func dtor() {
				count = count + 1;
			}
		}
		var count = 0;
		func makeMany() {
			var i = 0;
			while (i < 1000) {
				var w = new Widget();
				i = i + 1;
			}
		}
		makeMany();
	`)

	if _, err := m.Collect(); err != nil {
		t.Fatalf("first Collect: %v", err)
	}
	if _, err := m.Collect(); err != nil {
		t.Fatalf("second Collect: %v", err)
	}

	got := lookupVar(t, symtab, mod, "count")
	if !got.IsNumber() || got.Double() != 1000 {
		t.Errorf("dtor invocations: got %v, want 1000", got)
	}
}

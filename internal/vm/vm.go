// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package vm implements the register machine that executes bytecode emitted
// by internal/compiler: the frame stack, the fetch-decode-execute loop, the
// CALL_FN dispatch protocol (script functions, natives, and callable
// instances/references/classes resolved through their "call" symbol), field
// load/store per §4.H's per-kind rules, and runtime error unwinding with a
// host-visible stack trace.
package vm

import (
	"github.com/probescript/probescript/internal/compiler"
	"github.com/probescript/probescript/internal/gc"
	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/value"
)

// ErrorCallback is the host's sink for both real errors and the
// stack_trace_begin/stack_trace/stack_trace_end framing triplet a runtime
// error unwind emits. line is 0 for the framing kinds.
type ErrorCallback func(kind Kind, line int, message string)

// PrintCallback is the host sink io.print writes through.
type PrintCallback func(message string)

// VM is one embeddable interpreter instance: its own heap, symbol table,
// value stack, frame stack, and loaded-module set.
type VM struct {
	heap   *gc.Heap
	symtab *symbol.Table

	stack  []value.Value
	frames []*frame

	modules map[string]*object.Module

	handles     []value.Value
	handleFree  []int

	onError  ErrorCallback
	onPrint  PrintCallback
	resolver ModuleResolverFn

	lastCallResult value.Value
	lastError      string
	verbose        bool
}

// ModuleResolverFn reads the raw source for name as imported from
// fromModule, for a host that backs imports with real files/bundles rather
// than pre-registered in-memory modules. internal/hostapi's ModuleLoader
// calls this to turn an import path into source bytes before compiling.
type ModuleResolverFn func(fromModule, name string) (fileName string, source []byte, err error)

// New creates an empty VM sharing heap and symtab (both typically
// constructed once per embedding and handed to New directly), and wires
// itself as heap's opportunistic collector so ordinary allocation through
// Track can trigger a cycle against this VM's root set.
func New(heap *gc.Heap, symtab *symbol.Table) *VM {
	vm := &VM{
		heap:    heap,
		symtab:  symtab,
		modules: make(map[string]*object.Module),
	}
	heap.SetCollector(vm.Collect)
	return vm
}

// SetErrorCallback installs the host error sink; nil disables it.
func (vm *VM) SetErrorCallback(cb ErrorCallback) { vm.onError = cb }

// SetPrintCallback installs the host print sink; nil disables it.
func (vm *VM) SetPrintCallback(cb PrintCallback) { vm.onPrint = cb }

// SetModuleResolver installs the host's import-path-to-source resolver.
func (vm *VM) SetModuleResolver(r ModuleResolverFn) { vm.resolver = r }

// SetVerbose records the verbose flag. Nothing in package vm reads it: the VM
// writes no collection or dispatch log output of its own, verbose or not.
func (vm *VM) SetVerbose(v bool) { vm.verbose = v }

// Heap and Symbols expose the shared runtime state internal/hostapi needs to
// compile further modules against this VM.
func (vm *VM) Heap() *gc.Heap          { return vm.heap }
func (vm *VM) Symbols() *symbol.Table  { return vm.symtab }

// Module returns a previously executed module by name.
func (vm *VM) Module(name string) (*object.Module, bool) {
	m, ok := vm.modules[name]
	return m, ok
}

// DefineNativeModule installs a host-built module (one with no Init to run,
// such as internal/stdlib's "io") directly into the loaded-module set, as if
// it had already been Exec'd. A ModuleLoader checking Module(name) first, the
// way internal/hostapi's does, resolves an import of it without ever
// compiling anything.
func (vm *VM) DefineNativeModule(mod *object.Module) {
	vm.modules[mod.Name] = mod
}

// Print stringifies each value per §4.A (numbers default-formatted, bools as
// true/false, null as null, strings unwrapped) and writes them through
// onPrint, space-joined — the implementation behind the io.print native.
func (vm *VM) Print(args []value.Value) {
	if vm.onPrint == nil {
		return
	}
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += vm.stringify(a)
	}
	vm.onPrint(out)
}

// --- gc.RootSet ------------------------------------------------------------

// Values implements gc.RootSet: the live window of the value stack plus the
// handle table (both hold Values directly).
func (vm *VM) Values() []value.Value {
	all := make([]value.Value, 0, len(vm.stack)+len(vm.handles))
	all = append(all, vm.stack...)
	all = append(all, vm.handles...)
	return all
}

// Objects implements gc.RootSet: every frame's function (script or native)
// and every loaded module.
func (vm *VM) Objects() []object.Object {
	objs := make([]object.Object, 0, len(vm.frames)+len(vm.modules))
	for _, f := range vm.frames {
		if f.fn != nil {
			objs = append(objs, f.fn)
		}
		if f.native != nil {
			objs = append(objs, f.native)
		}
	}
	for _, m := range vm.modules {
		objs = append(objs, m)
	}
	return objs
}

// Collect runs one GC cycle now, wiring this VM as the root set and as the
// DtorInvoker that materializes a finalized object and calls its scripted
// dtor through the normal call path.
func (vm *VM) Collect() (gc.CollectResult, error) {
	return vm.heap.Collect(vm, vm.symtab, vm.invokeDtor)
}

// invokeDtor satisfies gc.DtorInvoker: dtor is called with obj as the sole
// (receiver) argument, its result discarded.
func (vm *VM) invokeDtor(obj object.Object, dtor *object.ScriptFunction) error {
	var recv value.Value
	switch o := obj.(type) {
	case *object.Instance:
		recv = o.AsValue()
	case *object.Reference:
		recv = o.AsValue()
	default:
		return nil
	}
	_, err := vm.invoke(dtor.AsValue(), []value.Value{recv})
	return err
}

// --- module execution --------------------------------------------------

// Exec compiles and runs source as a new module named moduleName. loader is
// threaded through to the compiler for import resolution (nil disables
// imports for this compile). Returns the compiled module even on a runtime
// error, so the host can still inspect its top-level bindings.
func (vm *VM) Exec(moduleName, fileName string, source []byte, loader compiler.ModuleLoader) (*object.Module, []compiler.Diagnostic, error) {
	if _, exists := vm.modules[moduleName]; exists {
		if vm.onError != nil {
			vm.onError(KindModuleAlreadyDefined, 0, "module \""+moduleName+"\" is already defined")
		}
		return nil, nil, &runtimeError{kind: KindModuleAlreadyDefined, message: "module already defined: " + moduleName}
	}

	var reporter compiler.ErrorReporter
	if vm.onError != nil {
		reporter = reporterFunc(func(d compiler.Diagnostic) {
			vm.onError(KindCompile, d.Line, d.String())
		})
	}

	cfg := compiler.Config{
		ModuleName: moduleName,
		FileName:   fileName,
		Source:     source,
		Heap:       vm.heap,
		Symbols:    vm.symtab,
		Loader:     loader,
		Reporter:   reporter,
	}
	mod, diags, ok := compiler.Compile(cfg)
	if !ok {
		return mod, diags, vm.newError(KindCompile, "module %q failed to compile (%d diagnostic(s))", moduleName, len(diags))
	}

	vm.modules[moduleName] = mod
	if _, err := vm.invoke(mod.Init.AsValue(), nil); err != nil {
		return mod, diags, err
	}
	return mod, diags, nil
}

// Call invokes a script or native function value to completion, driving the
// dispatch loop itself; args are passed by value, never aliasing the
// caller's slice after the call.
func (vm *VM) Call(fn value.Value, args []value.Value) (value.Value, error) {
	return vm.invoke(fn, args)
}

// NewInstance constructs an instance of classVal per NEW_CLZ's own semantics
// (field initializers applied base-class-first), for a host that wants to
// instantiate a class without compiling a `new` expression — internal/hostapi's
// embedding surface.
func (vm *VM) NewInstance(classVal value.Value) (value.Value, error) {
	return vm.newInstance(classVal)
}

// reporterFunc adapts a plain func into compiler.ErrorReporter.
type reporterFunc func(compiler.Diagnostic)

func (f reporterFunc) ReportError(d compiler.Diagnostic) { f(d) }

// --- handles -------------------------------------------------------------

// MakeHandle stashes v in the handle table (rooting it against collection
// independent of the value stack) and returns a stable index.
func (vm *VM) MakeHandle(v value.Value) int {
	if n := len(vm.handleFree); n > 0 {
		idx := vm.handleFree[n-1]
		vm.handleFree = vm.handleFree[:n-1]
		vm.handles[idx] = v
		return idx
	}
	vm.handles = append(vm.handles, v)
	return len(vm.handles) - 1
}

// LoadHandle returns the value stashed at h, or Null if h was destroyed or
// never issued.
func (vm *VM) LoadHandle(h int) value.Value {
	if h < 0 || h >= len(vm.handles) {
		return value.Null
	}
	return vm.handles[h]
}

// SetHandle overwrites the value stashed at an already-issued, live handle;
// a bounds-violating or destroyed handle is a silent no-op, matching
// LoadHandle's bounds behavior.
func (vm *VM) SetHandle(h int, v value.Value) {
	if h < 0 || h >= len(vm.handles) {
		return
	}
	vm.handles[h] = v
}

// DestroyHandle releases h, letting whatever it held become collectible
// again once no other root references it.
func (vm *VM) DestroyHandle(h int) {
	if h < 0 || h >= len(vm.handles) {
		return
	}
	vm.handles[h] = value.Null
	vm.handleFree = append(vm.handleFree, h)
}

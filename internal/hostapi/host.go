// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package hostapi is the embedding surface a Go program uses to create a VM,
// load and run modules, and exchange values with scripted code: module
// create/load/unload, instance/reference construction, class binding
// installation, and the indexed value stack used to marshal arguments and
// results across the call boundary (§4.I).
package hostapi

import (
	"github.com/probescript/probescript/internal/compiler"
	"github.com/probescript/probescript/internal/config"
	"github.com/probescript/probescript/internal/gc"
	"github.com/probescript/probescript/internal/logx"
	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/stdlib"
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/value"
	"github.com/probescript/probescript/internal/vm"
)

// referenceByteCost mirrors internal/vm's own estimate for a reference
// allocation (header plus a representative inline-extra-data payload); it is
// duplicated rather than imported because internal/vm does not export it and
// a host constructing references directly is exactly the case that estimate
// was sized for.
const referenceByteCost = 48

// Host is one embeddable interpreter: a VM plus the ambient stack around it
// (config-driven heap budget, a TTY-aware logger, the "io" standard module,
// and an import loader wired to the host's own module resolver).
type Host struct {
	vm     *vm.VM
	symtab *symbol.Table
	heap   *gc.Heap
	log    *logx.Logger
	loader *loader
}

// New builds a Host from cfg (see internal/config), wiring the "io" standard
// module and an import loader that consults resolver for anything not
// already loaded.
func New(cfg config.Config, resolver vm.ModuleResolverFn) *Host {
	symtab := symbol.New()
	heap := gc.NewHeap(cfg.Heap())
	log := logx.New(cfg.Verbose)

	machine := vm.New(heap, symtab)
	machine.SetVerbose(cfg.Verbose)
	machine.SetErrorCallback(func(kind vm.Kind, line int, message string) {
		if kind == vm.KindCompile {
			log.Compile("", line, message)
		} else if kind != vm.KindStackTraceBegin && kind != vm.KindStackTrace && kind != vm.KindStackTraceEnd {
			log.Runtime(kind.String(), line, message)
		}
	})
	machine.SetPrintCallback(func(message string) { println(message) })

	machine.DefineNativeModule(stdlib.NewIO(symtab, machine))

	h := &Host{vm: machine, symtab: symtab, heap: heap, log: log}
	h.loader = newLoader(machine, resolver)
	return h
}

// VM exposes the underlying interpreter for a caller that needs direct
// access beyond this package's surface (e.g. internal/hostapi's own tests).
func (h *Host) VM() *vm.VM             { return h.vm }
func (h *Host) Symbols() *symbol.Table { return h.symtab }
func (h *Host) Heap() *gc.Heap         { return h.heap }
func (h *Host) Logger() *logx.Logger   { return h.log }

// --- module create / load / unload -----------------------------------------

// Exec compiles and runs source as a new module named moduleName, with
// imports resolved through this Host's loader.
func (h *Host) Exec(moduleName, fileName string, source []byte) (*object.Module, []compiler.Diagnostic, error) {
	return h.vm.Exec(moduleName, fileName, source, h.loader)
}

// Module returns a previously loaded module by name.
func (h *Host) Module(name string) (*object.Module, bool) {
	return h.vm.Module(name)
}

// Call invokes a script or native function value to completion.
func (h *Host) Call(fn value.Value, args []value.Value) (value.Value, error) {
	return h.vm.Call(fn, args)
}

// Collect runs one GC cycle now, beyond whatever Track triggers
// opportunistically on its own, and dumps the result when verbose logging
// is on — a host's hook for forcing and inspecting a cycle on demand (e.g.
// between test cases, or from a REPL's ":gc" command).
func (h *Host) Collect() (gc.CollectResult, error) {
	result, err := h.vm.Collect()
	h.log.Dump("gc cycle result", result)
	return result, err
}

// --- instance / reference construction -------------------------------------

// NewInstance constructs an instance of class, running its field
// initializers exactly as a scripted `new` expression would.
func (h *Host) NewInstance(class *object.Class) (value.Value, error) {
	return h.vm.NewInstance(class.AsValue())
}

// NewReference allocates a host-backed reference of class, with
// class.ExtraDataSize bytes of inline storage for the binding's own use.
// Field initializers never apply to a reference (§4.I: "reference
// construction with inline extra-data sized from a class binding").
func (h *Host) NewReference(class *object.Class) *object.Reference {
	ref := object.NewReference(class)
	h.heap.Track(ref, uint64(referenceByteCost+class.ExtraDataSize))
	return ref
}

// --- class binding installation ---------------------------------------------

// BindClass installs a class backing a native reference type: name, an
// optional base class, how many bytes of inline extra data each reference
// carries, and a host finalizer invoked immediately when an instance/
// reference of it becomes unreachable (before any scripted dtor, per §5's
// finalizer ordering).
func (h *Host) BindClass(name string, base *object.Class, extraDataSize int, finalizer object.FinalizerFn) *object.Class {
	class := object.NewClass(name, base, nil)
	class.ExtraDataSize = extraDataSize
	class.Finalizer = finalizer
	h.heap.Track(class, 96+uint64(extraDataSize))
	return class
}

// BindMethod installs a native method in class's method table under name,
// callable from script as class:name(...) or instance:name(...).
func (h *Host) BindMethod(class *object.Class, name string, arity int, fn object.NativeFn) {
	native := object.NewNativeFunction(name, arity, fn)
	h.heap.Track(native, 64)
	class.SetSlot(h.symtab.Intern(name), native.AsValue())
}

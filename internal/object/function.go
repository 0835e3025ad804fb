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
	"github.com/probescript/probescript/internal/value"
)

// Variadic is the arity sentinel meaning "any number of arguments accepted",
// matching the convention used for both script and native functions.
const Variadic = -1

// ScriptFunction is a compiled function body: its constant pool, its
// instruction sequence, a parallel code-to-line sidecar for diagnostics, and
// the stack-slot high-water mark the function builder computed for it.
type ScriptFunction struct {
	head Header

	Name             string
	Module           *Module // owning module, traced so LOAD_BASIC's "current module" constant resolves
	Constants        container.Seq[value.Value]
	Code             []uint32
	Lines            []int32 // Lines[i] is the source line instruction Code[i] was emitted for
	NeededStackSpace int
	Arity            int // Variadic (-1) accepts any argument count
}

// NewScriptFunction allocates a ScriptFunction; Code and Lines are filled in
// by the compiler once the function body has been fully emitted.
func NewScriptFunction(name string, module *Module) *ScriptFunction {
	return &ScriptFunction{head: Header{Kind: KindScriptFunction}, Name: name, Module: module, Arity: Variadic}
}

// Header returns the object's embedded allocator/GC header.
func (f *ScriptFunction) Header() *Header { return &f.head }

// AsValue boxes f as a NaN-boxed pointer Value.
func (f *ScriptFunction) AsValue() value.Value { return value.Pointer(unsafe.Pointer(f)) }

// NativeFn is the signature every host-provided native function implements:
// args is the callee's view of its argument slots; it returns the call's
// result value or an error to unwind as a runtime error.
type NativeFn func(args []value.Value) (value.Value, error)

// NativeFunction wraps a host Go function so it can be called through the
// same CALL_FN dispatch as a script function. StaticSlots holds any
// associated heap values the native implementation closed over (traced by
// the collector so they outlive the call that stashed them there).
type NativeFunction struct {
	head Header

	Name        string
	Arity       int // Variadic (-1) accepts any argument count
	Fn          NativeFn
	StaticSlots container.Seq[value.Value]
}

// NewNativeFunction allocates a NativeFunction bound to fn.
func NewNativeFunction(name string, arity int, fn NativeFn) *NativeFunction {
	return &NativeFunction{head: Header{Kind: KindNativeFunction}, Name: name, Arity: arity, Fn: fn}
}

// Header returns the object's embedded allocator/GC header.
func (f *NativeFunction) Header() *Header { return &f.head }

// AsValue boxes f as a NaN-boxed pointer Value.
func (f *NativeFunction) AsValue() value.Value { return value.Pointer(unsafe.Pointer(f)) }

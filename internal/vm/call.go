// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/value"
)

// dispatchCall resolves calleeVal to something invocable and either pushes a
// new frame (a script function) or runs a native function synchronously,
// writing its result to resultAbs (or vm.lastCallResult, for
// resultSentinel). An instance, reference, weak reference, or class value
// is callable only by way of a "call" method resolved on its class, with the
// receiver prepended to args per §4.H's callable-object protocol.
func (vm *VM) dispatchCall(calleeVal value.Value, args []value.Value, resultAbs int) error {
	if !calleeVal.IsPointer() {
		return vm.errInvalidOp("value is not callable")
	}
	switch o := object.FromValue(calleeVal).(type) {
	case *object.ScriptFunction:
		return vm.callScript(o, args, resultAbs)
	case *object.NativeFunction:
		return vm.callNative(o, args, resultAbs)
	case *object.Instance:
		return vm.callCallable(o.Class, calleeVal, args, resultAbs)
	case *object.Reference:
		return vm.callCallable(o.Class, calleeVal, args, resultAbs)
	case *object.WeakReference:
		return vm.callCallable(o.Class, calleeVal, args, resultAbs)
	case *object.Class:
		v, _, ok := o.Resolve(vm.symtab.Call)
		if !ok {
			return vm.errInvalidOp("class %q is not callable", o.Name)
		}
		return vm.dispatchCall(v, args, resultAbs)
	default:
		return vm.errInvalidOp("value is not callable")
	}
}

// callCallable resolves class's "call" method and invokes it with receiver
// prepended to args — the protocol a plain call-expression `x(...)` follows
// when x is an instance/reference/weak-reference rather than a function.
func (vm *VM) callCallable(class *object.Class, receiver value.Value, args []value.Value, resultAbs int) error {
	v, owner, ok := class.Resolve(vm.symtab.Call)
	if !ok {
		return vm.errInvalidOp("%q has no call method", class.Name)
	}
	_ = owner
	extended := make([]value.Value, 0, len(args)+1)
	extended = append(extended, receiver)
	extended = append(extended, args...)
	return vm.dispatchCall(v, extended, resultAbs)
}

// callScript pushes a new frame for fn, copying args into its register
// window's low slots (the rest zero-initialized to Null) and arity-checking
// unless fn accepts any argument count.
func (vm *VM) callScript(fn *object.ScriptFunction, args []value.Value, resultAbs int) error {
	if fn.Arity != object.Variadic && len(args) != fn.Arity {
		return vm.errArity(fn.Name, fn.Arity, len(args))
	}

	base := len(vm.stack)
	need := fn.NeededStackSpace
	if need < len(args) {
		need = len(args)
	}
	for i := 0; i < need; i++ {
		vm.stack = append(vm.stack, value.Null)
	}
	copy(vm.stack[base:base+len(args)], args)

	vm.frames = append(vm.frames, &frame{fn: fn, base: base, callerResultAbs: resultAbs})
	return nil
}

// callNative invokes fn synchronously, bracketing the call with a minimal
// frame so a runtime error raised from within (or by fn itself) still names
// it in a stack trace.
func (vm *VM) callNative(fn *object.NativeFunction, args []value.Value, resultAbs int) error {
	if fn.Arity != object.Variadic && len(args) != fn.Arity {
		return vm.errArity(fn.Name, fn.Arity, len(args))
	}

	vm.frames = append(vm.frames, &frame{native: fn, callerResultAbs: resultAbs})
	result, err := fn.Fn(args)
	vm.frames = vm.frames[:len(vm.frames)-1]
	if err != nil {
		return vm.errRuntime("%v", err)
	}

	if resultAbs == resultSentinel {
		vm.lastCallResult = result
	} else {
		vm.stack[resultAbs] = result
	}
	return nil
}

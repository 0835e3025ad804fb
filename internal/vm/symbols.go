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
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/value"
)

func symbolID(c int) symbol.ID { return symbol.ID(uint32(c)) }

// Rough per-object byte costs reported to the heap's allocation accounting,
// matching the estimates internal/compiler already uses for its own
// allocations (header plus a representative payload).
const (
	instanceByteCost  = 64
	referenceByteCost = 48
	stringByteCost    = 32
)

// loadSymbol implements LOAD_SYMBOL's per-kind dispatch (§4.H): an instance
// checks its own field map before falling through to its class chain; a
// class, module, reference, or weak reference resolves directly against
// their own (or their class's) symbol table.
func (vm *VM) loadSymbol(objVal value.Value, id symbol.ID) (value.Value, error) {
	if !objVal.IsPointer() {
		return value.Null, vm.errInvalidOp("cannot read a field on a %s value", kindOf(objVal))
	}
	switch o := object.FromValue(objVal).(type) {
	case *object.Instance:
		if v, ok := o.Lookup(id); ok {
			return v, nil
		}
		return value.Null, vm.errUndefinedSymbol(o.Class, id)
	case *object.Class:
		if v, _, ok := o.Resolve(id); ok {
			return v, nil
		}
		return value.Null, vm.errUndefinedSymbol(o, id)
	case *object.Module:
		if v, ok := o.Lookup(id); ok {
			return v, nil
		}
		return value.Null, vm.errRuntime("module %q has no symbol %q", o.Name, vm.symtab.Name(id))
	case *object.Reference:
		if v, _, ok := o.Class.Resolve(id); ok {
			return v, nil
		}
		return value.Null, vm.errUndefinedSymbol(o.Class, id)
	case *object.WeakReference:
		if v, _, ok := o.Class.Resolve(id); ok {
			return v, nil
		}
		return value.Null, vm.errUndefinedSymbol(o.Class, id)
	default:
		return value.Null, vm.errInvalidOp("cannot read a field on a %s", o.Header().Kind)
	}
}

// storeSymbol implements STORE_SYMBOL's per-kind dispatch: an instance write
// always lands in its own field map (never the class it shadows); a class or
// module write grows its indexed slot array as needed.
func (vm *VM) storeSymbol(objVal value.Value, id symbol.ID, v value.Value) error {
	if !objVal.IsPointer() {
		return vm.errInvalidOp("cannot store a field on a %s value", kindOf(objVal))
	}
	switch o := object.FromValue(objVal).(type) {
	case *object.Instance:
		o.Store(id, v)
		return nil
	case *object.Class:
		o.SetSlot(id, v)
		return nil
	case *object.Module:
		o.Store(id, v)
		return nil
	default:
		return vm.errInvalidOp("cannot store a field on a %s", o.Header().Kind)
	}
}

// newInstance implements NEW_CLZ: allocate an instance of classVal's class
// and apply every field initializer declared along its base chain, base
// class first so a derived class's redeclaration of the same field name
// wins.
func (vm *VM) newInstance(classVal value.Value) (value.Value, error) {
	if !classVal.IsPointer() {
		return value.Null, vm.errInvalidOp("new requires a class value")
	}
	class, ok := object.FromValue(classVal).(*object.Class)
	if !ok {
		return value.Null, vm.errInvalidOp("new requires a class value")
	}

	inst := object.NewInstance(class)
	vm.heap.Track(inst, uint64(instanceByteCost+class.ExtraDataSize))

	// inst is held live only by this Go local until it is returned; each
	// invoke below can itself allocate enough to provoke a collection, so
	// inst is pinned as a temporary root for the loop's duration.
	instVal := inst.AsValue()
	vm.heap.PushTempRoot(instVal)
	defer vm.heap.PopTempRoot()

	var chain []*object.Class
	for c := class; c != nil; c = c.Base {
		chain = append(chain, c)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for fid, initFn := range chain[i].FieldInits {
			v, err := vm.invoke(initFn.AsValue(), nil)
			if err != nil {
				return value.Null, err
			}
			inst.Store(fid, v)
		}
	}
	return instVal, nil
}

func (vm *VM) errUndefinedSymbol(originating *object.Class, id symbol.ID) *runtimeError {
	return vm.newError(KindRuntime, "undefined method or field %q on class %q", vm.symtab.Name(id), originating.Name)
}

func kindOf(v value.Value) string {
	switch {
	case v.IsNull():
		return "null"
	case v.IsBool():
		return "bool"
	case v.IsNumber():
		return "number"
	default:
		return "value"
	}
}

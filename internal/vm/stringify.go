// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"fmt"
	"math"
	"strconv"

	"github.com/probescript/probescript/internal/compiler"
	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/value"
)

// mathOp implements MATH_ADD/SUB/MUL/DIV. Two numbers always combine
// numerically; MATH_ADD additionally accepts any pair where at least one
// side is a string, producing a new string from stringifying both sides
// (§4.A) — every other type combination is an invalid_op_on_type error.
func (vm *VM) mathOp(op compiler.Opcode, a, b value.Value) (value.Value, error) {
	if a.IsNumber() && b.IsNumber() {
		x, y := a.Double(), b.Double()
		switch op {
		case compiler.OpMathAdd:
			return value.Number(x + y), nil
		case compiler.OpMathSub:
			return value.Number(x - y), nil
		case compiler.OpMathMul:
			return value.Number(x * y), nil
		case compiler.OpMathDiv:
			return value.Number(x / y), nil
		}
	}
	if op == compiler.OpMathAdd && (vm.isString(a) || vm.isString(b)) {
		return vm.newString(vm.stringify(a) + vm.stringify(b)), nil
	}
	return value.Null, vm.errInvalidOp("invalid operand types for arithmetic")
}

// cmpOp implements CMP_EE/NE/LT/GT/GE. Equality compares any pair of
// values; ordering requires both sides be numbers.
func (vm *VM) cmpOp(op compiler.Opcode, a, b value.Value) (value.Value, error) {
	switch op {
	case compiler.OpCmpEE:
		return value.Bool(vm.valuesEqual(a, b)), nil
	case compiler.OpCmpNE:
		return value.Bool(!vm.valuesEqual(a, b)), nil
	}
	if !a.IsNumber() || !b.IsNumber() {
		return value.Null, vm.errInvalidOp("ordering comparison requires numbers")
	}
	x, y := a.Double(), b.Double()
	switch op {
	case compiler.OpCmpLT:
		return value.Bool(x < y), nil
	case compiler.OpCmpGT:
		return value.Bool(x > y), nil
	case compiler.OpCmpGE:
		return value.Bool(x >= y), nil
	}
	return value.Null, vm.errRuntime("unreachable comparison opcode %s", op)
}

// valuesEqual implements script-level ==: two heap strings compare by
// content, everything else defers to value.Value.Equal (numeric value or
// exact bit identity).
func (vm *VM) valuesEqual(a, b value.Value) bool {
	if a.IsPointer() && b.IsPointer() {
		sa, aok := object.FromValue(a).(*object.String)
		sb, bok := object.FromValue(b).(*object.String)
		if aok && bok {
			return sa.Equal(sb)
		}
	}
	return a.Equal(b)
}

func (vm *VM) isString(v value.Value) bool {
	if !v.IsPointer() {
		return false
	}
	_, ok := object.FromValue(v).(*object.String)
	return ok
}

func (vm *VM) newString(s string) value.Value {
	o := object.NewString(s)
	vm.heap.Track(o, uint64(stringByteCost+len(s)))
	return o.AsValue()
}

// stringify renders v the way MATH_ADD's string-concat branch and io.print
// both need (§4.A/§4.J): numbers default-formatted, booleans as true/false,
// null as null, a heap string unwrapped to its raw content, and every other
// heap kind a short bracketed description.
func (vm *VM) stringify(v value.Value) string {
	switch {
	case v.IsNull():
		return "null"
	case v.IsTrue():
		return "true"
	case v.IsFalse():
		return "false"
	case v.IsNumber():
		return formatNumber(v.Double())
	case v.IsPointer():
		switch o := object.FromValue(v).(type) {
		case *object.String:
			return o.Data
		case *object.Class:
			return fmt.Sprintf("<class %s>", o.Name)
		case *object.Instance:
			return fmt.Sprintf("<instance of %s>", o.Class.Name)
		case *object.ScriptFunction:
			return fmt.Sprintf("<function %s>", o.Name)
		case *object.NativeFunction:
			return fmt.Sprintf("<native function %s>", o.Name)
		case *object.Module:
			return fmt.Sprintf("<module %s>", o.Name)
		case *object.Reference:
			return fmt.Sprintf("<reference %s>", o.Class.Name)
		case *object.WeakReference:
			return fmt.Sprintf("<weak reference %s>", o.Class.Name)
		}
	}
	return ""
}

// formatNumber renders whole-valued doubles without a trailing ".0" (so
// string concatenation of integral results reads naturally) and falls back
// to Go's shortest round-tripping form otherwise.
func formatNumber(d float64) string {
	if math.IsNaN(d) {
		return "nan"
	}
	if math.IsInf(d, 1) {
		return "inf"
	}
	if math.IsInf(d, -1) {
		return "-inf"
	}
	if d == math.Trunc(d) && math.Abs(d) < 1e15 {
		return strconv.FormatInt(int64(d), 10)
	}
	return strconv.FormatFloat(d, 'g', -1, 64)
}

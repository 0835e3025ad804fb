// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import (
	"github.com/probescript/probescript/internal/compiler"
	"github.com/probescript/probescript/internal/value"
)

// invoke is the single entry point every public call (Exec's module init,
// Call, a dtor invocation, a field initializer, an operator-protocol call
// made mid-instruction) funnels through: it pushes the callee, drives run()
// to completion, and on a runtime error restores the stack/frame depth to
// what it was before the call and reports the failure through onError.
func (vm *VM) invoke(callee value.Value, args []value.Value) (value.Value, error) {
	frameDepth := len(vm.frames)
	stackDepth := len(vm.stack)

	if err := vm.dispatchCall(callee, args, resultSentinel); err != nil {
		return value.Null, vm.reportError(err, frameDepth, stackDepth)
	}
	if len(vm.frames) > frameDepth {
		if err := vm.run(frameDepth); err != nil {
			return value.Null, vm.reportError(err, frameDepth, stackDepth)
		}
	}
	result := vm.lastCallResult
	vm.stack = vm.stack[:stackDepth]
	return result, nil
}

// run steps the dispatch loop until the frame stack has unwound back to
// untilDepth (the depth it was at before the call that's driving this run).
func (vm *VM) run(untilDepth int) error {
	for len(vm.frames) > untilDepth {
		if err := vm.step(); err != nil {
			return err
		}
	}
	return nil
}

// reportError emits the failure and its stack trace through onError (if
// set), then restores the VM to the state it had before the failed call.
func (vm *VM) reportError(err error, frameDepth, stackDepth int) error {
	re, ok := err.(*runtimeError)
	if !ok {
		re = &runtimeError{kind: KindRuntime, message: err.Error()}
	}
	if vm.onError != nil {
		vm.onError(re.kind, int(re.line), re.message)
		vm.onError(KindStackTraceBegin, 0, "")
		for i := len(vm.frames) - 1; i >= frameDepth; i-- {
			name, line := vm.frames[i].describe()
			vm.onError(KindStackTrace, int(line), name)
		}
		vm.onError(KindStackTraceEnd, 0, "")
	}
	vm.lastError = re.message
	vm.frames = vm.frames[:frameDepth]
	vm.stack = vm.stack[:stackDepth]
	return re
}

// describe names a frame and the source line its instruction pointer sits
// at, for a stack trace entry.
func (f *frame) describe() (name string, line int32) {
	if f.fn != nil {
		idx := f.ip
		if idx >= len(f.fn.Lines) {
			idx = len(f.fn.Lines) - 1
		}
		if idx < 0 {
			idx = 0
		}
		if len(f.fn.Lines) > 0 {
			line = f.fn.Lines[idx]
		}
		return f.fn.Name, line
	}
	if f.native != nil {
		return f.native.Name, 0
	}
	return "?", 0
}

// step fetches, decodes, and executes exactly one instruction from the
// current top frame. Pushing a new frame (CALL_FN on a script function) or
// popping one (RETURN) changes which frame is "top" for the next call to
// step, without any Go-level recursion.
func (vm *VM) step() error {
	f := vm.frames[len(vm.frames)-1]
	if f.ip >= len(f.fn.Code) {
		return vm.errRuntime("instruction pointer past end of code in %q", f.fn.Name)
	}
	idx := f.ip
	instr := f.fn.Code[idx]
	op, _, _, _ := compiler.Decode(instr)
	base := f.base

	switch op {
	case compiler.OpLoadSymbol:
		_, a, b, c := compiler.Decode(instr)
		v, err := vm.loadSymbol(vm.stack[base+b], symbolID(c))
		if err != nil {
			return err
		}
		vm.stack[base+a] = v
		f.ip++

	case compiler.OpLoadBasic:
		_, a, bx := compiler.DecodeBx(instr)
		switch {
		case bx == 0:
			vm.stack[base+a] = value.True
		case bx == 1:
			vm.stack[base+a] = value.False
		case bx == 2:
			vm.stack[base+a] = value.Null
		case bx == 3:
			vm.stack[base+a] = f.fn.Module.AsValue()
		default:
			vm.stack[base+a] = f.fn.Constants.At(bx - 4)
		}
		f.ip++

	case compiler.OpStoreMove:
		_, a, bx := compiler.DecodeBx(instr)
		vm.stack[base+a] = vm.stack[base+bx]
		f.ip++

	case compiler.OpStoreSymbol:
		_, a, b, c := compiler.Decode(instr)
		if err := vm.storeSymbol(vm.stack[base+a], symbolID(b), vm.stack[base+c]); err != nil {
			return err
		}
		f.ip++

	case compiler.OpNewClz:
		_, a, bx := compiler.DecodeBx(instr)
		v, err := vm.newInstance(vm.stack[base+bx])
		if err != nil {
			return err
		}
		vm.stack[base+a] = v
		f.ip++

	case compiler.OpMathAdd, compiler.OpMathSub, compiler.OpMathMul, compiler.OpMathDiv:
		_, a, b, c := compiler.Decode(instr)
		v, err := vm.mathOp(op, vm.stack[base+b], vm.stack[base+c])
		if err != nil {
			return err
		}
		vm.stack[base+a] = v
		f.ip++

	case compiler.OpCmpEE, compiler.OpCmpNE, compiler.OpCmpLT, compiler.OpCmpGT, compiler.OpCmpGE:
		_, a, b, c := compiler.Decode(instr)
		v, err := vm.cmpOp(op, vm.stack[base+b], vm.stack[base+c])
		if err != nil {
			return err
		}
		vm.stack[base+a] = v
		f.ip++

	case compiler.OpCmpAnd:
		_, a, b, c := compiler.Decode(instr)
		vm.stack[base+a] = value.Bool(vm.stack[base+b].Truthy() && vm.stack[base+c].Truthy())
		f.ip++

	case compiler.OpCmpOr:
		_, a, b, c := compiler.Decode(instr)
		vm.stack[base+a] = value.Bool(vm.stack[base+b].Truthy() || vm.stack[base+c].Truthy())
		f.ip++

	case compiler.OpNot:
		_, a, bx := compiler.DecodeBx(instr)
		vm.stack[base+a] = value.Bool(!vm.stack[base+bx].Truthy())
		f.ip++

	case compiler.OpCallFn:
		_, a, b, c := compiler.Decode(instr)
		callee := vm.stack[base+b]
		args := make([]value.Value, c)
		copy(args, vm.stack[base+a:base+a+c])
		if err := vm.dispatchCall(callee, args, base+a); err != nil {
			return err
		}
		f.ip++

	case compiler.OpJump:
		_, _, sbx := compiler.DecodeSBx(instr)
		f.ip = idx + sbx

	case compiler.OpJumpIf:
		_, a, sbx := compiler.DecodeSBx(instr)
		if vm.stack[base+a].Truthy() {
			f.ip = idx + sbx
		} else {
			f.ip++
		}

	case compiler.OpJumpIfNot:
		_, a, sbx := compiler.DecodeSBx(instr)
		if !vm.stack[base+a].Truthy() {
			f.ip = idx + sbx
		} else {
			f.ip++
		}

	case compiler.OpReturn:
		_, _, bx := compiler.DecodeBx(instr)
		result := vm.stack[base+bx]
		vm.frames = vm.frames[:len(vm.frames)-1]
		// Reclaim this frame's entire register window now rather than only at
		// the driving invoke()'s top level: a callee's locals become dead the
		// instant it returns, and holding them live in the root set until the
		// whole call chain unwinds would delay collection of anything they
		// reference far longer than the language's scoping implies.
		vm.stack = vm.stack[:base]
		if f.callerResultAbs == resultSentinel {
			vm.lastCallResult = result
		} else {
			vm.stack[f.callerResultAbs] = result
		}

	default:
		return vm.errRuntime("unimplemented opcode %s", op)
	}

	return nil
}

// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "fmt"

// Kind discriminates the error (and error-adjacent framing) conditions a VM
// surfaces through its host error callback, per §7's closed discriminant.
type Kind int

const (
	KindNone Kind = iota
	KindOutOfMemory
	KindRuntime
	KindLexer
	KindCompile
	KindArityMismatch
	KindModuleAlreadyDefined
	KindModuleNotFound
	KindInvalidOpOnType
	KindInvalidArgument

	// The three stack-trace framing kinds below carry no error of their own;
	// they bracket the one or more KindStackTrace calls a runtime error
	// unwind emits, one per frame on the call stack at the point of failure.
	KindStackTraceBegin
	KindStackTrace
	KindStackTraceEnd
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindOutOfMemory:
		return "out_of_memory"
	case KindRuntime:
		return "runtime"
	case KindLexer:
		return "lexer"
	case KindCompile:
		return "compile"
	case KindArityMismatch:
		return "arity_mismatch"
	case KindModuleAlreadyDefined:
		return "module_already_defined"
	case KindModuleNotFound:
		return "module_not_found"
	case KindInvalidOpOnType:
		return "invalid_op_on_type"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindStackTraceBegin:
		return "stack_trace_begin"
	case KindStackTrace:
		return "stack_trace"
	case KindStackTraceEnd:
		return "stack_trace_end"
	default:
		return "unknown"
	}
}

// runtimeError is the error type every opcode handler and call-dispatch
// helper returns; it carries enough for reportError to both call the host's
// error callback once for the failure itself and then walk the frame stack
// for the stack_trace_begin/stack_trace/stack_trace_end sequence.
type runtimeError struct {
	kind    Kind
	message string
	line    int32
}

func (e *runtimeError) Error() string { return fmt.Sprintf("%s: %s", e.kind, e.message) }

func (vm *VM) newError(kind Kind, format string, args ...interface{}) *runtimeError {
	return &runtimeError{kind: kind, message: fmt.Sprintf(format, args...), line: vm.currentLine()}
}

func (vm *VM) errInvalidOp(format string, args ...interface{}) *runtimeError {
	return vm.newError(KindInvalidOpOnType, format, args...)
}

func (vm *VM) errRuntime(format string, args ...interface{}) *runtimeError {
	return vm.newError(KindRuntime, format, args...)
}

func (vm *VM) errArity(name string, want, got int) *runtimeError {
	return vm.newError(KindArityMismatch, "%q expects %d argument(s), got %d", name, want, got)
}

// currentLine reports the source line of the instruction about to execute in
// the top frame, for attaching to a freshly raised runtimeError.
func (vm *VM) currentLine() int32 {
	if len(vm.frames) == 0 {
		return 0
	}
	f := vm.frames[len(vm.frames)-1]
	if f.fn == nil || len(f.fn.Lines) == 0 {
		return 0
	}
	idx := f.ip
	if idx >= len(f.fn.Lines) {
		idx = len(f.fn.Lines) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return f.fn.Lines[idx]
}

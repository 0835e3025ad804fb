// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler

import (
	"github.com/probescript/probescript/internal/gc"
	"github.com/probescript/probescript/internal/value"
)

// local is one declared name in a FunctionBuilder's local-variable table.
type local struct {
	name  string
	slot  int
	depth int // lexical nesting depth this local was declared at
}

// FunctionBuilder holds the emit-time state for one function body under
// construction, per §4.F: its constant pool, its instruction stream and
// parallel line sidecar, its local-variable table, a scope-depth counter,
// and the high-water mark of live slot indices that becomes the compiled
// function's needed_stack_space.
type FunctionBuilder struct {
	name  string
	arity int

	constants    []value.Value
	constantAt   map[value.Value]int
	stringConsts map[string]int // interned string constants, by content

	code  []uint32
	lines []int32

	locals     []local
	scopeDepth int

	nextSlot  int // next unused slot, i.e. the current stack top
	highWater int // largest nextSlot ever reached == needed_stack_space

	line int32 // current source line, set by the parser before each emit

	// heap and tempRootPushes protect a constant that is a pointer Value
	// against collection for as long as it lives only in b.constants and
	// not yet in a finished ScriptFunction's own constant pool (§4.D root
	// (6)): every pointer addConstant interns pushes one temporary root,
	// and finishFunction pops exactly that many once the pool is copied
	// over for good.
	heap           *gc.Heap
	tempRootPushes int
}

// newFunctionBuilder creates a builder for a function named name, whose
// in-progress constants will be rooted against heap (nil is valid: a bare
// *Heap-less compile, as in some tests, simply never collects mid-build).
func newFunctionBuilder(name string, heap *gc.Heap) *FunctionBuilder {
	return &FunctionBuilder{
		name:         name,
		constantAt:   make(map[value.Value]int),
		stringConsts: make(map[string]int),
		heap:         heap,
	}
}

// setLine records the source line subsequent emit calls should be
// attributed to; the parser calls this once per statement/expression node
// before lowering it.
func (b *FunctionBuilder) setLine(line int32) { b.line = line }

// pushScope opens a new lexical block.
func (b *FunctionBuilder) pushScope() { b.scopeDepth++ }

// popScope closes the innermost lexical block, discarding every local
// declared in it and reclaiming their slots (nextSlot rewinds; highWater
// does not, since the bytecode already emitted may still reference those
// slot numbers for as long as the function is running).
func (b *FunctionBuilder) popScope() {
	b.scopeDepth--
	for len(b.locals) > 0 && b.locals[len(b.locals)-1].depth > b.scopeDepth {
		b.locals = b.locals[:len(b.locals)-1]
	}
	// Recompute nextSlot as one past the highest surviving local's slot, or
	// 0 if none remain at this depth.
	if len(b.locals) == 0 {
		b.nextSlot = 0
	} else {
		b.nextSlot = b.locals[len(b.locals)-1].slot + 1
	}
}

// declareLocal appends a named slot at the current top of the slot stack
// (nextSlot), raising highWater if needed.
// Returns the slot index, or -1 and false if name was already declared in
// the current scope (a compile error the caller reports).
func (b *FunctionBuilder) declareLocal(name string) (int, bool) {
	for i := len(b.locals) - 1; i >= 0; i-- {
		l := b.locals[i]
		if l.depth < b.scopeDepth {
			break
		}
		if l.name == name {
			return -1, false
		}
	}
	slot := b.nextSlot
	b.locals = append(b.locals, local{name: name, slot: slot, depth: b.scopeDepth})
	b.nextSlot++
	if b.nextSlot > b.highWater {
		b.highWater = b.nextSlot
	}
	return slot, true
}

// pushTemp reserves n contiguous unnamed slots for expression evaluation and
// returns the first one.
func (b *FunctionBuilder) pushTemp(n int) int {
	start := b.nextSlot
	b.nextSlot += n
	if b.nextSlot > b.highWater {
		b.highWater = b.nextSlot
	}
	return start
}

// popTemp releases every temp slot from to (inclusive) back to the current
// top, by slot index, enforcing stack discipline: a caller must pop temps in
// the reverse order it pushed them.
func (b *FunctionBuilder) popTemp(to int) {
	b.nextSlot = to
}

// getVariable scans declared locals inner-to-outer (i.e. most-recently
// declared first, which is also innermost-scope first) and returns the slot
// index, or -1 and false if name has not been declared.
func (b *FunctionBuilder) getVariable(name string) (int, bool) {
	for i := len(b.locals) - 1; i >= 0; i-- {
		if b.locals[i].name == name {
			return b.locals[i].slot, true
		}
	}
	return -1, false
}

// addConstant interns v into the constant pool by exact value equality
// (bit-identical Values, i.e. the same number, same singleton, or the same
// already-interned string pointer) and returns its index.
func (b *FunctionBuilder) addConstant(v value.Value) int {
	if idx, ok := b.constantAt[v]; ok {
		return idx
	}
	idx := len(b.constants)
	b.constants = append(b.constants, v)
	b.constantAt[v] = idx
	if b.heap != nil && v.IsPointer() {
		b.heap.PushTempRoot(v)
		b.tempRootPushes++
	}
	return idx
}

// addStringConstant interns a string constant by content (so two string
// literals with the same text share one heap String object and one pool
// slot) via newString, which allocates and tracks the String object the
// first time content is seen.
func (b *FunctionBuilder) addStringConstant(content string, newString func(string) value.Value) int {
	if idx, ok := b.stringConsts[content]; ok {
		return idx
	}
	v := newString(content)
	idx := b.addConstant(v)
	b.stringConsts[content] = idx
	return idx
}

// emitABC appends one ABC-form instruction, recording the current line.
func (b *FunctionBuilder) emitABC(op Opcode, a, bOp, c int) int {
	b.code = append(b.code, EncodeABC(op, a, bOp, c))
	b.lines = append(b.lines, b.line)
	return len(b.code) - 1
}

// emitABx appends one ABx-form instruction, recording the current line.
func (b *FunctionBuilder) emitABx(op Opcode, a, bx int) int {
	b.code = append(b.code, EncodeABx(op, a, bx))
	b.lines = append(b.lines, b.line)
	return len(b.code) - 1
}

// emitJumpPlaceholder appends one AsBx-form instruction with a placeholder offset of 0,
// returning its index so the caller can patch it once the jump target is
// known (the "emit now, patch later" idiom: a jump instruction's own slice
// index stands in for a label-patch table entry, since Code is a plain
// mutable slice and there is no separate codegen pass to defer patches to).
func (b *FunctionBuilder) emitJumpPlaceholder(op Opcode, a int) int {
	return b.emitAsBx(op, a, 0)
}

func (b *FunctionBuilder) emitAsBx(op Opcode, a, sbx int) int {
	b.code = append(b.code, EncodeAsBx(op, a, sbx))
	b.lines = append(b.lines, b.line)
	return len(b.code) - 1
}

// patchJump rewrites the sBx operand of the jump instruction at idx so it
// lands at the current end of the instruction stream (len(b.code)).
func (b *FunctionBuilder) patchJump(idx int) {
	op, a, _ := DecodeSBx(b.code[idx])
	target := len(b.code)
	b.code[idx] = EncodeAsBx(op, a, target-idx)
}

// here returns the index the next emitted instruction will occupy, for a
// backward jump (e.g. a while loop's condition re-check) computed relative
// to a known instruction rather than patched after the fact.
func (b *FunctionBuilder) here() int { return len(b.code) }

// emitJumpTo emits an unconditional jump with a known backward target,
// computing sBx directly instead of going through the patch path.
func (b *FunctionBuilder) emitJumpTo(target int) {
	idx := b.emitAsBx(OpJump, 0, 0)
	op, a, _ := DecodeSBx(b.code[idx])
	b.code[idx] = EncodeAsBx(op, a, target-idx)
}

// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package compiler implements the single-pass front end: a byte-at-a-time
// lexer consumer, a Pratt expression parser fused with a recursive-descent
// statement parser, and the per-function builder state both write into —
// bytecode is emitted directly as syntax is recognized, with no
// intermediate AST.
package compiler

import "fmt"

// Opcode is a 5-bit instruction code.
type Opcode uint8

const (
	OpLoadSymbol Opcode = iota
	OpLoadBasic
	OpStoreMove
	OpStoreSymbol
	OpNewClz
	OpMathAdd
	OpMathSub
	OpMathMul
	OpMathDiv
	OpCmpEE
	OpCmpNE
	OpCmpLT
	OpCmpGT
	OpCmpGE
	OpCmpAnd
	OpCmpOr
	OpNot
	OpCallFn
	OpJump
	OpJumpIf
	OpJumpIfNot
	OpReturn
)

var opcodeNames = [...]string{
	OpLoadSymbol:  "LOAD_SYMBOL",
	OpLoadBasic:   "LOAD_BASIC",
	OpStoreMove:   "STORE_MOVE",
	OpStoreSymbol: "STORE_SYMBOL",
	OpNewClz:      "NEW_CLZ",
	OpMathAdd:     "MATH_ADD",
	OpMathSub:     "MATH_SUB",
	OpMathMul:     "MATH_MUL",
	OpMathDiv:     "MATH_DIV",
	OpCmpEE:       "CMP_EE",
	OpCmpNE:       "CMP_NE",
	OpCmpLT:       "CMP_LT",
	OpCmpGT:       "CMP_GT",
	OpCmpGE:       "CMP_GE",
	OpCmpAnd:      "CMP_AND",
	OpCmpOr:       "CMP_OR",
	OpNot:         "NOT",
	OpCallFn:      "CALL_FN",
	OpJump:        "JUMP",
	OpJumpIf:      "JUMP_IF",
	OpJumpIfNot:   "JUMP_IF_NOT",
	OpReturn:      "RETURN",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("OP(%d)", op)
}

// Instruction bit layout, matching §4.F exactly:
//
//	ABC  form: [5-bit opcode | 9-bit A | 9-bit B | 9-bit C]
//	ABx  form: [5-bit opcode | 9-bit A | 18-bit Bx]
//	AsBx form: [5-bit opcode | 9-bit A | 18-bit signed sBx, bias-encoded]
//
// Operand ranges: A, B, C in [0, 512); Bx in [0, 262144); sBx in
// [-131071, +131072] (stored as Bx = sBx + sBxBias).
const (
	opBits = 5
	aBits  = 9
	bBits  = 9
	cBits  = 9
	bxBits = 18

	cShift  = 0
	bShift  = cBits
	aShift  = cBits + bBits
	opShift = cBits + bBits + aBits

	bxShift  = 0
	aBxShift = bxBits

	maxABC = 1 << aBits // 512, shared by A, B, C
	maxBx  = 1 << bxBits

	// sBxBias centers the unsigned 18-bit Bx field so it can hold the
	// asymmetric signed range the spec requires.
	sBxBias = 131071
)

func mask(bits uint) uint32 { return 1<<bits - 1 }

// EncodeABC packs op, a, b, c into the ABC instruction form. Panics if any
// operand is out of its field's range — the compiler never intentionally
// produces an out-of-range operand, so a panic here means a compiler bug.
func EncodeABC(op Opcode, a, b, c int) uint32 {
	checkRange("A", a, maxABC)
	checkRange("B", b, maxABC)
	checkRange("C", c, maxABC)
	return uint32(op)<<opShift | uint32(a)<<aShift | uint32(b)<<bShift | uint32(c)<<cShift
}

// EncodeABx packs op, a, bx into the ABx instruction form.
func EncodeABx(op Opcode, a, bx int) uint32 {
	checkRange("A", a, maxABC)
	checkRange("Bx", bx, maxBx)
	return uint32(op)<<opShift | uint32(a)<<aBxShift | uint32(bx)<<bxShift
}

// EncodeAsBx packs op, a, sbx into the AsBx instruction form; sbx is bias
// encoded into the unsigned Bx field.
func EncodeAsBx(op Opcode, a, sbx int) uint32 {
	return EncodeABx(op, a, sbx+sBxBias)
}

func checkRange(name string, v int, limit int) {
	if v < 0 || v >= limit {
		panic(fmt.Sprintf("compiler: operand %s=%d out of range [0,%d)", name, v, limit))
	}
}

// Decode unpacks op, a, b, c from an ABC-form instruction.
func Decode(instr uint32) (op Opcode, a, b, c int) {
	op = Opcode(instr >> opShift)
	a = int((instr >> aShift) & mask(aBits))
	b = int((instr >> bShift) & mask(bBits))
	c = int((instr >> cShift) & mask(cBits))
	return
}

// DecodeBx unpacks op, a, bx from an ABx-form instruction.
func DecodeBx(instr uint32) (op Opcode, a, bx int) {
	op = Opcode(instr >> opShift)
	a = int((instr >> aBxShift) & mask(aBits))
	bx = int((instr >> bxShift) & mask(bxBits))
	return
}

// DecodeSBx unpacks op, a, sbx from an AsBx-form instruction, reversing
// EncodeAsBx's bias.
func DecodeSBx(instr uint32) (op Opcode, a, sbx int) {
	op, a, bx := DecodeBx(instr)
	return op, a, bx - sBxBias
}

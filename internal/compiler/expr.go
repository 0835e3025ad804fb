// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler

import (
	"strconv"

	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/token"
	"github.com/probescript/probescript/internal/value"
)

// Binding power, low to high; the Pratt loop in parseBinary climbs from a
// caller-supplied floor up through these levels. Assignment sits below all
// of them and is handled once, by expression itself, rather than inside the
// climbing loop.
const (
	precNone = iota
	precOr
	precAnd
	precEquality
	precComparison
	precAdditive
	precMultiplicative
)

func binaryPrec(t token.Type) int {
	switch t {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQ, token.NEQ:
		return precEquality
	case token.LT, token.GT, token.LTE, token.GTE:
		return precComparison
	case token.PLUS, token.MINUS:
		return precAdditive
	case token.STAR, token.SLASH:
		return precMultiplicative
	default:
		return precNone
	}
}

func isAssignOp(t token.Type) bool {
	return t == token.ASSIGN || t == token.PLUSEQ || t == token.MINUSEQ
}

type lvKind int

const (
	lvNone lvKind = iota
	lvLocal
	lvModule
	lvMember
	lvIndex
	lvSuperBase // `super` itself, as the left operand of a following `.`/`:`/`(`
)

// lvalue is the assignable-expression representation §4.G calls for: enough
// to know which store operation `=`/`+=`/`-=` on the left should use.
type lvalue struct {
	kind   lvKind
	slot   int
	sym    symbol.ID
	objReg int
}

// expression compiles e, writing its result into dst.
func (p *Parser) expression(dst int) {
	p.parseAssignment(dst)
}

func (p *Parser) parseAssignment(dst int) {
	lv := p.parseBinary(dst, precOr)
	if !isAssignOp(p.cur.Type) {
		return
	}
	op := p.cur.Type
	p.advance()

	if lv.kind == lvNone {
		p.errorf("invalid assignment target")
		rhs := p.fb().pushTemp(1)
		p.parseAssignment(rhs)
		p.fb().popTemp(rhs)
		return
	}

	if op != token.ASSIGN && lv.kind == lvIndex {
		// Fetch through copies of the receiver and index: the "[]" call's
		// result lands in its first argument register, and the "[]=" store
		// below still needs the originals.
		tmp := p.fb().pushTemp(2)
		p.fb().emitABx(OpStoreMove, tmp, lv.objReg)
		p.fb().emitABx(OpStoreMove, tmp+1, lv.objReg+1)
		p.loadIndexGet(lvalue{kind: lvIndex, objReg: tmp}, dst)
		p.fb().popTemp(tmp)
	}

	rhs := p.fb().pushTemp(1)
	p.parseAssignment(rhs)

	switch op {
	case token.PLUSEQ:
		p.fb().emitABC(OpMathAdd, dst, dst, rhs)
	case token.MINUSEQ:
		p.fb().emitABC(OpMathSub, dst, dst, rhs)
	case token.ASSIGN:
		p.fb().emitABx(OpStoreMove, dst, rhs)
	}
	if op != token.ASSIGN && lv.kind == lvIndex {
		p.fb().emitABx(OpStoreMove, rhs, dst) // "[]=" reads its value from rhs
	}

	p.storeLvalue(lv, dst)
	if lv.kind == lvIndex {
		p.fb().popTemp(lv.objReg)
	} else {
		p.fb().popTemp(rhs)
	}
}

// storeLvalue writes srcReg's value to the location lv names.
func (p *Parser) storeLvalue(lv lvalue, srcReg int) {
	switch lv.kind {
	case lvLocal:
		if srcReg != lv.slot {
			p.fb().emitABx(OpStoreMove, lv.slot, srcReg)
		}
	case lvModule:
		p.emitStoreModuleSymbol(lv.sym, srcReg)
	case lvMember:
		p.fb().emitABC(OpStoreSymbol, lv.objReg, int(lv.sym), srcReg)
	case lvIndex:
		// lv.objReg and the register immediately after it (the index) were
		// reserved, unpopped, by parseSubscriptPostfix; parseAssignment's rhs
		// register, reserved immediately after that, holds the value to store
		// (srcReg is not read here) — all three are contiguous, the receiver,
		// index, value triple the "[]=" protocol call needs.
		fnReg := p.fb().pushTemp(1)
		p.fb().emitABC(OpLoadSymbol, fnReg, lv.objReg, int(p.symtab.SetAt))
		p.fb().emitABC(OpCallFn, lv.objReg, fnReg, 3)
		p.fb().popTemp(fnReg)
	default:
		p.errorf("invalid assignment target")
	}
}

// loadIndexGet performs the "[]" protocol call to fetch lv's current value
// into dst, for a `+=`/`-=` on a subscript target, which needs the prior
// value before combining. It does not release lv's reserved registers, but
// the call's result overwrites the receiver in lv.objReg, so parseAssignment
// passes it copies of the receiver and index.
func (p *Parser) loadIndexGet(lv lvalue, dst int) {
	fnReg := p.fb().pushTemp(1)
	p.fb().emitABC(OpLoadSymbol, fnReg, lv.objReg, int(p.symtab.Index))
	p.fb().emitABC(OpCallFn, lv.objReg, fnReg, 2)
	if dst != lv.objReg {
		p.fb().emitABx(OpStoreMove, dst, lv.objReg)
	}
	p.fb().popTemp(fnReg)
}

// parseBinary climbs precedence levels at or above minPrec, left-associative
// except for the short-circuit operators, which recurse into their own
// jump-wrapped RHS rather than simply chaining MATH/CMP instructions.
func (p *Parser) parseBinary(dst int, minPrec int) lvalue {
	lv := p.parseUnary(dst)

	for {
		prec := binaryPrec(p.cur.Type)
		if prec < minPrec || prec == precNone {
			return lv
		}
		op := p.cur.Type
		p.advance()

		if op == token.AND {
			jmp := p.fb().emitJumpPlaceholder(OpJumpIfNot, dst)
			p.parseBinary(dst, prec+1)
			p.fb().patchJump(jmp)
			lv = lvalue{}
			continue
		}
		if op == token.OR {
			jmp := p.fb().emitJumpPlaceholder(OpJumpIf, dst)
			p.parseBinary(dst, prec+1)
			p.fb().patchJump(jmp)
			lv = lvalue{}
			continue
		}

		rhs := p.fb().pushTemp(1)
		p.parseBinary(rhs, prec+1)
		p.emitBinaryOp(op, dst, dst, rhs)
		p.fb().popTemp(rhs)
		lv = lvalue{}
	}
}

func (p *Parser) emitBinaryOp(op token.Type, dst, a, b int) {
	switch op {
	case token.PLUS:
		p.fb().emitABC(OpMathAdd, dst, a, b)
	case token.MINUS:
		p.fb().emitABC(OpMathSub, dst, a, b)
	case token.STAR:
		p.fb().emitABC(OpMathMul, dst, a, b)
	case token.SLASH:
		p.fb().emitABC(OpMathDiv, dst, a, b)
	case token.EQ:
		p.fb().emitABC(OpCmpEE, dst, a, b)
	case token.NEQ:
		p.fb().emitABC(OpCmpNE, dst, a, b)
	case token.LT:
		p.fb().emitABC(OpCmpLT, dst, a, b)
	case token.GT:
		p.fb().emitABC(OpCmpGT, dst, a, b)
	case token.GTE:
		p.fb().emitABC(OpCmpGE, dst, a, b)
	case token.LTE:
		// No dedicated CMP_LE opcode: a <= b is !(a > b).
		tmp := p.fb().pushTemp(1)
		p.fb().emitABC(OpCmpGT, tmp, a, b)
		p.fb().emitABx(OpNot, dst, tmp)
		p.fb().popTemp(tmp)
	}
}

func (p *Parser) parseUnary(dst int) lvalue {
	switch p.cur.Type {
	case token.BANG:
		p.advance()
		tmp := p.fb().pushTemp(1)
		p.parseUnary(tmp)
		p.fb().emitABx(OpNot, dst, tmp)
		p.fb().popTemp(tmp)
		return lvalue{}
	case token.MINUS:
		p.advance()
		tmp := p.fb().pushTemp(1)
		p.parseUnary(tmp)
		zeroIdx := p.fb().addConstant(value.Number(0))
		zeroReg := p.fb().pushTemp(1)
		p.fb().emitABx(OpLoadBasic, zeroReg, zeroIdx+4)
		p.fb().emitABC(OpMathSub, dst, zeroReg, tmp)
		p.fb().popTemp(zeroReg)
		p.fb().popTemp(tmp)
		return lvalue{}
	default:
		return p.parsePostfix(dst)
	}
}

func (p *Parser) parsePostfix(dst int) lvalue {
	lv := p.parsePrimary(dst)
	isSuper := lv.kind == lvSuperBase
	for {
		switch p.cur.Type {
		case token.LPAREN:
			lv = p.parseCallPostfix(dst, isSuper)
		case token.LBRACKET:
			lv = p.parseSubscriptPostfix(dst)
		case token.DOT:
			lv = p.parseMemberPostfix(dst)
		case token.COLON:
			lv = p.parseMethodCallPostfix(dst, isSuper)
		default:
			return lv
		}
		isSuper = false
	}
}

func (p *Parser) parsePrimary(dst int) lvalue {
	switch p.cur.Type {
	case token.INT, token.FLOAT:
		n := parseNumberLiteral(p.cur.Literal)
		p.advance()
		idx := p.fb().addConstant(value.Number(n))
		p.fb().emitABx(OpLoadBasic, dst, idx+4)
		return lvalue{}

	case token.STRING:
		content := decodeStringLiteral(p.cur.Literal)
		p.advance()
		idx := p.fb().addStringConstant(content, p.newString)
		p.fb().emitABx(OpLoadBasic, dst, idx+4)
		return lvalue{}

	case token.TRUE:
		p.advance()
		p.fb().emitABx(OpLoadBasic, dst, 0)
		return lvalue{}

	case token.FALSE:
		p.advance()
		p.fb().emitABx(OpLoadBasic, dst, 1)
		return lvalue{}

	case token.NIL:
		p.advance()
		p.fb().emitABx(OpLoadBasic, dst, 2)
		return lvalue{}

	case token.IDENT:
		name := p.cur.Literal
		p.advance()
		return p.loadIdentifier(name, dst)

	case token.NEW:
		return p.parseNewExpr(dst)

	case token.SUPER:
		p.advance()
		return p.parseSuperPrimary(dst)

	case token.LPAREN:
		p.advance()
		p.expression(dst)
		p.expect(token.RPAREN)
		return lvalue{}

	case token.FUNC:
		p.advance()
		fn := p.funcDeclBody("<anonymous>", false, false)
		idx := p.fb().addConstant(fn.AsValue())
		p.fb().emitABx(OpLoadBasic, dst, idx+4)
		return lvalue{}

	default:
		p.errorf("unexpected token %s %q in expression", p.cur.Type, p.cur.Literal)
		p.fb().emitABx(OpLoadBasic, dst, 2)
		p.advance()
		return lvalue{}
	}
}

// loadIdentifier resolves name as a local (inner-to-outer scan) or, failing
// that, a symbol on the current module, writing its value into dst and
// returning the matching lvalue so an assignment can target it back.
func (p *Parser) loadIdentifier(name string, dst int) lvalue {
	if slot, ok := p.fb().getVariable(name); ok {
		if dst != slot {
			p.fb().emitABx(OpStoreMove, dst, slot)
		}
		return lvalue{kind: lvLocal, slot: slot}
	}
	id := p.symtab.Intern(name)
	modReg := p.fb().pushTemp(1)
	p.fb().emitABx(OpLoadBasic, modReg, 3)
	p.fb().emitABC(OpLoadSymbol, dst, modReg, int(id))
	p.fb().popTemp(modReg)
	return lvalue{kind: lvModule, sym: id}
}

func (p *Parser) loadIdentifierInto(name string, reg int) {
	p.loadIdentifier(name, reg)
}

func (p *Parser) parseMemberPostfix(dst int) lvalue {
	p.expect(token.DOT)
	name := p.expect(token.IDENT).Literal
	id := p.symtab.Intern(name)
	objReg := p.fb().pushTemp(1)
	p.fb().emitABx(OpStoreMove, objReg, dst)
	p.fb().emitABC(OpLoadSymbol, dst, objReg, int(id))
	return lvalue{kind: lvMember, objReg: objReg, sym: id}
}

// parseSubscriptPostfix compiles `x[y]`. If the next token starts an
// assignment (`=`, `+=`, `-=`), the "[]" get is skipped — subscript-assign
// never needs the prior value except for +=/-=, which loadIndexGet handles
// — and the receiver/index registers are left reserved for the store.
func (p *Parser) parseSubscriptPostfix(dst int) lvalue {
	p.expect(token.LBRACKET)
	objReg := p.fb().pushTemp(1)
	p.fb().emitABx(OpStoreMove, objReg, dst)
	idxReg := p.fb().pushTemp(1)
	p.expression(idxReg)
	p.expect(token.RBRACKET)

	if isAssignOp(p.cur.Type) {
		return lvalue{kind: lvIndex, objReg: objReg}
	}

	fnReg := p.fb().pushTemp(1)
	p.fb().emitABC(OpLoadSymbol, fnReg, objReg, int(p.symtab.Index))
	p.fb().emitABC(OpCallFn, objReg, fnReg, 2)
	if dst != objReg {
		p.fb().emitABx(OpStoreMove, dst, objReg)
	}
	p.fb().popTemp(objReg)
	return lvalue{}
}

func (p *Parser) parseMethodCallPostfix(dst int, isSuper bool) lvalue {
	p.expect(token.COLON)
	name := p.expect(token.IDENT).Literal
	mid := p.symtab.Intern(name)

	var objReg, recvSrc int
	if isSuper {
		objReg = dst
		selfSlot, _ := p.fb().getVariable("self")
		recvSrc = selfSlot
	} else {
		objReg = p.fb().pushTemp(1)
		p.fb().emitABx(OpStoreMove, objReg, dst)
		recvSrc = objReg
	}

	p.expect(token.LPAREN)
	argStart := p.fb().pushTemp(1)
	if argStart != recvSrc {
		p.fb().emitABx(OpStoreMove, argStart, recvSrc)
	}
	argc := 1
	if !p.check(token.RPAREN) {
		for {
			d := p.fb().pushTemp(1)
			p.expression(d)
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN)

	fnReg := p.fb().pushTemp(1)
	p.fb().emitABC(OpLoadSymbol, fnReg, objReg, int(mid))
	p.fb().emitABC(OpCallFn, argStart, fnReg, argc)
	if dst != argStart {
		p.fb().emitABx(OpStoreMove, dst, argStart)
	}
	if isSuper {
		p.fb().popTemp(argStart)
	} else {
		p.fb().popTemp(objReg)
	}
	return lvalue{}
}

// parseCallPostfix compiles `f(...)`, or — when isSuper is set — bare
// `super(...)`, sugar for calling the base class's ctor bound to self.
func (p *Parser) parseCallPostfix(dst int, isSuper bool) lvalue {
	if isSuper {
		objReg := dst
		selfSlot, _ := p.fb().getVariable("self")
		p.expect(token.LPAREN)
		argStart := p.fb().pushTemp(1)
		p.fb().emitABx(OpStoreMove, argStart, selfSlot)
		argc := 1
		if !p.check(token.RPAREN) {
			for {
				d := p.fb().pushTemp(1)
				p.expression(d)
				argc++
				if !p.match(token.COMMA) {
					break
				}
			}
		}
		p.expect(token.RPAREN)
		fnReg := p.fb().pushTemp(1)
		p.fb().emitABC(OpLoadSymbol, fnReg, objReg, int(p.symtab.Ctor))
		p.fb().emitABC(OpCallFn, argStart, fnReg, argc)
		if dst != argStart {
			p.fb().emitABx(OpStoreMove, dst, argStart)
		}
		p.fb().popTemp(argStart)
		return lvalue{}
	}

	p.expect(token.LPAREN)
	argStart := -1
	argc := 0
	if p.check(token.RPAREN) {
		argStart = p.fb().pushTemp(1)
	} else {
		for {
			d := p.fb().pushTemp(1)
			if argStart < 0 {
				argStart = d
			}
			p.expression(d)
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN)

	p.fb().emitABC(OpCallFn, argStart, dst, argc)
	if dst != argStart {
		p.fb().emitABx(OpStoreMove, dst, argStart)
	}
	p.fb().popTemp(argStart)
	return lvalue{}
}

// parseNewExpr compiles `new Class[.ctor](args)`: allocate the instance
// (NEW_CLZ applies field initializers), then call the named constructor
// method (default "ctor") bound to the new instance, discarding whatever it
// returns — `new` always evaluates to the instance, never the
// constructor's return value.
func (p *Parser) parseNewExpr(dst int) lvalue {
	p.expect(token.NEW)
	className := p.expect(token.IDENT).Literal

	classReg := p.fb().pushTemp(1)
	p.loadIdentifierInto(className, classReg)

	ctorName := "ctor"
	if p.match(token.DOT) {
		ctorName = p.expect(token.IDENT).Literal
	}
	ctorID := p.symtab.Intern(ctorName)

	instReg := p.fb().pushTemp(1)
	p.fb().emitABx(OpNewClz, instReg, classReg)

	p.expect(token.LPAREN)
	argStart := p.fb().pushTemp(1)
	p.fb().emitABx(OpStoreMove, argStart, instReg)
	argc := 1
	if !p.check(token.RPAREN) {
		for {
			d := p.fb().pushTemp(1)
			p.expression(d)
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN)

	fnReg := p.fb().pushTemp(1)
	p.fb().emitABC(OpLoadSymbol, fnReg, instReg, int(ctorID))
	p.fb().emitABC(OpCallFn, argStart, fnReg, argc)

	if dst != instReg {
		p.fb().emitABx(OpStoreMove, dst, instReg)
	}
	p.fb().popTemp(classReg)
	return lvalue{}
}

// parseSuperPrimary compiles bare `super` to the enclosing method's class's
// base class value; the postfix loop special-cases the register that
// follows it so a receiver-bearing postfix (a call or method-call) uses
// `self`, not this base-class value, as the callable's receiver.
func (p *Parser) parseSuperPrimary(dst int) lvalue {
	class := p.currentClass()
	if class == nil || class.Base == nil {
		p.errorf("'super' used outside a class with a base class")
		p.fb().emitABx(OpLoadBasic, dst, 2)
		return lvalue{}
	}
	idx := p.fb().addConstant(class.Base.AsValue())
	p.fb().emitABx(OpLoadBasic, dst, idx+4)
	return lvalue{kind: lvSuperBase}
}

func parseNumberLiteral(lit string) float64 {
	n, _ := strconv.ParseFloat(lit, 64)
	return n
}

// --- constant-expression evaluator, for `static var` initializers --------
//
// A static field is shared by every instance and initialized once, at class
// declaration, so its initializer must be foldable without emitting any
// bytecode at all.

func (p *Parser) constExpr() value.Value { return p.constOr() }

func (p *Parser) constOr() value.Value {
	v := p.constAnd()
	for p.match(token.OR) {
		rhs := p.constAnd()
		v = value.Bool(v.Truthy() || rhs.Truthy())
	}
	return v
}

func (p *Parser) constAnd() value.Value {
	v := p.constEquality()
	for p.match(token.AND) {
		rhs := p.constEquality()
		v = value.Bool(v.Truthy() && rhs.Truthy())
	}
	return v
}

func (p *Parser) constEquality() value.Value {
	v := p.constComparison()
	for p.check(token.EQ) || p.check(token.NEQ) {
		op := p.cur.Type
		p.advance()
		rhs := p.constComparison()
		eq := v.Equal(rhs)
		if op == token.NEQ {
			eq = !eq
		}
		v = value.Bool(eq)
	}
	return v
}

func (p *Parser) constComparison() value.Value {
	v := p.constAdditive()
	for p.check(token.LT) || p.check(token.GT) || p.check(token.LTE) || p.check(token.GTE) {
		op := p.cur.Type
		p.advance()
		rhs := p.constAdditive()
		if !v.IsNumber() || !rhs.IsNumber() {
			p.errorf("constant comparison requires numbers")
			return value.Null
		}
		a, b := v.Double(), rhs.Double()
		var r bool
		switch op {
		case token.LT:
			r = a < b
		case token.GT:
			r = a > b
		case token.LTE:
			r = a <= b
		case token.GTE:
			r = a >= b
		}
		v = value.Bool(r)
	}
	return v
}

func (p *Parser) constAdditive() value.Value {
	v := p.constMultiplicative()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.cur.Type
		p.advance()
		rhs := p.constMultiplicative()
		if !v.IsNumber() || !rhs.IsNumber() {
			p.errorf("constant arithmetic requires numbers")
			return value.Null
		}
		a, b := v.Double(), rhs.Double()
		if op == token.PLUS {
			v = value.Number(a + b)
		} else {
			v = value.Number(a - b)
		}
	}
	return v
}

func (p *Parser) constMultiplicative() value.Value {
	v := p.constUnary()
	for p.check(token.STAR) || p.check(token.SLASH) {
		op := p.cur.Type
		p.advance()
		rhs := p.constUnary()
		if !v.IsNumber() || !rhs.IsNumber() {
			p.errorf("constant arithmetic requires numbers")
			return value.Null
		}
		a, b := v.Double(), rhs.Double()
		if op == token.STAR {
			v = value.Number(a * b)
		} else {
			v = value.Number(a / b)
		}
	}
	return v
}

func (p *Parser) constUnary() value.Value {
	switch p.cur.Type {
	case token.BANG:
		p.advance()
		return value.Bool(!p.constUnary().Truthy())
	case token.MINUS:
		p.advance()
		v := p.constUnary()
		if !v.IsNumber() {
			p.errorf("constant negation requires a number")
			return value.Null
		}
		return value.Number(-v.Double())
	default:
		return p.constPrimary()
	}
}

func (p *Parser) constPrimary() value.Value {
	switch p.cur.Type {
	case token.INT, token.FLOAT:
		n := parseNumberLiteral(p.cur.Literal)
		p.advance()
		return value.Number(n)
	case token.STRING:
		s := decodeStringLiteral(p.cur.Literal)
		p.advance()
		return p.newString(s)
	case token.TRUE:
		p.advance()
		return value.True
	case token.FALSE:
		p.advance()
		return value.False
	case token.NIL:
		p.advance()
		return value.Null
	case token.LPAREN:
		p.advance()
		v := p.constExpr()
		p.expect(token.RPAREN)
		return v
	default:
		p.errorf("expected a constant expression, got %s %q", p.cur.Type, p.cur.Literal)
		p.advance()
		return value.Null
	}
}

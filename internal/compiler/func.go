// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler

import (
	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/token"
)

// funcDeclBody parses the "(params) { ... }" portion of a function
// declaration and returns the compiled function. isMethod marks a
// class-body method (its body implicitly declares "self" in slot 0, and
// unless static, the receiver is counted into the compiled function's
// arity, matching the interpreter's callable dispatch rule of prepending
// the receiver and incrementing argc).
func (p *Parser) funcDeclBody(name string, isMethod, isStatic bool) *object.ScriptFunction {
	fb := newFunctionBuilder(name, p.heap)
	p.fbStack = append(p.fbStack, fb)

	if isMethod && !isStatic {
		fb.declareLocal("self")
	}

	p.expect(token.LPAREN)
	paramCount := 0
	for !p.check(token.RPAREN) && !p.check(token.EOF) {
		pname := p.expect(token.IDENT).Literal
		if _, ok := fb.declareLocal(pname); !ok {
			p.errorf("duplicate parameter name %q", pname)
		}
		paramCount++
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)

	p.expect(token.LBRACE)
	fb.pushScope()
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.statementGuarded()
	}
	fb.popScope()
	p.expect(token.RBRACE)

	// Implicit `return null;` so a function falling off its body still
	// leaves a well-defined value in the caller's result slot.
	retSlot := fb.pushTemp(1)
	fb.emitABx(OpLoadBasic, retSlot, 2)
	fb.emitABx(OpReturn, 0, retSlot)

	p.fbStack = p.fbStack[:len(p.fbStack)-1]

	arity := paramCount
	if isMethod && !isStatic {
		arity++
	}
	fn := p.finishFunction(fb, arity)
	if p.heap != nil {
		p.heap.Track(fn, functionByteCost(fn))
	}
	return fn
}

// funcDecl parses a top-level or nested `func name(params) { ... }` (never
// a class method — class bodies parse methods through classMember instead)
// and installs it as a module symbol (at the module's top level) or a local
// slot (nested inside another function).
func (p *Parser) funcDecl(isMethod, isStatic bool) {
	p.expect(token.FUNC)
	name := p.expect(token.IDENT).Literal

	// Binding happens in the *enclosing* builder — top-level binds a module
	// symbol, nested binds a local slot — per §4.G: funcDeclBody pushes and
	// pops its own nested builder, so p.fb() is back to the enclosing one by
	// the time bindDeclaredValue runs.
	fn := p.funcDeclBody(name, isMethod, isStatic)
	p.bindDeclaredValue(name, fn.AsValue())
}

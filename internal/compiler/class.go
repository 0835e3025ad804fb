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
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/token"
	"github.com/probescript/probescript/internal/value"
)

func (p *Parser) classDecl() {
	p.expect(token.CLASS)
	name := p.expect(token.IDENT).Literal

	var base *object.Class
	if p.match(token.COLON) {
		baseName := p.expect(token.IDENT).Literal
		base = p.resolveClassByName(baseName)
		if base == nil {
			p.errorf("undefined base class %q", baseName)
		}
	}

	class := object.NewClass(name, base, p.module)
	if p.heap != nil {
		p.heap.Track(class, classByteCost)
		// class isn't bound anywhere durable until bindDeclaredValue below,
		// so it is pinned while its members (each its own allocation, via
		// classMember/classInstanceField) are parsed. Popped explicitly
		// right after the member loop, rather than via defer, so it comes
		// off strictly before bindDeclaredValue pushes its own temp root
		// for the same value — the two spans are sequential, not nested,
		// and the stack is LIFO.
		p.heap.PushTempRoot(class.AsValue())
	}
	p.classStack = append(p.classStack, &classCtx{class: class})

	p.expect(token.LBRACE)
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.classMember(class)
	}
	p.expect(token.RBRACE)
	p.match(token.SEMICOLON)

	p.classStack = p.classStack[:len(p.classStack)-1]
	if p.heap != nil {
		p.heap.PopTempRoot()
	}
	p.bindDeclaredValue(name, class.AsValue())
}

// resolveClassByName looks up a previously-declared class by name in the
// module's symbol table (top-level classes) — used to resolve a
// `class X : Base` clause's base-class reference. A name bound as a local of
// the current function resolves to nil, as an unknown name does, and the
// caller then reports an undefined base class.
func (p *Parser) resolveClassByName(name string) *object.Class {
	if slot, ok := p.fb().getVariable(name); ok {
		_ = slot // a local binding is not resolved as a base class
		return nil
	}
	id, ok := p.symtab.Lookup(name)
	if !ok {
		return nil
	}
	v, ok := p.module.Lookup(id)
	if !ok || !v.IsPointer() {
		return nil
	}
	c, ok := object.FromValue(v).(*object.Class)
	if !ok {
		return nil
	}
	return c
}

// bindDeclaredValue installs a fully-constructed value (a class or a
// top-level function) under name: a module symbol at top level, or a local
// slot when nested. v must already be tracked by the heap if it is a heap
// pointer.
func (p *Parser) bindDeclaredValue(name string, v value.Value) {
	enclosing := p.fb()
	constIdx := enclosing.addConstant(v)

	if p.isTopLevel() {
		id := p.symtab.Intern(name)
		p.module.Store(id, v)
		tmp := enclosing.pushTemp(1)
		enclosing.emitABx(OpLoadBasic, tmp, constIdx+4)
		p.emitStoreModuleSymbol(id, tmp)
		enclosing.popTemp(tmp)
		return
	}

	slot, ok := enclosing.declareLocal(name)
	if !ok {
		p.errorf("%q is already declared in this scope", name)
		return
	}
	enclosing.emitABx(OpLoadBasic, slot, constIdx+4)
}

func (p *Parser) classMember(class *object.Class) {
	isStatic := p.match(token.STATIC)

	switch p.cur.Type {
	case token.VAR:
		p.advance()
		fname := p.expect(token.IDENT).Literal
		fid := p.symtab.Intern(fname)
		if isStatic {
			val := value.Null
			if p.match(token.ASSIGN) {
				val = p.constExpr()
			}
			p.expect(token.SEMICOLON)
			class.SetSlot(fid, val)
			return
		}
		p.classInstanceField(class, fid)

	case token.FUNC:
		p.advance()
		mname := p.expect(token.IDENT).Literal
		fn := p.funcDeclBody(mname, true, isStatic)
		mid := p.symtab.Intern(mname)
		class.SetSlot(mid, fn.AsValue())

	default:
		p.errorf("expected 'var' or 'func' in class body, got %s %q", p.cur.Type, p.cur.Literal)
		p.synchronize()
	}
}

// classInstanceField installs fid's field initializer: a zero-argument
// function NEW_CLZ invokes for every new instance. A field with no explicit
// initializer still gets one — a trivial "return null" body — so every
// declared field is uniformly present after construction rather than only
// appearing in an instance's field map the first time it's assigned.
func (p *Parser) classInstanceField(class *object.Class, fid symbol.ID) {
	fb := newFunctionBuilder("<field-init>", p.heap)
	p.fbStack = append(p.fbStack, fb)
	retSlot := fb.pushTemp(1)
	if p.match(token.ASSIGN) {
		p.expression(retSlot)
	} else {
		fb.emitABx(OpLoadBasic, retSlot, 2)
	}
	fb.emitABx(OpReturn, 0, retSlot)
	p.fbStack = p.fbStack[:len(p.fbStack)-1]
	p.expect(token.SEMICOLON)

	fn := p.finishFunction(fb, 0)
	if p.heap != nil {
		p.heap.Track(fn, functionByteCost(fn))
	}
	if class.FieldInits == nil {
		class.FieldInits = make(map[symbol.ID]*object.ScriptFunction)
	}
	class.FieldInits[fid] = fn
}

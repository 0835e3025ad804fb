// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler

import (
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/token"
	"github.com/probescript/probescript/internal/value"
)

// statementGuarded parses one statement and, if it produced a fresh
// diagnostic and left the cursor somewhere other than a natural boundary,
// synchronizes to the next ';' so a single malformed statement does not
// cascade into unrelated follow-on errors.
func (p *Parser) statementGuarded() {
	before := len(p.diags)
	p.statement()
	if len(p.diags) > before && !p.check(token.EOF) && !p.check(token.RBRACE) {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	p.fb().setLine(p.curLine())
	switch p.cur.Type {
	case token.VAR:
		p.varDecl()
	case token.FUNC:
		p.funcDecl(false, false)
	case token.CLASS:
		p.classDecl()
	case token.IMPORT:
		p.importStmt()
	case token.IF:
		p.ifStmt()
	case token.WHILE:
		p.whileStmt()
	case token.FOR:
		p.forStmt()
	case token.RETURN:
		p.returnStmt()
	case token.BREAK:
		p.breakStmt()
	case token.LBRACE:
		p.block()
	case token.STATIC:
		p.errorf("static declarations are only valid inside a class body")
		p.synchronize()
	default:
		p.exprStmt()
	}
}

func (p *Parser) block() {
	p.expect(token.LBRACE)
	p.fb().pushScope()
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.statementGuarded()
	}
	p.fb().popScope()
	p.expect(token.RBRACE)
}

// isTopLevel reports whether the parser is directly in the module's Init
// body, at lexical depth 0 — the only place a `var`/`func` declaration
// installs a module symbol rather than a local slot (§4.G).
func (p *Parser) isTopLevel() bool {
	return len(p.fbStack) == 1 && p.fb().scopeDepth == 0
}

func (p *Parser) varDecl() {
	p.expect(token.VAR)
	name := p.expect(token.IDENT).Literal

	if p.isTopLevel() {
		id := p.symtab.Intern(name)
		p.module.Store(id, value.Null)
		if p.match(token.ASSIGN) {
			tmp := p.fb().pushTemp(1)
			p.expression(tmp)
			p.emitStoreModuleSymbol(id, tmp)
			p.fb().popTemp(tmp)
		}
		p.expect(token.SEMICOLON)
		return
	}

	slot, ok := p.fb().declareLocal(name)
	if !ok {
		p.errorf("%q is already declared in this scope", name)
	}
	if p.match(token.ASSIGN) {
		p.expression(slot)
	} else {
		p.fb().emitABx(OpLoadBasic, slot, 2) // null
	}
	p.expect(token.SEMICOLON)
}

// emitStoreModuleSymbol stores the value in srcSlot into the current
// module's symbol id, via LOAD_BASIC's "current module" constant (Bx=3).
func (p *Parser) emitStoreModuleSymbol(id symbol.ID, srcSlot int) {
	modReg := p.fb().pushTemp(1)
	p.fb().emitABx(OpLoadBasic, modReg, 3)
	p.fb().emitABC(OpStoreSymbol, modReg, int(id), srcSlot)
	p.fb().popTemp(modReg)
}

func (p *Parser) importStmt() {
	p.expect(token.IMPORT)
	pathTok := p.expect(token.STRING)
	path := decodeStringLiteral(pathTok.Literal)

	type binding struct{ name, alias string }
	var bindings []binding
	selective := false
	if p.match(token.FOR) {
		selective = true
		for {
			name := p.expect(token.IDENT).Literal
			alias := name
			if p.match(token.ASSIGN) || p.matchIdent("as") {
				alias = p.expect(token.IDENT).Literal
			}
			bindings = append(bindings, binding{name: name, alias: alias})
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.SEMICOLON)

	if p.loader == nil {
		p.errorf("import %q: host does not support module imports in this context", path)
		return
	}
	mod, err := p.loader.Load(p.module.Name, path)
	if err != nil {
		p.errorf("import %q: %v", path, err)
		return
	}

	if !selective {
		for i, id := range mod.VarNames {
			p.module.Store(id, mod.VarSlots[i])
		}
		return
	}
	for _, b := range bindings {
		id, ok := p.symtab.Lookup(b.name)
		if !ok {
			p.errorf("module %q has no top-level binding %q", path, b.name)
			continue
		}
		v, ok := mod.Lookup(id)
		if !ok {
			p.errorf("module %q has no top-level binding %q", path, b.name)
			continue
		}
		aliasID := p.symtab.Intern(b.alias)
		p.module.Store(aliasID, v)
	}
}

// matchIdent consumes the current token if it is an identifier spelled
// exactly lit (used for the contextual "as" keyword in import clauses,
// which the lexer tokenizes as a reserved word: token.AS).
func (p *Parser) matchIdent(lit string) bool {
	if p.check(token.AS) && p.cur.Literal == lit {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) ifStmt() {
	p.expect(token.IF)
	p.expect(token.LPAREN)
	condDst := p.fb().pushTemp(1)
	p.expression(condDst)
	p.expect(token.RPAREN)
	jumpElse := p.fb().emitJumpPlaceholder(OpJumpIfNot, condDst)
	p.fb().popTemp(condDst)

	p.statementGuarded()

	if p.match(token.ELSE) {
		jumpEnd := p.fb().emitJumpPlaceholder(OpJump, 0)
		p.fb().patchJump(jumpElse)
		p.statementGuarded()
		p.fb().patchJump(jumpEnd)
		return
	}
	p.fb().patchJump(jumpElse)
}

func (p *Parser) pushLoop() { p.loopStack = append(p.loopStack, &loopCtx{}) }

func (p *Parser) popLoopPatchBreaks() {
	lc := p.loopStack[len(p.loopStack)-1]
	p.loopStack = p.loopStack[:len(p.loopStack)-1]
	for _, idx := range lc.breakJumps {
		p.fb().patchJump(idx)
	}
}

func (p *Parser) whileStmt() {
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	loopStart := p.fb().here()
	condDst := p.fb().pushTemp(1)
	p.expression(condDst)
	p.expect(token.RPAREN)
	jumpEnd := p.fb().emitJumpPlaceholder(OpJumpIfNot, condDst)
	p.fb().popTemp(condDst)

	p.pushLoop()
	p.statementGuarded()
	p.fb().emitJumpTo(loopStart)
	p.fb().patchJump(jumpEnd)
	p.popLoopPatchBreaks()
}

// forStmt lowers `for (init ; cond ; inc) body` into the classical
// condition/jump/update/body layout (§4.G): bytecode for the increment
// clause is emitted in its textual position (this is single-pass — there is
// no AST to defer it with) but is wrapped in jumps so control still flows
// cond -> body -> increment -> cond.
func (p *Parser) forStmt() {
	p.expect(token.FOR)
	p.expect(token.LPAREN)
	p.fb().pushScope()

	p.forInit()

	condStart := p.fb().here()
	hasCond := !p.check(token.SEMICOLON)
	condJumpEnd := -1
	if hasCond {
		condDst := p.fb().pushTemp(1)
		p.expression(condDst)
		condJumpEnd = p.fb().emitJumpPlaceholder(OpJumpIfNot, condDst)
		p.fb().popTemp(condDst)
	}
	p.expect(token.SEMICOLON)

	jumpToBody := p.fb().emitJumpPlaceholder(OpJump, 0)
	incStart := p.fb().here()
	if !p.check(token.RPAREN) {
		p.forIncrement()
	}
	p.fb().emitJumpTo(condStart)
	p.expect(token.RPAREN)

	p.fb().patchJump(jumpToBody) // lands exactly here, at bodyStart
	p.pushLoop()
	p.statementGuarded()
	p.fb().emitJumpTo(incStart)

	if condJumpEnd >= 0 {
		p.fb().patchJump(condJumpEnd)
	}
	p.popLoopPatchBreaks()
	p.fb().popScope()
}

func (p *Parser) forInit() {
	switch {
	case p.check(token.VAR):
		p.varDecl()
	case p.check(token.SEMICOLON):
		p.advance()
	default:
		p.exprStmt()
	}
}

func (p *Parser) forIncrement() {
	dst := p.fb().pushTemp(1)
	p.expression(dst)
	p.fb().popTemp(dst)
}

func (p *Parser) returnStmt() {
	p.expect(token.RETURN)
	retSlot := p.fb().pushTemp(1)
	if p.check(token.SEMICOLON) {
		p.fb().emitABx(OpLoadBasic, retSlot, 2)
	} else {
		p.expression(retSlot)
	}
	p.expect(token.SEMICOLON)
	p.fb().emitABx(OpReturn, 0, retSlot)
	p.fb().popTemp(retSlot)
}

func (p *Parser) breakStmt() {
	p.expect(token.BREAK)
	p.expect(token.SEMICOLON)
	if len(p.loopStack) == 0 {
		p.errorf("break used outside of a loop")
		return
	}
	idx := p.fb().emitJumpPlaceholder(OpJump, 0)
	lc := p.loopStack[len(p.loopStack)-1]
	lc.breakJumps = append(lc.breakJumps, idx)
}

func (p *Parser) exprStmt() {
	dst := p.fb().pushTemp(1)
	p.expression(dst)
	p.fb().popTemp(dst)
	p.expect(token.SEMICOLON)
}

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
	"github.com/probescript/probescript/internal/lexer"
	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/token"
	"github.com/probescript/probescript/internal/value"
)

// loopCtx tracks one enclosing loop's break-jump instructions, patched to
// land just past the loop once its closing code is reached.
type loopCtx struct {
	breakJumps []int
}

// Config is everything one Compile call needs: the source to parse, the
// name the resulting module is installed under, and the shared runtime
// state (heap, symbol table, import loader, error sink) every module in a
// VM instance has in common.
type Config struct {
	ModuleName string
	FileName   string
	Source     []byte

	Heap     *gc.Heap
	Symbols  *symbol.Table
	Loader   ModuleLoader  // nil: imports are a compile error
	Reporter ErrorReporter // nil: diagnostics are still collected, just not forwarded
}

// Parser is a single-pass, single-lookahead recursive-descent/Pratt parser.
// It holds no AST: every rule it recognizes emits bytecode directly into
// the function builder on top of fbStack.
type Parser struct {
	cfg      Config
	fileName string
	symtab   *symbol.Table
	heap     *gc.Heap
	loader   ModuleLoader
	reporter ErrorReporter

	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token

	diags    []Diagnostic
	hadError bool

	module *object.Module
	fbStack []*FunctionBuilder

	classStack []*classCtx
	loopStack  []*loopCtx
}

// classCtx is the parser's view of the class body currently being parsed.
type classCtx struct {
	class *object.Class
}

// Compile parses and, for the module's own top-level declarations, emits a
// complete Init function; it does not execute anything itself. The returned
// bool is true iff compilation produced no diagnostics — per §4.G, a module
// with compile errors is never executed by the caller.
func Compile(cfg Config) (*object.Module, []Diagnostic, bool) {
	p := &Parser{
		cfg:      cfg,
		fileName: cfg.FileName,
		symtab:   cfg.Symbols,
		heap:     cfg.Heap,
		loader:   cfg.Loader,
		reporter: cfg.Reporter,
		lex:      lexer.New(cfg.FileName, string(cfg.Source)),
	}
	p.advance()
	p.advance()

	p.module = object.NewModule(cfg.ModuleName)
	if p.heap != nil {
		p.heap.Track(p.module, moduleByteCost)
		// The module isn't bound anywhere durable until Compile returns it,
		// so it is pinned as a temp root for the whole parse: any string or
		// function tracked while parsing the body below could otherwise
		// trigger a collection that sweeps it away unreached.
		p.heap.PushTempRoot(p.module.AsValue())
		defer p.heap.PopTempRoot()
	}

	init := newFunctionBuilder("init", p.heap)
	p.fbStack = append(p.fbStack, init)

	for !p.check(token.EOF) {
		p.statementGuarded()
	}

	// Implicit `return null;` so a module with no explicit top-level return
	// still has a well-defined RETURN as its final instruction — an empty
	// source file compiles to a one-instruction Init that returns immediately,
	// reading a register the VM has already set to null on entry.
	retSlot := init.pushTemp(1)
	if len(init.code) > 0 {
		init.emitABx(OpLoadBasic, retSlot, 2)
	}
	init.emitABx(OpReturn, 0, retSlot)

	fn := p.finishFunction(init, 0)
	p.module.Init = fn
	if p.heap != nil {
		p.heap.Track(fn, functionByteCost(fn))
	}

	return p.module, p.diags, !p.hadError
}

// Rough per-object byte costs reported to the heap's allocation accounting;
// these are estimates (header + a representative payload), not exact sizes,
// matching the allocator's use of Track as a budget signal rather than a
// precise memory accountant.
const (
	moduleByteCost = 64
	classByteCost  = 96
	stringByteCost = 32
)

func functionByteCost(fn *object.ScriptFunction) uint64 {
	return uint64(64 + len(fn.Code)*4 + fn.Constants.Len()*8)
}

// --- token navigation ------------------------------------------------------

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) check(t token.Type) bool { return p.cur.Type == t }

func (p *Parser) checkPeek(t token.Type) bool { return p.peek.Type == t }

// match consumes and returns true if the current token has type t.
func (p *Parser) match(t token.Type) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// expect consumes the current token if it has type t, else records a
// diagnostic naming what was expected.
func (p *Parser) expect(t token.Type) token.Token {
	tok := p.cur
	if !p.check(t) {
		p.errorf("expected %s, got %s %q", t, p.cur.Type, p.cur.Literal)
		return tok
	}
	p.advance()
	return tok
}

// synchronize discards tokens until a statement boundary (';' or EOF) so a
// single error does not cascade into spurious follow-on diagnostics.
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.check(token.SEMICOLON) {
			p.advance()
			return
		}
		p.advance()
	}
}

// fb returns the function builder currently being emitted into.
func (p *Parser) fb() *FunctionBuilder { return p.fbStack[len(p.fbStack)-1] }

func (p *Parser) curLine() int32 { return int32(p.cur.Pos.Line) }

// inClass reports whether the parser is directly inside a class body.
func (p *Parser) inClass() bool { return len(p.classStack) > 0 }

func (p *Parser) currentClass() *object.Class {
	if !p.inClass() {
		return nil
	}
	return p.classStack[len(p.classStack)-1].class
}

// newString allocates content as a new heap String on every call and returns
// it boxed as a Value, tracking it with the heap if one was supplied. It does
// no deduplication itself; addStringConstant shares one String per distinct
// content only within a single function's constant pool.
func (p *Parser) newString(content string) value.Value {
	s := object.NewString(content)
	if p.heap != nil {
		p.heap.Track(s, uint64(stringByteCost+len(content)))
	}
	return s.AsValue()
}

// finishFunction copies a builder's accumulated state into a ScriptFunction,
// with the given arity. Once every constant is copied into fn's own
// constant pool, it is reachable by tracing fn itself, so the temporary
// roots addConstant pushed on b's behalf are released here.
func (p *Parser) finishFunction(b *FunctionBuilder, arity int) *object.ScriptFunction {
	fn := object.NewScriptFunction(b.name, p.module)
	fn.Arity = arity
	fn.Code = b.code
	fn.Lines = b.lines
	fn.NeededStackSpace = b.highWater
	for _, c := range b.constants {
		fn.Constants.Push(c)
	}
	for i := 0; i < b.tempRootPushes; i++ {
		b.heap.PopTempRoot()
	}
	return fn
}

// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package lexer implements a single-pass, no-backtracking lexer: it produces
// one token at a time on demand and never builds an intermediate token list
// of its own (Tokenize, used by tests and the CLI's "tokens" subcommand, is
// just repeated calls to NextToken). It does allocate: New copies the source
// into a byte slice, and each token's literal is built as a new string.
package lexer

import (
	"github.com/probescript/probescript/internal/token"
)

// Lexer holds the state for a single-pass tokenization run over a fixed
// source range. Token literal fields are copies of input bytes, not views
// sharing input's memory.
type Lexer struct {
	filename string
	input    []byte

	// pos is the index into input of the next byte to be loaded into ch.
	// After advance(), ch == input[pos-1] and pos points one past it.
	pos  int
	line int // 1-based current line number
	col  int // 1-based current column number

	ch byte // current character; 0 when past end
}

// New creates a new Lexer for the given filename and input string.
func New(filename, input string) *Lexer {
	l := &Lexer{
		filename: filename,
		input:    []byte(input),
		line:     1,
		col:      0,
	}
	l.advance() // prime l.ch with the first byte
	return l
}

// advance moves to the next byte in the input, updating line/column tracking.
// When the end of input is reached, ch is set to 0.
func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}
	l.ch = l.input[l.pos]
	l.pos++
}

// peek returns the byte after the current character without consuming it.
// Returns 0 if at or past end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// currentPos returns a token.Position capturing the lexer's state right now.
// Call this before consuming the first character of a token.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		File:   l.filename,
		Line:   l.line,
		Column: l.col,
		Offset: l.pos - 1,
	}
}

func makeToken(typ token.Type, literal string, pos token.Position) token.Token {
	return token.Token{Type: typ, Literal: literal, Pos: pos}
}

// skipWhitespace consumes space, tab, carriage return, and newline characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.advance()
	}
}

// NextToken scans and returns the next token from the input, skipping
// whitespace and comments first. After EOF is reached, subsequent calls
// continue returning EOF tokens.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespace()

		pos := l.currentPos()
		ch := l.ch

		if ch == 0 {
			return makeToken(token.EOF, "", pos)
		}

		// Comments are skipped rather than returned, except that an
		// unterminated block comment is reported as an error token.
		if ch == '/' && l.peek() == '/' {
			l.advance()
			l.advance()
			l.readLineCommentBody()
			continue
		}
		if ch == '/' && l.peek() == '*' {
			l.advance()
			_, ok := l.readBlockCommentBody()
			if !ok {
				return makeToken(token.ILLEGAL, "unterminated block comment", pos)
			}
			continue
		}

		l.advance() // consume ch; from here on, l.ch is the character AFTER ch

		switch {
		case isIdentStart(ch):
			lit := l.readIdentFromFirst(ch)
			typ := token.LookupIdent(lit)
			return makeToken(typ, lit, pos)

		case isDigit(ch) || (ch == '.' && isDigit(l.ch)):
			typ, lit := l.readNumberFromFirst(ch)
			return makeToken(typ, lit, pos)

		case ch == '"':
			lit, ok := l.readStringBody()
			if !ok {
				return makeToken(token.ILLEGAL, lit, pos)
			}
			return makeToken(token.STRING, lit, pos)

		case ch == '+':
			if l.ch == '=' {
				l.advance()
				return makeToken(token.PLUSEQ, "+=", pos)
			}
			return makeToken(token.PLUS, "+", pos)

		case ch == '-':
			if l.ch == '=' {
				l.advance()
				return makeToken(token.MINUSEQ, "-=", pos)
			}
			return makeToken(token.MINUS, "-", pos)

		case ch == '*':
			return makeToken(token.STAR, "*", pos)

		case ch == '/':
			return makeToken(token.SLASH, "/", pos)

		case ch == '!':
			if l.ch == '=' {
				l.advance()
				return makeToken(token.NEQ, "!=", pos)
			}
			return makeToken(token.BANG, "!", pos)

		case ch == '=':
			if l.ch == '=' {
				l.advance()
				return makeToken(token.EQ, "==", pos)
			}
			return makeToken(token.ASSIGN, "=", pos)

		case ch == '<':
			if l.ch == '=' {
				l.advance()
				return makeToken(token.LTE, "<=", pos)
			}
			return makeToken(token.LT, "<", pos)

		case ch == '>':
			if l.ch == '=' {
				l.advance()
				return makeToken(token.GTE, ">=", pos)
			}
			return makeToken(token.GT, ">", pos)

		case ch == '&':
			if l.ch == '&' {
				l.advance()
				return makeToken(token.AND, "&&", pos)
			}
			return makeToken(token.ILLEGAL, "&", pos)

		case ch == '|':
			if l.ch == '|' {
				l.advance()
				return makeToken(token.OR, "||", pos)
			}
			return makeToken(token.ILLEGAL, "|", pos)

		case ch == '.':
			return makeToken(token.DOT, ".", pos)
		case ch == ':':
			return makeToken(token.COLON, ":", pos)
		case ch == '#':
			return makeToken(token.HASH, "#", pos)
		case ch == '@':
			return makeToken(token.AT, "@", pos)
		case ch == '(':
			return makeToken(token.LPAREN, "(", pos)
		case ch == ')':
			return makeToken(token.RPAREN, ")", pos)
		case ch == '[':
			return makeToken(token.LBRACKET, "[", pos)
		case ch == ']':
			return makeToken(token.RBRACKET, "]", pos)
		case ch == '{':
			return makeToken(token.LBRACE, "{", pos)
		case ch == '}':
			return makeToken(token.RBRACE, "}", pos)
		case ch == ',':
			return makeToken(token.COMMA, ",", pos)
		case ch == ';':
			return makeToken(token.SEMICOLON, ";", pos)
		}

		return makeToken(token.ILLEGAL, string([]byte{ch}), pos)
	}
}

// Tokenize returns all tokens (including the final EOF) produced by repeated
// calls to NextToken. Used by tests and the CLI's "tokens" subcommand; the
// lexer itself never accumulates a token list.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

// ---------------------------------------------------------------------------
// Internal readers — each assumes the first character has already been
// consumed by the advance() call inside NextToken.
// ---------------------------------------------------------------------------

func (l *Lexer) readIdentFromFirst(first byte) string {
	buf := make([]byte, 1, 16)
	buf[0] = first
	for isIdentContinue(l.ch) {
		buf = append(buf, l.ch)
		l.advance()
	}
	return string(buf)
}

// readNumberFromFirst parses an integer or float literal given the
// already-consumed first character `first`, which is either a digit or a
// '.' followed by a digit (the leading-dot form, e.g. ".5").
//
//   - digits                       → INT
//   - digits "." digits            → FLOAT
//   - "." digits                   → FLOAT  (leading-dot form)
//   - any form above + f/F         → FLOAT  (trailing-f suffix consumed, not kept)
func (l *Lexer) readNumberFromFirst(first byte) (token.Type, string) {
	buf := make([]byte, 0, 24)
	buf = append(buf, first)
	isFloat := first == '.'

	if first != '.' {
		for isDigit(l.ch) {
			buf = append(buf, l.ch)
			l.advance()
		}
		if l.ch == '.' && isDigit(l.peek()) {
			isFloat = true
			buf = append(buf, '.')
			l.advance()
		}
		if !isFloat && (l.ch == 'f' || l.ch == 'F') {
			isFloat = true // digits + f/F, e.g. "3f"; the suffix is consumed below
		}
	}

	if isFloat {
		for isDigit(l.ch) {
			buf = append(buf, l.ch)
			l.advance()
		}
		if l.ch == 'f' || l.ch == 'F' {
			l.advance() // trailing float suffix, not part of the numeric literal
		}
		return token.FLOAT, string(buf)
	}

	return token.INT, string(buf)
}

// readStringBody reads the content of a string literal after the opening '"'
// has been consumed. It returns the full literal — including both quote
// characters — and a bool that is false when the string was unterminated.
//
// Escape sequences are recognized (so a backslash-escaped quote does not
// terminate the string early) but not decoded here; decoding happens when
// the string's runtime value is actually constructed from this literal.
func (l *Lexer) readStringBody() (string, bool) {
	buf := make([]byte, 1, 32)
	buf[0] = '"'
	for {
		switch l.ch {
		case 0, '\n':
			return string(buf), false
		case '\\':
			buf = append(buf, '\\')
			l.advance()
			if l.ch == 0 {
				return string(buf), false
			}
			buf = append(buf, l.ch)
			l.advance()
		case '"':
			buf = append(buf, '"')
			l.advance()
			return string(buf), true
		default:
			buf = append(buf, l.ch)
			l.advance()
		}
	}
}

func (l *Lexer) readLineCommentBody() string {
	var buf []byte
	for l.ch != '\n' && l.ch != 0 {
		buf = append(buf, l.ch)
		l.advance()
	}
	return string(buf)
}

// readBlockCommentBody reads a /* ... */ block comment, non-nesting. The
// opening '/' has already been consumed; l.ch is currently '*'.
func (l *Lexer) readBlockCommentBody() (string, bool) {
	buf := []byte{'/', '*'}
	l.advance() // consume the '*' that opened the block comment
	for {
		switch {
		case l.ch == 0:
			return string(buf), false
		case l.ch == '*' && l.peek() == '/':
			buf = append(buf, '*', '/')
			l.advance()
			l.advance()
			return string(buf), true
		default:
			buf = append(buf, l.ch)
			l.advance()
		}
	}
}

// ---------------------------------------------------------------------------
// Character classification helpers
// ---------------------------------------------------------------------------

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

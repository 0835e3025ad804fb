// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lexer_test

import (
	"testing"

	"github.com/probescript/probescript/internal/lexer"
	"github.com/probescript/probescript/internal/token"
)

// tokenCase is a single expected token in a table-driven test.
type tokenCase struct {
	typ     token.Type
	literal string
}

// runTokenize lexes input and checks that it produces exactly the expected
// sequence (plus a final EOF). Comments are skipped by the lexer and never
// appear in the expected sequence.
func runTokenize(t *testing.T, name, input string, want []tokenCase) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		t.Helper()
		l := lexer.New("test.ps", input)
		toks := l.Tokenize()

		if len(toks) == 0 {
			t.Fatal("Tokenize returned empty slice")
		}
		last := toks[len(toks)-1]
		if last.Type != token.EOF {
			t.Errorf("last token is %s, want EOF", last.Type)
		}
		body := toks[:len(toks)-1]

		if len(body) != len(want) {
			t.Errorf("got %d tokens (excl. EOF), want %d", len(body), len(want))
			for i, tok := range body {
				t.Logf("  [%d] %s %q", i, tok.Type, tok.Literal)
			}
			return
		}
		for i, w := range want {
			got := body[i]
			if got.Type != w.typ {
				t.Errorf("token[%d]: type = %s, want %s (literal %q)", i, got.Type, w.typ, got.Literal)
			}
			if got.Literal != w.literal {
				t.Errorf("token[%d]: literal = %q, want %q", i, got.Literal, w.literal)
			}
		}
	})
}

func TestSingleCharTokens(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantTyp token.Type
		wantLit string
	}{
		{"plus", "+", token.PLUS, "+"},
		{"minus", "-", token.MINUS, "-"},
		{"star", "*", token.STAR, "*"},
		{"slash", "/", token.SLASH, "/"},
		{"bang", "!", token.BANG, "!"},
		{"dot", ".", token.DOT, "."},
		{"lt", "<", token.LT, "<"},
		{"gt", ">", token.GT, ">"},
		{"assign", "=", token.ASSIGN, "="},
		{"colon", ":", token.COLON, ":"},
		{"hash", "#", token.HASH, "#"},
		{"at", "@", token.AT, "@"},
		{"lparen", "(", token.LPAREN, "("},
		{"rparen", ")", token.RPAREN, ")"},
		{"lbracket", "[", token.LBRACKET, "["},
		{"rbracket", "]", token.RBRACKET, "]"},
		{"lbrace", "{", token.LBRACE, "{"},
		{"rbrace", "}", token.RBRACE, "}"},
		{"comma", ",", token.COMMA, ","},
		{"semicolon", ";", token.SEMICOLON, ";"},
	}
	for _, c := range cases {
		runTokenize(t, c.name, c.input, []tokenCase{{c.wantTyp, c.wantLit}})
	}
}

func TestMultiCharOperators(t *testing.T) {
	runTokenize(t, "EQ", "==", []tokenCase{{token.EQ, "=="}})
	runTokenize(t, "NEQ", "!=", []tokenCase{{token.NEQ, "!="}})
	runTokenize(t, "LTE", "<=", []tokenCase{{token.LTE, "<="}})
	runTokenize(t, "GTE", ">=", []tokenCase{{token.GTE, ">="}})
	runTokenize(t, "AND", "&&", []tokenCase{{token.AND, "&&"}})
	runTokenize(t, "OR", "||", []tokenCase{{token.OR, "||"}})
}

func TestCompoundAssignment(t *testing.T) {
	runTokenize(t, "PLUSEQ", "+=", []tokenCase{{token.PLUSEQ, "+="}})
	runTokenize(t, "MINUSEQ", "-=", []tokenCase{{token.MINUSEQ, "-="}})
}

func TestIntLiterals(t *testing.T) {
	runTokenize(t, "zero", "0", []tokenCase{{token.INT, "0"}})
	runTokenize(t, "single", "7", []tokenCase{{token.INT, "7"}})
	runTokenize(t, "multi", "42", []tokenCase{{token.INT, "42"}})
	runTokenize(t, "large", "1000000", []tokenCase{{token.INT, "1000000"}})
}

func TestFloatLiterals(t *testing.T) {
	runTokenize(t, "basic", "3.14", []tokenCase{{token.FLOAT, "3.14"}})
	runTokenize(t, "leading_zero", "0.5", []tokenCase{{token.FLOAT, "0.5"}})
	runTokenize(t, "leading_dot", ".5", []tokenCase{{token.FLOAT, ".5"}})
	runTokenize(t, "trailing_f", "3f", []tokenCase{{token.FLOAT, "3"}})
	runTokenize(t, "trailing_F_decimal", "3.0F", []tokenCase{{token.FLOAT, "3.0"}})
}

func TestStringLiterals(t *testing.T) {
	runTokenize(t, "empty", `""`, []tokenCase{{token.STRING, `""`}})
	runTokenize(t, "hello", `"hello"`, []tokenCase{{token.STRING, `"hello"`}})
	runTokenize(t, "escape_n", `"line\nfeed"`, []tokenCase{{token.STRING, `"line\nfeed"`}})
	runTokenize(t, "escape_quote", `"say\"hi\""`, []tokenCase{{token.STRING, `"say\"hi\""`}})
	runTokenize(t, "spaces", `"hello world"`, []tokenCase{{token.STRING, `"hello world"`}})
}

func TestIdentifiers(t *testing.T) {
	runTokenize(t, "simple", "foo", []tokenCase{{token.IDENT, "foo"}})
	runTokenize(t, "underscore_prefix", "_bar", []tokenCase{{token.IDENT, "_bar"}})
	runTokenize(t, "underscore_only", "_", []tokenCase{{token.IDENT, "_"}})
	runTokenize(t, "mixed_case", "MyVar", []tokenCase{{token.IDENT, "MyVar"}})
	runTokenize(t, "with_digits", "x1y2z3", []tokenCase{{token.IDENT, "x1y2z3"}})
}

func TestKeywords(t *testing.T) {
	cases := []struct {
		kw  string
		typ token.Type
	}{
		{"true", token.TRUE},
		{"false", token.FALSE},
		{"nil", token.NIL},
		{"var", token.VAR},
		{"func", token.FUNC},
		{"class", token.CLASS},
		{"if", token.IF},
		{"else", token.ELSE},
		{"for", token.FOR},
		{"while", token.WHILE},
		{"return", token.RETURN},
		{"break", token.BREAK},
		{"new", token.NEW},
		{"static", token.STATIC},
		{"as", token.AS},
		{"super", token.SUPER},
		{"import", token.IMPORT},
	}
	for _, c := range cases {
		runTokenize(t, c.kw, c.kw, []tokenCase{{c.typ, c.kw}})
	}
}

func TestKeywordPrefixIsIdent(t *testing.T) {
	runTokenize(t, "var_prefix", "variant", []tokenCase{{token.IDENT, "variant"}})
	runTokenize(t, "if_prefix", "iffy", []tokenCase{{token.IDENT, "iffy"}})
	runTokenize(t, "new_prefix", "newline", []tokenCase{{token.IDENT, "newline"}})
}

// Comments are skipped entirely by the lexer, never emitted as tokens.
func TestLineComment(t *testing.T) {
	runTokenize(t, "empty_line_comment", "//", nil)
	runTokenize(t, "line_comment", "// hello world", nil)
	runTokenize(t, "line_comment_then_code", "// comment\nfoo", []tokenCase{
		{token.IDENT, "foo"},
	})
}

func TestBlockComment(t *testing.T) {
	runTokenize(t, "empty_block", "/**/", nil)
	runTokenize(t, "block_comment", "/* hello */", nil)
	runTokenize(t, "block_multiline", "/* line1\nline2 */", nil)
	runTokenize(t, "block_then_code", "/* c */x", []tokenCase{
		{token.IDENT, "x"},
	})
}

func TestUnterminatedBlockComment(t *testing.T) {
	t.Run("unterminated_block", func(t *testing.T) {
		l := lexer.New("test.ps", "/* oops")
		tok := l.NextToken()
		if tok.Type != token.ILLEGAL {
			t.Errorf("expected ILLEGAL for unterminated block comment, got %s", tok.Type)
		}
	})
}

func TestUnterminatedString(t *testing.T) {
	t.Run("unterminated_string", func(t *testing.T) {
		l := lexer.New("test.ps", `"no closing`)
		tok := l.NextToken()
		if tok.Type != token.ILLEGAL {
			t.Errorf("expected ILLEGAL for unterminated string, got %s", tok.Type)
		}
	})
}

func TestWhitespaceSkipping(t *testing.T) {
	runTokenize(t, "spaces", "   foo   ", []tokenCase{{token.IDENT, "foo"}})
	runTokenize(t, "tabs", "\t\tfoo\t\t", []tokenCase{{token.IDENT, "foo"}})
	runTokenize(t, "newlines", "\n\nfoo\n\n", []tokenCase{{token.IDENT, "foo"}})
	runTokenize(t, "mixed_ws", " \t\n foo \n\t", []tokenCase{{token.IDENT, "foo"}})
}

func TestFunctionDeclaration(t *testing.T) {
	input := `func add(x, y) { return x + y; }`
	runTokenize(t, "func_decl", input, []tokenCase{
		{token.FUNC, "func"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.IDENT, "y"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.IDENT, "y"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
	})
}

func TestVarStatement(t *testing.T) {
	input := `var x = 42;`
	runTokenize(t, "var_stmt", input, []tokenCase{
		{token.VAR, "var"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "42"},
		{token.SEMICOLON, ";"},
	})
}

func TestClassDeclaration(t *testing.T) {
	input := `class B : A { var x; func v(self) { return super.v(self); } }`
	runTokenize(t, "class_decl", input, []tokenCase{
		{token.CLASS, "class"},
		{token.IDENT, "B"},
		{token.COLON, ":"},
		{token.IDENT, "A"},
		{token.LBRACE, "{"},
		{token.VAR, "var"},
		{token.IDENT, "x"},
		{token.SEMICOLON, ";"},
		{token.FUNC, "func"},
		{token.IDENT, "v"},
		{token.LPAREN, "("},
		{token.IDENT, "self"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.SUPER, "super"},
		{token.DOT, "."},
		{token.IDENT, "v"},
		{token.LPAREN, "("},
		{token.IDENT, "self"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.RBRACE, "}"},
	})
}

func TestImportWithAlias(t *testing.T) {
	input := `import "M" for e as f;`
	runTokenize(t, "import_alias", input, []tokenCase{
		{token.IMPORT, "import"},
		{token.STRING, `"M"`},
		{token.FOR, "for"},
		{token.IDENT, "e"},
		{token.AS, "as"},
		{token.IDENT, "f"},
		{token.SEMICOLON, ";"},
	})
}

func TestFieldAccess(t *testing.T) {
	input := `obj.field`
	runTokenize(t, "field_access", input, []tokenCase{
		{token.IDENT, "obj"},
		{token.DOT, "."},
		{token.IDENT, "field"},
	})
}

func TestPositionTracking(t *testing.T) {
	t.Run("line_and_column", func(t *testing.T) {
		l := lexer.New("src.ps", "foo\nbar")
		toks := l.Tokenize()
		if len(toks) < 2 {
			t.Fatal("expected at least 2 tokens")
		}
		foo := toks[0]
		bar := toks[1]
		if foo.Pos.Line != 1 {
			t.Errorf("foo: line = %d, want 1", foo.Pos.Line)
		}
		if foo.Pos.Column != 1 {
			t.Errorf("foo: col = %d, want 1", foo.Pos.Column)
		}
		if bar.Pos.Line != 2 {
			t.Errorf("bar: line = %d, want 2", bar.Pos.Line)
		}
	})

	t.Run("filename_propagated", func(t *testing.T) {
		l := lexer.New("myfile.ps", "x")
		tok := l.NextToken()
		if tok.Pos.File != "myfile.ps" {
			t.Errorf("file = %q, want %q", tok.Pos.File, "myfile.ps")
		}
	})
}

func TestEmptyInput(t *testing.T) {
	t.Run("empty_input", func(t *testing.T) {
		l := lexer.New("test.ps", "")
		tok := l.NextToken()
		if tok.Type != token.EOF {
			t.Errorf("expected EOF for empty input, got %s", tok.Type)
		}
	})
}

func TestWhitespaceOnlyInput(t *testing.T) {
	t.Run("whitespace_only", func(t *testing.T) {
		l := lexer.New("test.ps", "   \t\n  ")
		tok := l.NextToken()
		if tok.Type != token.EOF {
			t.Errorf("expected EOF for whitespace-only input, got %s", tok.Type)
		}
	})
}

func TestIllegalCharacter(t *testing.T) {
	t.Run("illegal_char", func(t *testing.T) {
		l := lexer.New("test.ps", "`")
		tok := l.NextToken()
		if tok.Type != token.ILLEGAL {
			t.Errorf("expected ILLEGAL for backtick, got %s", tok.Type)
		}
		if tok.Literal != "`" {
			t.Errorf("expected literal '`', got %q", tok.Literal)
		}
	})
}

func TestMultipleCallsAfterEOF(t *testing.T) {
	t.Run("eof_idempotent", func(t *testing.T) {
		l := lexer.New("test.ps", "")
		for i := 0; i < 5; i++ {
			tok := l.NextToken()
			if tok.Type != token.EOF {
				t.Errorf("call %d: expected EOF, got %s", i, tok.Type)
			}
		}
	})
}

func TestIntDotIsFloat(t *testing.T) {
	// "1.5" is one FLOAT token, not INT DOT INT.
	runTokenize(t, "int_dot_digit", "1.5", []tokenCase{
		{token.FLOAT, "1.5"},
	})
}

func TestIntDotIdentIsDotAccess(t *testing.T) {
	// "1.foo" - the dot does not start a float because 'f' (ident start)
	// follows, not a digit; this is INT DOT IDENT.
	runTokenize(t, "int_dot_ident", "1.foo", []tokenCase{
		{token.INT, "1"},
		{token.DOT, "."},
		{token.IDENT, "foo"},
	})
}

func TestZeroAlone(t *testing.T) {
	runTokenize(t, "zero_alone", "0", []tokenCase{{token.INT, "0"}})
}

func TestNegativeNumberIsMinusThenInt(t *testing.T) {
	// The lexer does not produce negative literals; '-' is always MINUS.
	runTokenize(t, "negative", "-42", []tokenCase{
		{token.MINUS, "-"},
		{token.INT, "42"},
	})
}

func TestComparisonChain(t *testing.T) {
	input := `a == b != c < d > e <= f >= g`
	runTokenize(t, "comparison_chain", input, []tokenCase{
		{token.IDENT, "a"},
		{token.EQ, "=="},
		{token.IDENT, "b"},
		{token.NEQ, "!="},
		{token.IDENT, "c"},
		{token.LT, "<"},
		{token.IDENT, "d"},
		{token.GT, ">"},
		{token.IDENT, "e"},
		{token.LTE, "<="},
		{token.IDENT, "f"},
		{token.GTE, ">="},
		{token.IDENT, "g"},
	})
}

func TestLogicalOperators(t *testing.T) {
	input := `if (a && b || c) {}`
	runTokenize(t, "logical_ops", input, []tokenCase{
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.AND, "&&"},
		{token.IDENT, "b"},
		{token.OR, "||"},
		{token.IDENT, "c"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
	})
}

func TestCommentAmidCode(t *testing.T) {
	input := "x // ignore this\ny"
	runTokenize(t, "comment_amid_code", input, []tokenCase{
		{token.IDENT, "x"},
		{token.IDENT, "y"},
	})
}

func TestComplexProgram(t *testing.T) {
	input := `
func fib(n) {
    if (n < 2) return n;
    return fib(n-1) + fib(n-2);
}
`
	runTokenize(t, "complex_program", input, []tokenCase{
		{token.FUNC, "func"},
		{token.IDENT, "fib"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.LT, "<"},
		{token.INT, "2"},
		{token.RPAREN, ")"},
		{token.RETURN, "return"},
		{token.IDENT, "n"},
		{token.SEMICOLON, ";"},
		{token.RETURN, "return"},
		{token.IDENT, "fib"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.MINUS, "-"},
		{token.INT, "1"},
		{token.RPAREN, ")"},
		{token.PLUS, "+"},
		{token.IDENT, "fib"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.MINUS, "-"},
		{token.INT, "2"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
	})
}

// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler

import "fmt"

// Diagnostic is one compile error, carrying enough to format a host-facing
// message with file and line.
type Diagnostic struct {
	File    string
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Message)
	}
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// ErrorReporter is the host error callback a compile runs through; nil
// disables the callback without disabling diagnostic collection (Compile's
// returned []Diagnostic always carries every error regardless).
type ErrorReporter interface {
	ReportError(Diagnostic)
}

// errorf records a diagnostic at the parser's current line and forwards it
// to the host reporter, if any, then begins error recovery by returning
// nothing — callers invoke synchronize() themselves at the statement
// boundary where recovery is meaningful.
func (p *Parser) errorf(format string, args ...interface{}) {
	d := Diagnostic{File: p.fileName, Line: p.cur.Pos.Line, Message: fmt.Sprintf(format, args...)}
	p.diags = append(p.diags, d)
	p.hadError = true
	if p.reporter != nil {
		p.reporter.ReportError(d)
	}
}

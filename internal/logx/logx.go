// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package logx is a small, TTY-aware structured logger for VM diagnostics and
// the CLI: compile errors in yellow, runtime errors in red, GC cycle notices
// in cyan when verbose logging is enabled. Output runs through go-colorable
// so color codes are stripped or translated correctly on a Windows console.
package logx

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/google/uuid"
	colorable "github.com/mattn/go-colorable"
)

// Logger writes timestamped, colorized diagnostic lines tagged with the id
// of the VM instance that produced them.
type Logger struct {
	out        io.Writer
	instanceID string
	verbose    bool
}

// New creates a Logger stamped with a fresh instance id, writing to stderr
// through go-colorable.
func New(verbose bool) *Logger {
	return &Logger{
		out:        colorable.NewColorableStderr(),
		instanceID: uuid.New().String(),
		verbose:    verbose,
	}
}

// InstanceID returns the id this logger stamps every line with, so a host
// running multiple VMs can correlate a log line back to the VM that emitted
// it.
func (l *Logger) InstanceID() string { return l.instanceID }

func (l *Logger) line(c *color.Color, level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	prefix := fmt.Sprintf("%s [%s] %s ", time.Now().Format("15:04:05.000"), l.instanceID[:8], level)
	fmt.Fprintln(l.out, prefix+c.Sprint(msg))
}

// Compile logs a compile-time diagnostic.
func (l *Logger) Compile(fileName string, line int, message string) {
	l.line(color.New(color.FgYellow), "compile", "%s:%d: %s", fileName, line, message)
}

// Runtime logs a runtime error.
func (l *Logger) Runtime(kind string, line int, message string) {
	l.line(color.New(color.FgRed), "runtime", "%s at line %d: %s", kind, line, message)
}

// GC logs a collection-cycle notice; a no-op unless verbose logging is on.
func (l *Logger) GC(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.line(color.New(color.FgCyan), "gc", format, args...)
}

// Dump verbose-logs a structural dump of v via spew.Sdump — a node-by-node
// view of a GC cycle's result or similar internal state, rather than a
// type's default %v formatting. A no-op unless verbose logging is on, like
// GC.
func (l *Logger) Dump(label string, v interface{}) {
	if !l.verbose {
		return
	}
	l.line(color.New(color.FgCyan), "gc", "%s:\n%s", label, spew.Sdump(v))
}

// CallSite captures the immediate caller's frame for an internal (host-side)
// diagnostic, formatted as "file.go:123 funcName" — not to be confused with
// a script-level stack trace, which is a VM feature of its own.
func CallSite(skip int) string {
	call := stack.Caller(skip + 1)
	return fmt.Sprintf("%+v %n", call, call)
}

// Default is a process-wide logger used by code that doesn't carry its own
// Logger reference (e.g. a package-level fallback before a VM exists).
var Default = New(os.Getenv("PROBESCRIPT_VERBOSE") != "")

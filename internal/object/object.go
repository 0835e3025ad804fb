// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package object defines the heap object graph: every kind of value that
// lives behind a pointer Value rather than being boxed inline, and the
// intrusive all-objects list the garbage collector sweeps.
package object

import (
	"unsafe"

	"github.com/probescript/probescript/internal/value"
)

// Kind discriminates the eight heap object shapes.
type Kind uint8

const (
	KindString Kind = iota
	KindModule
	KindClass
	KindInstance
	KindScriptFunction
	KindNativeFunction
	KindReference
	KindWeakReference
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindModule:
		return "module"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	case KindScriptFunction:
		return "script function"
	case KindNativeFunction:
		return "native function"
	case KindReference:
		return "reference"
	case KindWeakReference:
		return "weak reference"
	default:
		return "unknown"
	}
}

// Header is embedded at the front of every heap object. Next links the
// all-objects list the allocator appends new objects to and the sweep phase
// walks; Mark is the collector's reachability bit, reset to false (
// unreachable) at the start of every cycle and set true as the mark phase
// traces outward from the root set. Size is the logical byte cost the
// allocator charged against the heap's running total when the object was
// tracked, recorded here so a sweep can hand it back.
type Header struct {
	Kind Kind
	Mark bool
	Size uint64
	Next Object
}

// Object is implemented by every heap object kind; it is the interface the
// allocator's all-objects list and the collector's mark/sweep passes operate
// through.
type Object interface {
	Header() *Header
}

// FromPointer recovers the typed Object behind a raw pointer extracted from
// a NaN-boxed pointer Value. It relies on every concrete object type
// embedding Header as its first field, so a pointer to the object and a
// pointer to its header share an address — the one place in this package
// pointer arithmetic substitutes for an interface type switch, because the
// Value layer below erases the Go type entirely.
func FromPointer(p unsafe.Pointer) Object {
	if p == nil {
		return nil
	}
	switch (*Header)(p).Kind {
	case KindString:
		return (*String)(p)
	case KindModule:
		return (*Module)(p)
	case KindClass:
		return (*Class)(p)
	case KindInstance:
		return (*Instance)(p)
	case KindScriptFunction:
		return (*ScriptFunction)(p)
	case KindNativeFunction:
		return (*NativeFunction)(p)
	case KindReference:
		return (*Reference)(p)
	case KindWeakReference:
		return (*WeakReference)(p)
	default:
		return nil
	}
}

// FromValue is the Value-typed convenience form of FromPointer: v must
// satisfy IsPointer.
func FromValue(v value.Value) Object {
	return FromPointer(v.Pointer())
}

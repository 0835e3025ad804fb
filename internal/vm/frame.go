// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "github.com/probescript/probescript/internal/object"

// frame is one activation record on the VM's call stack. base is the
// absolute index into vm.stack where this call's register window starts —
// register N inside the function is vm.stack[base+N]. callerResultAbs is
// where RETURN's value lands: an absolute stack slot in the enclosing
// frame's window, or resultSentinel for the entry call driving this run,
// whose result is instead stashed on the VM directly.
type frame struct {
	fn     *object.ScriptFunction
	native *object.NativeFunction // set instead of fn for a native call's bookkeeping frame
	ip     int
	base   int

	callerResultAbs int
}

// resultSentinel marks a frame whose return value is the entry point's own
// result, rather than a slot inside some caller's register window.
const resultSentinel = -1

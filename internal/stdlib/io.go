// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package stdlib provides the one mandated standard module, "io", whose sole
// export is print — one file per standard module, matching the reference
// engine's own stdlib layout.
package stdlib

import (
	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/value"
)

// printer is anything that can stringify and emit a call's arguments through
// the host print callback; *vm.VM satisfies this without stdlib importing
// package vm directly, avoiding an import cycle (internal/hostapi, which
// constructs both, sits above both packages).
type printer interface {
	Print(args []value.Value)
}

// NewIO builds the "io" module: a single top-level binding, print, that
// joins its arguments' stringified forms with a space and writes them
// through p. A script pulls it in with `import "io" for print;` (or a bare
// `import "io";`, which copies every one of io's top-level bindings flat into
// the importing module — there is no dotted `io.print` access; an import
// binds names directly, per the import statement's own semantics). symtab
// must be the same table the VM compiles scripts against, so the id this
// module stores print under matches what an importing script resolves
// "print" to.
func NewIO(symtab *symbol.Table, p printer) *object.Module {
	mod := object.NewModule("io")
	fn := object.NewNativeFunction("print", object.Variadic, func(args []value.Value) (value.Value, error) {
		p.Print(args)
		return value.Null, nil
	})
	mod.Store(symtab.Intern("print"), fn.AsValue())
	return mod
}

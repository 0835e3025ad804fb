// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package compiler

import "github.com/probescript/probescript/internal/object"

// ModuleLoader resolves and fully executes an imported module on behalf of
// the parser: Load must return a *object.Module whose top-level body has
// already run to completion (or the already-installed module, for a
// self-recursive or cyclic import), per §4.G. The concrete implementation
// lives above this package (internal/hostapi), since running a module's
// init function is the interpreter's job and this package never executes
// bytecode itself — only emits it.
//
// A nil ModuleLoader disables import support entirely: the parser reports a
// compile error on any `import` statement it sees.
type ModuleLoader interface {
	Load(fromModule, name string) (*object.Module, error)
}

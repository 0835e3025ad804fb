// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package hostapi

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/vm"
)

// resolverCacheSize bounds how many distinct (from, name) import resolutions
// a Host keeps the raw source for, avoiding repeated round-trips through the
// host's resolver callback for a name imported from many places.
const resolverCacheSize = 256

// loader implements compiler.ModuleLoader on behalf of a Host: an import
// already satisfied by a loaded (or native, host-registered) module resolves
// immediately; otherwise the host's resolver callback is consulted, its
// result cached by (fromModule, name), and the source compiled and executed
// as a new module of the VM this loader was built for.
type loader struct {
	vm       *vm.VM
	resolver vm.ModuleResolverFn
	cache    *lru.Cache
}

func newLoader(v *vm.VM, resolver vm.ModuleResolverFn) *loader {
	cache, _ := lru.New(resolverCacheSize)
	return &loader{vm: v, resolver: resolver, cache: cache}
}

type resolvedSource struct {
	fileName string
	source   []byte
}

func (l *loader) Load(fromModule, name string) (*object.Module, error) {
	if mod, ok := l.vm.Module(name); ok {
		return mod, nil
	}
	if l.resolver == nil {
		return nil, fmt.Errorf("import %q: host does not support module imports", name)
	}

	key := fromModule + "\x00" + name
	var rs resolvedSource
	if cached, ok := l.cache.Get(key); ok {
		rs = cached.(resolvedSource)
	} else {
		fileName, source, err := l.resolver(fromModule, name)
		if err != nil {
			return nil, err
		}
		rs = resolvedSource{fileName: fileName, source: append([]byte(nil), source...)}
		l.cache.Add(key, rs)
	}

	mod, _, err := l.vm.Exec(name, rs.fileName, rs.source, l)
	return mod, err
}

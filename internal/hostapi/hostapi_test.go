// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package hostapi_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/probescript/probescript/internal/config"
	"github.com/probescript/probescript/internal/hostapi"
	"github.com/probescript/probescript/internal/value"
)

func TestExecRunsAndBindsTopLevelVars(t *testing.T) {
	h := hostapi.New(config.Default(), nil)
	mod, diags, err := h.Exec("main", "main.ps", []byte(`var result = 1 + 2;`))
	require.NoError(t, err)
	require.Empty(t, diags)

	id, ok := h.Symbols().Lookup("result")
	require.True(t, ok)
	v, ok := mod.Lookup(id)
	require.True(t, ok)
	require.True(t, v.IsNumber())
	require.Equal(t, float64(3), v.Double())
}

func TestStdlibIOPrintIsCallableFromScript(t *testing.T) {
	h := hostapi.New(config.Default(), nil)
	_, diags, err := h.Exec("main", "main.ps", []byte(`
		import "io" for print;
		print("hello", 1, true);
	`))
	require.NoError(t, err)
	require.Empty(t, diags)
}

func TestModuleResolverIsConsultedForUnknownImports(t *testing.T) {
	resolver := func(from, name string) (string, []byte, error) {
		if name != "greet" {
			return "", nil, fmt.Errorf("no such module %q", name)
		}
		return "greet.ps", []byte(`var msg = "hi";`), nil
	}
	h := hostapi.New(config.Default(), resolver)

	mod, diags, err := h.Exec("main", "main.ps", []byte(`
		import "greet" for msg;
		var result = msg;
	`))
	require.NoError(t, err)
	require.Empty(t, diags)

	id, ok := h.Symbols().Lookup("result")
	require.True(t, ok)
	v, ok := mod.Lookup(id)
	require.True(t, ok)
	require.True(t, v.IsPointer())
}

func TestClassBindingAndNativeMethod(t *testing.T) {
	h := hostapi.New(config.Default(), nil)

	class := h.BindClass("Counter", nil, 0, nil)
	h.BindMethod(class, "ctor", 1, func(args []value.Value) (value.Value, error) {
		return args[0], nil
	})

	inst, err := h.NewInstance(class)
	require.NoError(t, err)
	require.True(t, inst.IsPointer())
}

func TestIndexedStackRoundTripsValues(t *testing.T) {
	h := hostapi.New(config.Default(), nil)
	s := h.NewStack()
	s.Resize(3)

	s.SetNumber(0, 42)
	s.SetString(1, "hi")
	s.SetBool(2, true)

	require.Equal(t, 3, s.Arity())
	require.True(t, s.IsNumber(0))
	require.Equal(t, float64(42), s.Number(0))
	require.True(t, s.IsString(1))
	require.Equal(t, "hi", s.String(1))
	require.True(t, s.Bool(2))

	s.Resize(1)
	require.Equal(t, 1, s.Arity())
}

func TestDuplicateModuleNameIsRejected(t *testing.T) {
	h := hostapi.New(config.Default(), nil)
	_, _, err := h.Exec("dup", "dup.ps", []byte(`var x = 1;`))
	require.NoError(t, err)

	_, _, err = h.Exec("dup", "dup.ps", []byte(`var x = 2;`))
	require.Error(t, err)
}


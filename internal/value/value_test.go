// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package value_test

import (
	"math"
	"testing"
	"unsafe"

	"github.com/probescript/probescript/internal/value"
)

// exactlyOne reports whether exactly one of the given bools is true.
func exactlyOne(bs ...bool) bool {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n == 1
}

func classificationVector(v value.Value) []bool {
	return []bool{v.IsNumber(), v.IsNull(), v.IsTrue(), v.IsFalse(), v.IsPointer()}
}

func TestExactlyOneClassification(t *testing.T) {
	var dummy int
	cases := map[string]value.Value{
		"zero":     value.Number(0),
		"negzero":  value.Number(math.Copysign(0, -1)),
		"one":      value.Number(1),
		"negative": value.Number(-42.5),
		"nan":      value.Number(math.NaN()),
		"inf":      value.Number(math.Inf(1)),
		"neginf":   value.Number(math.Inf(-1)),
		"null":     value.Null,
		"true":     value.True,
		"false":    value.False,
		"pointer":  value.Pointer(unsafe.Pointer(&dummy)),
	}
	for name, v := range cases {
		if !exactlyOne(classificationVector(v)...) {
			t.Errorf("%s: expected exactly one classification true, got %v", name, classificationVector(v))
		}
	}
}

func TestTruthiness(t *testing.T) {
	var dummy int
	truthy := []value.Value{
		value.Number(0),
		value.Number(math.Copysign(0, -1)),
		value.Number(math.NaN()),
		value.Number(1),
		value.Number(-1),
		value.True,
		value.Pointer(unsafe.Pointer(&dummy)),
	}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("expected %v to be truthy", v)
		}
	}
	falsy := []value.Value{value.Null, value.False}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("expected %v to be falsy", v)
		}
	}
}

func TestNumberRoundTrip(t *testing.T) {
	inputs := []float64{0, -0, 1, -1, 3.14159, 1e300, -1e-300, math.Inf(1), math.Inf(-1)}
	for _, d := range inputs {
		v := value.Number(d)
		if !v.IsNumber() {
			t.Fatalf("Number(%v).IsNumber() = false", d)
		}
		got := v.Double()
		if math.Signbit(d) != math.Signbit(got) || got != d {
			t.Errorf("Number(%v).Double() = %v", d, got)
		}
	}
}

func TestNaNEqualityIsFalse(t *testing.T) {
	a := value.Number(math.NaN())
	b := value.Number(math.NaN())
	if a.Equal(b) {
		t.Error("NaN should not equal NaN")
	}
}

func TestNegativeZeroEqualsPositiveZero(t *testing.T) {
	pos := value.Number(0)
	neg := value.Number(math.Copysign(0, -1))
	if !pos.Equal(neg) {
		t.Error("+0.0 should equal -0.0")
	}
}

func TestEqualitySymmetricAndIsNegation(t *testing.T) {
	var dummy, dummy2 int
	vs := []value.Value{
		value.Number(1), value.Number(2), value.Null, value.True, value.False,
		value.Pointer(unsafe.Pointer(&dummy)), value.Pointer(unsafe.Pointer(&dummy2)),
	}
	for _, a := range vs {
		for _, b := range vs {
			if a.Equal(b) != b.Equal(a) {
				t.Errorf("Equal not symmetric for %v, %v", a, b)
			}
		}
	}
}

func TestPointerRoundTrip(t *testing.T) {
	var dummy int = 7
	p := unsafe.Pointer(&dummy)
	v := value.Pointer(p)
	if !v.IsPointer() {
		t.Fatal("expected IsPointer")
	}
	got := v.Pointer()
	if got != p {
		t.Errorf("pointer round trip: got %p, want %p", got, p)
	}
}

func TestPointerNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic constructing Pointer(nil)")
		}
	}()
	value.Pointer(nil)
}

func TestSingletonsAreDistinct(t *testing.T) {
	if value.Null == value.True || value.Null == value.False || value.True == value.False {
		t.Error("singletons must be pairwise distinct")
	}
}

func TestBoolConstructor(t *testing.T) {
	if value.Bool(true) != value.True {
		t.Error("Bool(true) != True")
	}
	if value.Bool(false) != value.False {
		t.Error("Bool(false) != False")
	}
}

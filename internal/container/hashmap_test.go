// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package container_test

import (
	"testing"

	"github.com/probescript/probescript/internal/container"
)

func TestSetAndGet(t *testing.T) {
	m := container.NewSymbolMap[string]()
	m.Set(1, "one")
	m.Set(2, "two")
	if v, ok := m.Get(1); !ok || v != "one" {
		t.Errorf("Get(1) = %q, %v", v, ok)
	}
	if v, ok := m.Get(2); !ok || v != "two" {
		t.Errorf("Get(2) = %q, %v", v, ok)
	}
}

func TestGetMissing(t *testing.T) {
	m := container.NewSymbolMap[int]()
	if _, ok := m.Get(99); ok {
		t.Error("Get on empty map should report false")
	}
}

func TestSetOverwritesExisting(t *testing.T) {
	m := container.NewSymbolMap[int]()
	m.Set(5, 1)
	m.Set(5, 2)
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	if v, _ := m.Get(5); v != 2 {
		t.Errorf("Get(5) = %d, want 2", v)
	}
}

func TestDelete(t *testing.T) {
	m := container.NewSymbolMap[int]()
	m.Set(1, 10)
	m.Set(2, 20)
	if !m.Delete(1) {
		t.Fatal("Delete(1) should report true")
	}
	if _, ok := m.Get(1); ok {
		t.Error("key 1 should be gone after Delete")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if m.Delete(1) {
		t.Error("Delete of an absent key should report false")
	}
}

func TestGrowthPreservesAllEntries(t *testing.T) {
	m := container.NewSymbolMap[int]()
	const n = 500
	for i := uint32(0); i < n; i++ {
		m.Set(i, int(i)*2)
	}
	if m.Len() != n {
		t.Fatalf("Len() = %d, want %d", m.Len(), n)
	}
	for i := uint32(0); i < n; i++ {
		v, ok := m.Get(i)
		if !ok || v != int(i)*2 {
			t.Fatalf("Get(%d) = %d, %v", i, v, ok)
		}
	}
}

func TestEachVisitsAllEntriesOnce(t *testing.T) {
	m := container.NewSymbolMap[int]()
	want := map[uint32]int{1: 10, 2: 20, 3: 30}
	for k, v := range want {
		m.Set(k, v)
	}
	got := make(map[uint32]int)
	m.Each(func(key uint32, value int) bool {
		got[key] = value
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("Each visited %d entries, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Each: key %d = %d, want %d", k, got[k], v)
		}
	}
}

func TestEachStopsEarly(t *testing.T) {
	m := container.NewSymbolMap[int]()
	m.Set(1, 1)
	m.Set(2, 2)
	m.Set(3, 3)
	visited := 0
	m.Each(func(key uint32, value int) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("Each visited %d entries after false, want 1", visited)
	}
}

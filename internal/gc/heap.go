// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package gc implements the tracing mark-and-sweep collector: a single
// allocation-accounting entry point, an enumerated root set, and two-phase
// finalization (immediate host finalizer, scripted dtor one cycle later).
//
// Go's own runtime does the actual memory management underneath; this
// package's "allocator" tracks the logical sizes of the VM's own objects and
// decides *when* a collection cycle should run relative to a configured
// heap budget, and implements the interpreter-visible semantics (mark
// reachability, finalizer ordering) that a host embedding this language
// depends on regardless of which runtime actually owns the bytes.
package gc

import (
	mapset "github.com/deckarep/golang-set"

	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/symbol"
	"github.com/probescript/probescript/internal/value"
)

// DtorInvoker is supplied by the interpreter: it materializes obj on the API
// stack and invokes fn through the normal call path, restoring the stack
// afterward. The gc package cannot make this call itself — it sits below
// internal/vm in the dependency graph — so it is injected at Collect time.
type DtorInvoker func(obj object.Object, fn *object.ScriptFunction) error

// Config holds the heap-budget constructor numbers from §6.
type Config struct {
	MinHeapSize     uint64
	InitialHeapSize uint64
	GrowthFactor    float64
}

// DefaultConfig matches the documented defaults: 1 MiB floor, 5 MiB initial,
// 0.5 additive growth.
func DefaultConfig() Config {
	return Config{
		MinHeapSize:     1 << 20,
		InitialHeapSize: 5 << 20,
		GrowthFactor:    0.5,
	}
}

// Heap owns the intrusive all-objects list, the allocation-accounting
// counters, and the pending-finalize bookkeeping for one VM instance.
//
// The zero value is not usable; use NewHeap.
type Heap struct {
	cfg Config

	allObjects     object.Object
	bytesAllocated uint64
	nextTrigger    uint64
	gcRunning      bool

	// pendingFinalize holds garbage objects, from the previous cycle, whose
	// scripted dtor has not yet been invoked via the normal call path.
	// golang-set is used because only membership (never order) matters here,
	// and it already de-duplicates a resurrect-then-recollect object that
	// would otherwise be queued twice.
	pendingFinalize mapset.Set

	// collector is wired by the owning VM (SetCollector) to a closure that
	// runs one full Collect cycle against that VM's root set. Track consults
	// it so ordinary allocation is what actually drives opportunistic
	// collection (§4.D); it is nil for a bare *Heap built in isolation (e.g.
	// package-level tests), which simply never collects on its own.
	collector func() (CollectResult, error)

	// tempRoots is the temporary-roots stack (§4.D root (6)): a value pushed
	// here is traced as a root for as long as it remains pushed, protecting
	// an object that is reachable only through a Go-local variable during a
	// multi-step construction (a class while its members are still being
	// parsed, a function builder's not-yet-installed constants, an instance
	// whose field initializers are still running).
	tempRoots []value.Value
}

// NewHeap creates an empty heap under cfg.
func NewHeap(cfg Config) *Heap {
	return &Heap{
		cfg:             cfg,
		nextTrigger:     cfg.InitialHeapSize,
		pendingFinalize: mapset.NewSet(),
	}
}

// BytesAllocated returns the current running allocation total.
func (h *Heap) BytesAllocated() uint64 { return h.bytesAllocated }

// NextTrigger returns the byte count at which the next allocation will
// provoke a collection cycle.
func (h *Heap) NextTrigger() uint64 { return h.nextTrigger }

// ShouldCollect reports whether allocating addBytes more would cross the
// current heap budget, mirroring §4.D: "if new_size > 0 and the counter
// would cross the current heap budget, collection runs before the
// underlying allocator is called."
func (h *Heap) ShouldCollect(addBytes uint64) bool {
	return !h.gcRunning && h.bytesAllocated+addBytes > h.nextTrigger
}

// SetCollector wires the closure Track consults to run a collection cycle
// opportunistically. Called once by the owning VM after both it and its heap
// exist, since the closure must capture the VM's root set and dtor invoker.
func (h *Heap) SetCollector(fn func() (CollectResult, error)) {
	h.collector = fn
}

// PushTempRoot protects v (a pointer Value; a no-op otherwise) against
// collection until a matching PopTempRoot. Callers must pop in strict
// LIFO order around the construction span being protected, typically via
// defer.
func (h *Heap) PushTempRoot(v value.Value) {
	if !v.IsPointer() {
		return
	}
	h.tempRoots = append(h.tempRoots, v)
}

// PopTempRoot removes the most recently pushed temporary root.
func (h *Heap) PopTempRoot() {
	if len(h.tempRoots) == 0 {
		return
	}
	h.tempRoots = h.tempRoots[:len(h.tempRoots)-1]
}

// Track registers size additional logical bytes against the running total
// and links obj onto the all-objects list, marked unreachable (the default
// zero value of Header.Mark) until the next mark phase proves otherwise.
// Every heap object constructor (internal/vm's NEW_CLZ handler, the
// compiler's string/function allocation, ...) must call Track immediately
// after constructing an object, before any further allocation that could
// trigger a collection and sweep it away as unreferenced.
//
// Before linking obj in, Track consults ShouldCollect and, if a collector is
// wired, runs one collection cycle (§4.D: "if new_size > 0 and the counter
// would cross the current heap budget, collection runs before the
// underlying allocator is called"). obj itself is not yet on the
// all-objects list at that point, so the cycle can never sweep it out from
// under its caller.
func (h *Heap) Track(obj object.Object, size uint64) {
	if h.collector != nil && h.ShouldCollect(size) {
		h.collector()
	}
	obj.Header().Size = size
	obj.Header().Next = h.allObjects
	h.allObjects = obj
	h.bytesAllocated += size
}

// Each calls fn for every object currently on the all-objects list, in list
// order. Intended for tests and debug dumps, not the hot path.
func (h *Heap) Each(fn func(object.Object) bool) {
	for cur := h.allObjects; cur != nil; cur = cur.Header().Next {
		if !fn(cur) {
			return
		}
	}
}

// Len returns the number of objects currently on the all-objects list.
func (h *Heap) Len() int {
	n := 0
	h.Each(func(object.Object) bool { n++; return true })
	return n
}

// Untrack subtracts size bytes from the running total (clamping at zero)
// without touching the all-objects list. Collect calls it once per cycle
// with the summed size of every object it swept.
func (h *Heap) Untrack(size uint64) {
	if size > h.bytesAllocated {
		h.bytesAllocated = 0
		return
	}
	h.bytesAllocated -= size
}

// CollectResult summarizes one collection cycle.
type CollectResult struct {
	Freed             int
	QueuedForFinalize int
	DtorInvoked       int
}

// Collect runs one full cycle: invoke scripted dtors left pending from the
// previous cycle, trace the root set, sweep unreachable objects, and queue
// any newly unreachable instance/reference with a scripted dtor for next
// cycle. Re-entrant calls (gcRunning already set, e.g. from within a
// finalizer or dtor invocation) are no-ops returning a zero CollectResult,
// per §4.D's reentrancy rule.
func (h *Heap) Collect(roots RootSet, symtab *symbol.Table, invokeDtor DtorInvoker) (CollectResult, error) {
	if h.gcRunning {
		return CollectResult{}, nil
	}
	h.gcRunning = true
	defer func() { h.gcRunning = false }()

	var result CollectResult

	// Phase 0: finish finalizing what last cycle queued, before this cycle's
	// mark phase runs, so a dtor that resurrects its receiver is correctly
	// seen as reachable below.
	for _, elem := range h.pendingFinalize.ToSlice() {
		obj := elem.(object.Object)
		h.pendingFinalize.Remove(elem)
		dtor := scriptedDtor(obj, symtab)
		if dtor == nil {
			continue
		}
		if err := invokeDtor(obj, dtor); err != nil {
			return result, err
		}
		result.DtorInvoked++
	}

	// Phase 1: mark.
	resetMarks(h.allObjects)
	for _, v := range roots.Values() {
		traceValue(v)
	}
	for _, o := range roots.Objects() {
		trace(o)
	}
	for _, v := range h.tempRoots {
		traceValue(v)
	}

	// Phase 2: sweep.
	survivors, garbage := sweep(h.allObjects)
	h.allObjects = survivors

	// Phase 3: finalize. Every swept object's tracked size is no longer
	// live, whether or not its finalization is deferred to next cycle, so
	// Untrack runs for all of it here rather than only for the Freed
	// subset (§8: bytes_allocated tracks what is still live right now).
	var freedBytes uint64
	for _, obj := range garbage {
		freedBytes += obj.Header().Size
		if fin := hostFinalizer(obj); fin != nil {
			fin(obj)
		}
		if dtor := scriptedDtor(obj, symtab); dtor != nil {
			h.pendingFinalize.Add(obj)
			result.QueuedForFinalize++
			continue
		}
		result.Freed++
	}
	h.Untrack(freedBytes)

	// Phase 4: heap budget.
	budget := float64(h.bytesAllocated) * (1 + h.cfg.GrowthFactor)
	if budget < float64(h.cfg.MinHeapSize) {
		budget = float64(h.cfg.MinHeapSize)
	}
	h.nextTrigger = uint64(budget)

	return result, nil
}

// scriptedDtor returns obj's class's scripted dtor method, if any, for the
// two object kinds that undergo finalization (instances and references).
func scriptedDtor(obj object.Object, symtab *symbol.Table) *object.ScriptFunction {
	var class *object.Class
	switch o := obj.(type) {
	case *object.Instance:
		class = o.Class
	case *object.Reference:
		class = o.Class
	default:
		return nil
	}
	v, _, ok := class.Resolve(symtab.Dtor)
	if !ok || !v.IsPointer() {
		return nil
	}
	fn, _ := object.FromValue(v).(*object.ScriptFunction)
	return fn
}

// hostFinalizer returns obj's class's host finalizer callback, if any.
func hostFinalizer(obj object.Object) object.FinalizerFn {
	switch o := obj.(type) {
	case *object.Instance:
		return o.Class.Finalizer
	case *object.Reference:
		return o.Class.Finalizer
	default:
		return nil
	}
}

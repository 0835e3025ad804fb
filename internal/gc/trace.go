// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package gc

import (
	"github.com/probescript/probescript/internal/object"
	"github.com/probescript/probescript/internal/value"
)

// RootSet is implemented by the VM to enumerate the runtime half of §4.D's
// root list: the API value stack, call-frame functions, the modules map,
// and the handle list. Values returns root locations holding a NaN-boxed
// Value; Objects returns root locations holding a raw heap object pointer
// directly (a call frame's function, a module map entry) where wrapping it
// as a Value first would be pure overhead.
//
// The remaining two roots — parser-in-progress state and the
// temporary-roots stack — are not enumerated through RootSet at all: the
// compiler holds a *Heap reference but never a VM, so Collect instead
// traces Heap.tempRoots directly (see Collect's mark phase), and callers on
// either side of that boundary (the parser building a class or function,
// internal/vm's instance-construction loop) push onto it via
// PushTempRoot/PopTempRoot around the span where the object they just
// tracked isn't yet reachable any other way.
type RootSet interface {
	Values() []value.Value
	Objects() []object.Object
}

// resetMarks walks the all-objects list clearing every Mark bit, the start
// of every cycle's mark phase. Objects proven reachable below are
// immediately re-marked true; nothing else is.
func resetMarks(head object.Object) {
	for cur := head; cur != nil; cur = cur.Header().Next {
		cur.Header().Mark = false
	}
}

// traceValue marks and recurses into v's referent if v is a pointer Value;
// it is a no-op for numbers and singletons.
func traceValue(v value.Value) {
	if !v.IsPointer() {
		return
	}
	trace(object.FromValue(v))
}

// trace marks obj reachable and recurses into whatever it references,
// per the per-kind tracing rules in §4.D. A nil obj or one already marked
// (a cycle, or a second path to the same object) is a no-op.
func trace(obj object.Object) {
	if obj == nil {
		return
	}
	hdr := obj.Header()
	if hdr.Mark {
		return
	}
	hdr.Mark = true

	switch o := obj.(type) {
	case *object.Module:
		for _, v := range o.VarSlots {
			traceValue(v)
		}
		if o.Init != nil {
			trace(o.Init)
		}
	case *object.Class:
		if o.Base != nil {
			trace(o.Base)
		}
		if o.Owner != nil {
			trace(o.Owner)
		}
		for _, v := range o.Slots {
			traceValue(v)
		}
		for _, fn := range o.FieldInits {
			trace(fn)
		}
	case *object.Instance:
		trace(o.Class)
		o.Fields.Each(func(_ uint32, v value.Value) bool {
			traceValue(v)
			return true
		})
	case *object.ScriptFunction:
		for _, v := range o.Constants.Raw() {
			traceValue(v)
		}
	case *object.NativeFunction:
		for _, v := range o.StaticSlots.Raw() {
			traceValue(v)
		}
	case *object.Reference:
		trace(o.Class)
	case *object.WeakReference:
		// The raw pointer is deliberately not traced: a weak reference
		// carries no ownership of its pointee.
		if o.Class != nil {
			trace(o.Class)
		}
	case *object.String:
		// No children.
	}
}

// sweep walks head, splitting it into a list of survivors (re-linked in
// traversal order, marks reset for the next cycle) and a slice of
// unreachable objects for the caller to finalize.
func sweep(head object.Object) (survivors object.Object, garbage []object.Object) {
	var tail object.Object
	cur := head
	for cur != nil {
		hdr := cur.Header()
		next := hdr.Next
		if hdr.Mark {
			hdr.Mark = false
			hdr.Next = nil
			if survivors == nil {
				survivors = cur
			} else {
				tail.Header().Next = cur
			}
			tail = cur
		} else {
			hdr.Next = nil
			garbage = append(garbage, cur)
		}
		cur = next
	}
	return survivors, garbage
}

// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package object

import (
	"unsafe"

	"github.com/probescript/probescript/internal/value"
)

// Reference is a host-backed object: its class's ExtraDataSize determines
// how many bytes of inline, host-opaque storage it carries (a native handle,
// a buffer header — whatever the embedding class binding needs). Only its
// Class is traced by the collector; ExtraData is opaque bytes, never heap
// pointers the collector would need to follow.
type Reference struct {
	head Header

	Class     *Class
	ExtraData []byte
}

// NewReference allocates a reference of class, with ExtraData sized from
// class.ExtraDataSize.
func NewReference(class *Class) *Reference {
	return &Reference{head: Header{Kind: KindReference}, Class: class, ExtraData: make([]byte, class.ExtraDataSize)}
}

// Header returns the object's embedded allocator/GC header.
func (r *Reference) Header() *Header { return &r.head }

// AsValue boxes r as a NaN-boxed pointer Value.
func (r *Reference) AsValue() value.Value { return value.Pointer(unsafe.Pointer(r)) }

// WeakReference behaves like a Reference for method dispatch (its Class is
// traced and resolved through exactly the same chain) but holds a raw,
// untraced pointer to host-owned data instead of inline bytes — the
// collector must never follow Raw, since a weak reference is not considered
// an owning reference to whatever it points at.
type WeakReference struct {
	head Header

	Class *Class
	Raw   unsafe.Pointer
}

// NewWeakReference allocates a weak reference of class pointing at raw.
func NewWeakReference(class *Class, raw unsafe.Pointer) *WeakReference {
	return &WeakReference{head: Header{Kind: KindWeakReference}, Class: class, Raw: raw}
}

// Header returns the object's embedded allocator/GC header.
func (w *WeakReference) Header() *Header { return &w.head }

// AsValue boxes w as a NaN-boxed pointer Value.
func (w *WeakReference) AsValue() value.Value { return value.Pointer(unsafe.Pointer(w)) }

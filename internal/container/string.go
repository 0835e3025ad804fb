// Copyright 2024 The ProbeScript Authors
// This file is part of ProbeScript.
//
// ProbeScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package container

import "fmt"

// OwnedString is a growable, owned byte buffer built with a
// reserve-then-format protocol: callers repeatedly Appendf into it and read
// back the accumulated content with String, mirroring the header+payload
// owned-string layout used for every other heap container in the runtime.
//
// The zero value is an empty, usable string builder.
type OwnedString struct {
	data []byte
}

// Len returns the number of bytes currently held.
func (s *OwnedString) Len() int {
	return len(s.data)
}

// String returns the accumulated content. The returned string is a copy;
// mutating the builder afterward does not affect it.
func (s *OwnedString) String() string {
	return string(s.data)
}

// Reserve ensures the backing buffer can hold at least n bytes without a
// further reallocation.
func (s *OwnedString) Reserve(n int) {
	if cap(s.data) >= n {
		return
	}
	newCap := cap(s.data)*2 + 6
	if newCap < n {
		newCap = n
	}
	grown := make([]byte, len(s.data), newCap)
	copy(grown, s.data)
	s.data = grown
}

// AppendByte appends a single raw byte.
func (s *OwnedString) AppendByte(b byte) {
	s.Reserve(len(s.data) + 1)
	s.data = append(s.data, b)
}

// AppendString appends raw bytes verbatim, with no formatting.
func (s *OwnedString) AppendString(str string) {
	s.Reserve(len(s.data) + len(str))
	s.data = append(s.data, str...)
}

// Appendf formats according to format and args (fmt.Sprintf semantics) and
// appends the result, growing the backing buffer first (reserve) and then
// writing in place (format), per the container's two-step write protocol.
func (s *OwnedString) Appendf(format string, args ...any) {
	formatted := fmt.Sprintf(format, args...)
	s.Reserve(len(s.data) + len(formatted))
	s.data = append(s.data, formatted...)
}

// Reset empties the builder without releasing its backing buffer, so a
// caller reusing it for many small strings (the disassembler's per-line
// output, say) doesn't pay repeated allocations.
func (s *OwnedString) Reset() {
	s.data = s.data[:0]
}

// Bytes exposes the backing buffer directly, for callers (a host print
// callback reading a final result) that want to avoid the copy String makes.
// The returned slice is invalidated by any subsequent call that reallocates.
func (s *OwnedString) Bytes() []byte {
	return s.data
}

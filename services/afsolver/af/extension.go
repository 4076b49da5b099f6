// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package af

import (
	"sort"
	"strings"
)

// Extension is a set of accepted arguments. Extensions produced by this
// module are in the framework's canonical order and contain no duplicates.
type Extension []Argument

// NewExtension orders the members of set canonically with respect to f.
func NewExtension(f *Framework, set map[Argument]struct{}) Extension {
	out := make(Extension, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return f.Less(out[i], out[j]) })
	return out
}

// Set returns the extension as a membership map.
func (e Extension) Set() map[Argument]struct{} {
	s := make(map[Argument]struct{}, len(e))
	for _, a := range e {
		s[a] = struct{}{}
	}
	return s
}

// Contains reports whether a is a member.
func (e Extension) Contains(a Argument) bool {
	for _, x := range e {
		if x == a {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every member of e is a member of o.
func (e Extension) SubsetOf(o Extension) bool {
	os := o.Set()
	for _, a := range e {
		if _, ok := os[a]; !ok {
			return false
		}
	}
	return true
}

// Equal reports set equality, ignoring order.
func (e Extension) Equal(o Extension) bool {
	return len(e) == len(o) && e.SubsetOf(o)
}

// Key returns an order-independent string usable as a map key.
func (e Extension) Key() string {
	ids := make([]string, len(e))
	for i, a := range e {
		ids[i] = string(a)
	}
	sort.Strings(ids)
	return strings.Join(ids, "\x00")
}

// String renders the extension as "{a, b, c}".
func (e Extension) String() string {
	ids := make([]string, len(e))
	for i, a := range e {
		ids[i] = string(a)
	}
	return "{" + strings.Join(ids, ", ") + "}"
}

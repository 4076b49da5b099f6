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

// =============================================================================
// Semantic property checks
// =============================================================================

// Attacked returns every argument attacked by some member of s.
func (f *Framework) Attacked(s Extension) map[Argument]struct{} {
	out := make(map[Argument]struct{})
	for _, a := range s {
		n, ok := f.nodes[a]
		if !ok {
			continue
		}
		for t := range n.targets {
			out[t] = struct{}{}
		}
	}
	return out
}

// Range returns s together with every argument it attacks.
func (f *Framework) Range(s Extension) Extension {
	set := f.Attacked(s)
	for _, a := range s {
		if f.HasArgument(a) {
			set[a] = struct{}{}
		}
	}
	return NewExtension(f, set)
}

// IsConflictFree reports whether no member of s attacks a member of s.
func (f *Framework) IsConflictFree(s Extension) bool {
	members := s.Set()
	for _, a := range s {
		n, ok := f.nodes[a]
		if !ok {
			return false
		}
		for t := range n.targets {
			if _, in := members[t]; in {
				return false
			}
		}
	}
	return true
}

// Defends reports whether every attacker of a is attacked by s.
func (f *Framework) Defends(s Extension, a Argument) bool {
	return f.defends(f.Attacked(s), a)
}

func (f *Framework) defends(attacked map[Argument]struct{}, a Argument) bool {
	n, ok := f.nodes[a]
	if !ok {
		return false
	}
	for b := range n.attackers {
		if _, ok := attacked[b]; !ok {
			return false
		}
	}
	return true
}

// IsAdmissible reports whether s is conflict-free and defends each member.
func (f *Framework) IsAdmissible(s Extension) bool {
	if !f.IsConflictFree(s) {
		return false
	}
	attacked := f.Attacked(s)
	for _, a := range s {
		if !f.defends(attacked, a) {
			return false
		}
	}
	return true
}

// IsComplete reports whether s is admissible and contains every argument it
// defends.
func (f *Framework) IsComplete(s Extension) bool {
	if !f.IsAdmissible(s) {
		return false
	}
	members := s.Set()
	attacked := f.Attacked(s)
	for _, a := range f.order {
		if _, in := members[a]; in {
			continue
		}
		if f.defends(attacked, a) {
			return false
		}
	}
	return true
}

// IsStable reports whether s is conflict-free and attacks every non-member.
func (f *Framework) IsStable(s Extension) bool {
	if !f.IsConflictFree(s) {
		return false
	}
	members := s.Set()
	attacked := f.Attacked(s)
	for _, a := range f.order {
		_, in := members[a]
		_, out := attacked[a]
		if !in && !out {
			return false
		}
	}
	return true
}

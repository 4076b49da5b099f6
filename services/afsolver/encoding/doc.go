// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package encoding translates argumentation frameworks into clauses.
//
// The Mapper assigns each live argument four oracle variables:
//
//	in     the argument is accepted
//	out    some accepted argument attacks it
//	range  in or out
//	gen    activation literal of the argument's current clause group
//
// The Encoder emits one clause group per argument, every clause guarded by
// the argument's gen literal. Acceptability, completeness and totality are
// additionally guarded by global selector literals, so one clause database
// serves every semantics: a query picks a Profile, which turns into
// assumptions over the selectors and the live gen literals.
//
// When an argument's attacker set changes its group is regenerated under a
// fresh gen literal and the old one is fixed false with a unit clause. A
// removed argument has gen, in, out and range fixed false. Variables are
// never reused.
package encoding

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search implements extremal model search and lazy enumeration on
// top of an encoded framework.
//
// Every transient constraint (blocking clauses, range pins, improvement
// clauses) lives in a Scope. A Scope owns a gate literal: its clauses are
// guarded by the gate, its solves assume the gate, and closing it fixes the
// gate false. Scopes therefore never leak constraints into later queries on
// the same oracle, and no transient clause is ever empty.
//
// # Extremal Search
//
// Starting from a seed model S, each step adds a clause under a fresh
// one-shot selector demanding strictly more (or fewer) target literals than
// S, assumes S's target literals, and re-solves. The selector is retired
// with a unit clause after the call. The last model before UNSAT is
// subset-maximal (or minimal) among the models of the active profile.
//
// # Enumeration
//
//   - Models: solve and block the exact accepted set (complete, stable).
//   - Maximal: maximize, yield, block "not a subset of M" (preferred).
//   - Range: maximize the range to R, yield every model with range exactly
//     R, then block "range not a subset of R" (semi-stable, stage).
package search

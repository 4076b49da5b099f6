// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sat adapts SAT solvers to the incremental oracle contract used by
// the argumentation engine.
//
// The contract is deliberately small: allocate fresh variables, add clauses
// permanently, and solve under a list of assumption literals that hold for
// one call only. Every higher-level technique (semantics profiles, blocking
// clauses, one-shot selectors, activation literals for dynamic updates) is
// expressed with those three operations.
//
// # Backends
//
//   - gini: incremental CDCL solver (github.com/go-air/gini). Learnt clauses
//     survive between calls. Cancellation stops the background solve.
//   - gophersat: github.com/crillab/gophersat. The problem is rebuilt on every
//     call; useful as an independent cross-check.
//   - external: any DIMACS solver binary following the competition output
//     conventions ("s SATISFIABLE", "v ..." lines), run as a subprocess.
//
// Literals use the DIMACS convention: variable n is the positive literal n,
// its negation is -n, and 0 is never a valid literal.
package sat

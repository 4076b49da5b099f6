// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package af models abstract argumentation frameworks.
//
// A Framework is a finite set of arguments connected by a directed attack
// relation. It supports incremental mutation (adding and removing arguments
// and attacks) so a single instance can follow a dynamic workload, and it
// keeps a stable insertion order used to print extensions canonically.
//
// The package also provides direct, solver-free property checks
// (conflict-freeness, admissibility, completeness, stability, range) that
// the rest of the module uses for validation and tests.
//
// # Thread Safety
//
// Framework is NOT safe for concurrent use. It is owned by exactly one
// session, which serializes access.
package af

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session keeps one framework and its live solving state across a
// sequence of mutation batches and queries.
//
// A Session owns a framework, one oracle instance, the literal mapper and
// encoder, an ordered history of applied batches and a revision counter.
// Applying a batch validates it in full against a scratch copy first, so a
// malformed batch changes nothing. A valid batch is journaled (when a
// journal is configured), applied to the framework, and then turned into an
// incremental clause delta: new arguments get fresh literals, arguments
// whose attackers changed get a fresh clause group, removed arguments are
// fixed false. The oracle and mapper are never rebuilt.
//
// Query results are cached per revision. An open lazy enumeration makes the
// session busy until it is drained or closed.
package session

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package query routes reasoning queries to the matching algorithm.
//
// A Query pairs a Semantics with a Task. The Dispatcher answers it against
// an encoded framework:
//
//	Task             GR / ID          CO / ST            PR / SST / STG
//	ComputeOne       fixpoint         one solve          extremal search
//	EnumerateAll     single result    solve-and-block    maximize-and-block
//	DecideCredulous  membership       one solve          one solve (PR) or per range class
//	DecideSkeptical  membership       membership (CO),   counterexample loop (PR) or
//	                                  one solve (ST)     per range class
//
// Decision answers optionally carry a certificate: an extension containing
// the argument for a positive credulous answer, or one excluding it for a
// negative skeptical answer.
package query

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package format reads and writes argumentation frameworks, answers and
// dynamic scripts.
//
// Two framework formats are supported:
//
//	iccma23  "p af <n>" header, one "<attacker> <target>" pair per line,
//	         "#" comments; arguments are 1..n.
//	apx      ASPARTIX facts: "arg(a)." and "att(a,b).", "%" comments.
//
// Answers follow the competition output conventions of each format.
package format

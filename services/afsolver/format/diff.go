// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package format

import (
	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

// Diff returns the batch that turns old into next. Removals precede
// additions; attacks incident to a removed argument are left to the
// argument removal.
func Diff(old, next *af.Framework) session.Batch {
	var b session.Batch
	for _, att := range old.Attacks() {
		if !next.HasArgument(att.From) || !next.HasArgument(att.To) {
			continue
		}
		if !next.HasAttack(att.From, att.To) {
			b = append(b, session.RemoveAttack(att.From, att.To))
		}
	}
	for _, a := range old.Arguments() {
		if !next.HasArgument(a) {
			b = append(b, session.RemoveArgument(a))
		}
	}
	for _, a := range next.Arguments() {
		if !old.HasArgument(a) {
			b = append(b, session.AddArgument(a))
		}
	}
	for _, att := range next.Attacks() {
		if !old.HasAttack(att.From, att.To) {
			b = append(b, session.AddAttack(att.From, att.To))
		}
	}
	return b
}

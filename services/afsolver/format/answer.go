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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
)

// WriteResult renders res in the output convention of format.
//
// iccma23 prints one "w ..." line per extension, "YES" or "NO" for
// decisions, and "NO" when no extension exists. apx prints "[a,b]" for a
// single extension and "[[a],[b]]" for an enumeration. Certificates follow
// the decision line in the extension notation of the format.
func WriteResult(w io.Writer, format Format, res query.Result) error {
	if format != ICCMA23 && format != APX {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	bw := bufio.NewWriter(w)
	switch res.Query.Task {
	case query.ComputeOne:
		if !res.Found {
			fmt.Fprintln(bw, "NO")
			break
		}
		fmt.Fprintln(bw, FormatExtension(format, res.Extension))
	case query.EnumerateAll:
		if format == APX {
			parts := make([]string, len(res.Extensions))
			for i, e := range res.Extensions {
				parts[i] = FormatExtension(APX, e)
			}
			fmt.Fprintf(bw, "[%s]\n", strings.Join(parts, ","))
			break
		}
		if len(res.Extensions) == 0 {
			fmt.Fprintln(bw, "NO")
			break
		}
		for _, e := range res.Extensions {
			fmt.Fprintln(bw, FormatExtension(ICCMA23, e))
		}
	default:
		if res.Accepted {
			fmt.Fprintln(bw, "YES")
		} else {
			fmt.Fprintln(bw, "NO")
		}
		if res.Query.Certificate && res.HasWitness {
			fmt.Fprintln(bw, FormatExtension(format, res.Witness))
		}
	}
	return bw.Flush()
}

// FormatExtension renders one extension: "w 1 3" or "[a,c]".
func FormatExtension(format Format, e af.Extension) string {
	parts := make([]string, len(e))
	for i, a := range e {
		parts[i] = string(a)
	}
	if format == APX {
		return "[" + strings.Join(parts, ",") + "]"
	}
	if len(parts) == 0 {
		return "w"
	}
	return "w " + strings.Join(parts, " ")
}

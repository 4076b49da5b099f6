// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteDIMACS writes clauses and assumption units in DIMACS CNF format.
func WriteDIMACS(w io.Writer, maxVar int, clauses [][]int, assumptions []Lit) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "p cnf %d %d\n", maxVar, len(clauses)+len(assumptions)); err != nil {
		return err
	}
	for _, c := range clauses {
		for _, l := range c {
			bw.WriteString(strconv.Itoa(l))
			bw.WriteByte(' ')
		}
		bw.WriteString("0\n")
	}
	for _, l := range assumptions {
		fmt.Fprintf(bw, "%d 0\n", int(l))
	}
	return bw.Flush()
}

// ParseSolverOutput reads competition-style solver output: an
// "s SATISFIABLE", "s UNSATISFIABLE" or "s UNKNOWN" status line and, for
// satisfiable answers, "v" lines listing the model literals.
//
// "s UNKNOWN" yields Unknown with a nil error. Output without a status line,
// or with an unrecognised one, is an ErrExternalSolver.
func ParseSolverOutput(r io.Reader) (Status, map[int]bool, error) {
	status := Unknown
	seen := false
	model := make(map[int]bool)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "s "):
			switch word := strings.TrimSpace(line[2:]); word {
			case "SATISFIABLE":
				status = Satisfiable
			case "UNSATISFIABLE":
				status = Unsatisfiable
			case "UNKNOWN":
				status = Unknown
			default:
				return Unknown, nil, fmt.Errorf("%w: unrecognised status %q", ErrExternalSolver, word)
			}
			seen = true
		case strings.HasPrefix(line, "v "):
			for _, tok := range strings.Fields(line[2:]) {
				n, err := strconv.Atoi(tok)
				if err != nil {
					return Unknown, nil, fmt.Errorf("%w: bad model token %q", ErrExternalSolver, tok)
				}
				if n == 0 {
					continue
				}
				if n > 0 {
					model[n] = true
				} else {
					model[-n] = false
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Unknown, nil, fmt.Errorf("%w: read output: %v", ErrExternalSolver, err)
	}
	if !seen {
		return Unknown, nil, fmt.Errorf("%w: no status line", ErrExternalSolver)
	}
	return status, model, nil
}

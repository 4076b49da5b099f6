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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
)

// Format names a framework file format.
type Format string

const (
	// ICCMA23 is the numeric "p af n" format.
	ICCMA23 Format = "iccma23"

	// APX is the ASPARTIX fact format.
	APX Format = "apx"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case ICCMA23, APX:
		return f, nil
	case "i23", "af":
		return ICCMA23, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Detect guesses the format from a file extension. Unknown extensions
// default to iccma23.
func Detect(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".apx":
		return APX
	default:
		return ICCMA23
	}
}

// ReadFile reads a framework file. An empty format is detected from the
// extension.
func ReadFile(path string, format Format) (*af.Framework, error) {
	if format == "" {
		format = Detect(path)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	f, err := Read(fh, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Read parses a framework in the given format.
func Read(r io.Reader, format Format) (*af.Framework, error) {
	switch format {
	case ICCMA23:
		return readICCMA23(r)
	case APX:
		return readAPX(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return sc
}

func readICCMA23(r io.Reader) (*af.Framework, error) {
	sc := newScanner(r)
	f := af.NewFramework()
	header := false
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if !header {
			if len(fields) != 3 || fields[0] != "p" || fields[1] != "af" {
				return nil, &ParseError{Line: line, Text: text, Err: fmt.Errorf("%w: want \"p af <n>\" header", ErrParse)}
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, &ParseError{Line: line, Text: text, Err: fmt.Errorf("%w: bad argument count", ErrParse)}
			}
			for i := 1; i <= n; i++ {
				if err := f.AddArgument(af.Argument(strconv.Itoa(i))); err != nil {
					return nil, err
				}
			}
			header = true
			continue
		}
		if len(fields) != 2 {
			return nil, &ParseError{Line: line, Text: text, Err: fmt.Errorf("%w: want \"<attacker> <target>\"", ErrParse)}
		}
		from, to := af.Argument(fields[0]), af.Argument(fields[1])
		if f.HasAttack(from, to) {
			continue
		}
		if err := f.AddAttack(from, to); err != nil {
			return nil, &ParseError{Line: line, Text: text, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !header {
		return nil, fmt.Errorf("%w: missing \"p af <n>\" header", ErrParse)
	}
	return f, nil
}

// parseFact splits "name(x,y)." into name and arguments.
func parseFact(text string) (string, []string, bool) {
	text = strings.TrimSuffix(strings.TrimSpace(text), ".")
	open := strings.IndexByte(text, '(')
	if open <= 0 || !strings.HasSuffix(text, ")") {
		return "", nil, false
	}
	name := strings.TrimSpace(text[:open])
	body := text[open+1 : len(text)-1]
	parts := strings.Split(body, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return "", nil, false
		}
	}
	return name, parts, true
}

func readAPX(r io.Reader) (*af.Framework, error) {
	sc := newScanner(r)
	f := af.NewFramework()
	var attacks []af.Attack
	var attackLines []int
	var attackText []string
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		name, parts, ok := parseFact(text)
		if !ok {
			return nil, &ParseError{Line: line, Text: text, Err: fmt.Errorf("%w: want arg(a). or att(a,b).", ErrParse)}
		}
		switch {
		case name == "arg" && len(parts) == 1:
			a := af.Argument(parts[0])
			if f.HasArgument(a) {
				continue
			}
			if err := f.AddArgument(a); err != nil {
				return nil, &ParseError{Line: line, Text: text, Err: err}
			}
		case name == "att" && len(parts) == 2:
			// Attacks may precede the arguments they mention.
			attacks = append(attacks, af.Attack{From: af.Argument(parts[0]), To: af.Argument(parts[1])})
			attackLines = append(attackLines, line)
			attackText = append(attackText, text)
		default:
			return nil, &ParseError{Line: line, Text: text, Err: fmt.Errorf("%w: unknown fact %s/%d", ErrParse, name, len(parts))}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for i, att := range attacks {
		if f.HasAttack(att.From, att.To) {
			continue
		}
		if err := f.AddAttack(att.From, att.To); err != nil {
			return nil, &ParseError{Line: attackLines[i], Text: attackText[i], Err: err}
		}
	}
	return f, nil
}

// Write renders f in the given format.
func Write(w io.Writer, f *af.Framework, format Format) error {
	bw := bufio.NewWriter(w)
	switch format {
	case ICCMA23:
		for i, a := range f.Arguments() {
			if string(a) != strconv.Itoa(i+1) {
				return fmt.Errorf("%w: argument %d is %q", ErrUnsupportedLabels, i+1, a)
			}
		}
		fmt.Fprintf(bw, "p af %d\n", f.Len())
		for _, att := range f.Attacks() {
			fmt.Fprintf(bw, "%s %s\n", att.From, att.To)
		}
	case APX:
		for _, a := range f.Arguments() {
			fmt.Fprintf(bw, "arg(%s).\n", a)
		}
		for _, att := range f.Attacks() {
			fmt.Fprintf(bw, "att(%s,%s).\n", att.From, att.To)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return bw.Flush()
}

// Renumber maps f onto arguments 1..n in canonical order, returning the new
// framework and the label of each number.
func Renumber(f *af.Framework) (*af.Framework, map[af.Argument]af.Argument, error) {
	labels := make(map[af.Argument]af.Argument, f.Len())
	index := make(map[af.Argument]af.Argument, f.Len())
	out := af.NewFramework()
	for i, a := range f.Arguments() {
		n := af.Argument(strconv.Itoa(i + 1))
		labels[n] = a
		index[a] = n
		if err := out.AddArgument(n); err != nil {
			return nil, nil, err
		}
	}
	for _, att := range f.Attacks() {
		if err := out.AddAttack(index[att.From], index[att.To]); err != nil {
			return nil, nil, err
		}
	}
	return out, labels, nil
}

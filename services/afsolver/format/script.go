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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

// Script is a dynamic reasoning run: a base framework followed by queries
// and mutation batches in order.
//
//	framework: base.af
//	format: iccma23
//	steps:
//	  - query: DC-PR
//	    argument: "3"
//	  - mutations: ["+att 1 3", "-arg 2"]
//	  - query: SE-GR
type Script struct {
	Framework   string `yaml:"framework"`
	Format      string `yaml:"format,omitempty"`
	Certificate bool   `yaml:"certificate,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is either a query or a mutation batch.
type Step struct {
	Query     string   `yaml:"query,omitempty"`
	Argument  string   `yaml:"argument,omitempty"`
	Mutations []string `yaml:"mutations,omitempty"`
}

// Action is a parsed Step: exactly one of Query or Batch is set.
type Action struct {
	Query *query.Query
	Batch session.Batch
}

// LoadScript reads a script file. A relative framework path is resolved
// against the directory of the script.
func LoadScript(path string) (*Script, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	s, err := ReadScript(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Framework != "" && !filepath.IsAbs(s.Framework) {
		s.Framework = filepath.Join(filepath.Dir(path), s.Framework)
	}
	return s, nil
}

// ReadScript decodes a script, rejecting unknown keys.
func ReadScript(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty script", ErrParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if s.Framework == "" {
		return nil, fmt.Errorf("%w: script names no framework", ErrParse)
	}
	if _, err := s.Actions(); err != nil {
		return nil, err
	}
	return &s, nil
}

// FrameworkFormat returns the declared or detected framework format.
func (s *Script) FrameworkFormat() (Format, error) {
	if s.Format == "" {
		return Detect(s.Framework), nil
	}
	return ParseFormat(s.Format)
}

// Actions parses every step.
func (s *Script) Actions() ([]Action, error) {
	out := make([]Action, 0, len(s.Steps))
	for i, st := range s.Steps {
		a, err := st.action(s.Certificate)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (st Step) action(cert bool) (Action, error) {
	switch {
	case st.Query != "" && len(st.Mutations) > 0:
		return Action{}, fmt.Errorf("%w: step has both query and mutations", ErrParse)
	case st.Query != "":
		q, err := query.ParseProblem(st.Query)
		if err != nil {
			return Action{}, err
		}
		q.Argument = af.Argument(st.Argument)
		q.Certificate = cert
		if q.Task.IsDecision() && q.Argument == "" {
			return Action{}, fmt.Errorf("%w: %s needs an argument", ErrParse, st.Query)
		}
		return Action{Query: &q}, nil
	case len(st.Mutations) > 0:
		batch := make(session.Batch, 0, len(st.Mutations))
		for _, line := range st.Mutations {
			m, err := session.ParseMutation(line)
			if err != nil {
				return Action{}, err
			}
			batch = append(batch, m)
		}
		return Action{Batch: batch}, nil
	}
	return Action{}, fmt.Errorf("%w: empty step", ErrParse)
}

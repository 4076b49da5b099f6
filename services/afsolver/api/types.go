// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
)

// FrameworkInput carries a framework either as file content in a known
// format or as explicit argument and attack lists.
type FrameworkInput struct {
	// Format is "iccma23" or "apx"; required with Content.
	Format string `json:"format,omitempty"`

	// Content is the framework file text.
	Content string `json:"content,omitempty"`

	// Arguments and Attacks describe the framework directly.
	Arguments []af.Argument `json:"arguments,omitempty"`
	Attacks   []af.Attack   `json:"attacks,omitempty"`
}

// QueryRequest names one reasoning query.
type QueryRequest struct {
	// Problem is a descriptor such as "DC-PR".
	Problem string `json:"problem" binding:"required"`

	// Argument is required for DC and DS.
	Argument af.Argument `json:"argument,omitempty"`

	// Certificate asks for a witness extension with decisions.
	Certificate bool `json:"certificate,omitempty"`
}

// SolveRequest is the body of POST /v1/solve.
type SolveRequest struct {
	Framework FrameworkInput `json:"framework"`
	QueryRequest
}

// CreateSessionRequest is the body of POST /v1/sessions.
type CreateSessionRequest struct {
	Framework FrameworkInput `json:"framework"`
}

// MutationsRequest is the body of POST /v1/sessions/:id/mutations.
type MutationsRequest struct {
	Mutations session.Batch `json:"mutations" binding:"required,min=1,dive"`
}

// MutationsResponse reports the revision a batch produced.
type MutationsResponse struct {
	SessionID string `json:"session_id"`
	Revision  uint64 `json:"revision"`
}

// QueryResponse is the answer to a query.
type QueryResponse struct {
	Problem    string         `json:"problem"`
	Argument   af.Argument    `json:"argument,omitempty"`
	Revision   uint64         `json:"revision,omitempty"`
	Found      *bool          `json:"found,omitempty"`
	Extension  af.Extension   `json:"extension,omitempty"`
	Extensions []af.Extension `json:"extensions,omitempty"`
	Accepted   *bool          `json:"accepted,omitempty"`
	Witness    af.Extension   `json:"witness,omitempty"`
	Cached     bool           `json:"cached,omitempty"`
	ElapsedMs  int64          `json:"elapsed_ms"`
}

// ExtensionsResponse is one page of a lazy enumeration.
type ExtensionsResponse struct {
	Semantics  string         `json:"semantics"`
	Extensions []af.Extension `json:"extensions"`

	// Offset is the number of extensions served on earlier pages.
	Offset int `json:"offset"`

	// Cursor continues the enumeration; empty once Exhausted.
	Cursor    string `json:"cursor,omitempty"`
	Exhausted bool   `json:"exhausted"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// newQueryResponse renders res. Found and Accepted are set only for the
// tasks they belong to.
func newQueryResponse(res query.Result, revision uint64) QueryResponse {
	out := QueryResponse{
		Problem:   res.Query.Problem(),
		Argument:  res.Query.Argument,
		Revision:  revision,
		Cached:    res.Cached,
		ElapsedMs: res.Elapsed.Milliseconds(),
	}
	switch res.Query.Task {
	case query.ComputeOne:
		found := res.Found
		out.Found = &found
		out.Extension = res.Extension
	case query.EnumerateAll:
		out.Extensions = res.Extensions
	default:
		accepted := res.Accepted
		out.Accepted = &accepted
		if res.Query.Certificate && res.HasWitness {
			out.Witness = res.Witness
		}
	}
	return out
}

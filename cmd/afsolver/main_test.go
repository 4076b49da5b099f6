// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/afsolver/cmd/afsolver/config"
	"github.com/AleutianAI/afsolver/pkg/ux"
	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/format"
	"github.com/AleutianAI/afsolver/services/afsolver/query"
	"github.com/AleutianAI/afsolver/services/afsolver/sat"
	"github.com/AleutianAI/afsolver/services/afsolver/session"
	"github.com/AleutianAI/afsolver/services/afsolver/storage/badger"
)

// chain is 1 -> 2 -> 3; every semantics yields {1,3}.
const chain = "p af 3\n1 2\n2 3\n"

func quietConfig() session.Config {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := config.DefaultConfig()
	return sessionConfig(c, log)
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func mustQuery(t *testing.T, problem, arg string, cert bool) query.Query {
	t.Helper()
	q, err := query.ParseProblem(problem)
	require.NoError(t, err)
	q.Argument = af.Argument(arg)
	q.Certificate = cert
	return q
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("boom"), ExitFailure},
		{fmt.Errorf("x: %w", errUsage), ExitUsage},
		{query.ErrBadProblem, ExitUsage},
		{format.ErrUnknownFormat, ExitUsage},
		{fmt.Errorf("read: %w", format.ErrParse), ExitInput},
		{af.ErrMalformedFramework, ExitInput},
		{session.ErrBadMutation, ExitInput},
		{query.ErrUnsupportedQuery, ExitUnsupported},
		{query.ErrUnknownArgument, ExitUnsupported},
		{fmt.Errorf("q: %w", sat.ErrOracleExhausted), ExitExhausted},
		{errors.Join(errors.New("a"), sat.ErrOracleExhausted), ExitExhausted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestSolve(t *testing.T) {
	fw, err := format.Read(bytes.NewBufferString(chain), format.ICCMA23)
	require.NoError(t, err)

	tests := []struct {
		name    string
		problem string
		arg     string
		cert    bool
		ff      format.Format
		want    string
	}{
		{"grounded", "SE-GR", "", false, format.ICCMA23, "w 1 3\n"},
		{"stable enumeration", "EE-ST", "", false, format.ICCMA23, "w 1 3\n"},
		{"credulous no", "DC-PR", "2", false, format.ICCMA23, "NO\n"},
		{"skeptical yes", "DS-CO", "3", false, format.ICCMA23, "YES\n"},
		{"credulous certificate", "DC-ST", "1", true, format.ICCMA23, "YES\nw 1 3\n"},
		{"apx", "SE-PR", "", false, format.APX, "[1,3]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := solve(context.Background(), &out, fw, tt.ff, mustQuery(t, tt.problem, tt.arg, tt.cert), quietConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}

	t.Run("unknown argument", func(t *testing.T) {
		err := solve(context.Background(), io.Discard, fw, format.ICCMA23, mustQuery(t, "DC-GR", "9", false), quietConfig())
		assert.ErrorIs(t, err, query.ErrUnknownArgument)
		assert.Equal(t, ExitUnsupported, exitCode(err))
	})
}

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.af", chain)
	path := writeFile(t, dir, "steps.yaml", `
framework: base.af
steps:
  - query: SE-GR
  - mutations: ["-att 1 2"]
  - query: SE-GR
  - query: DC-ST
    argument: "2"
`)
	script, err := format.LoadScript(path)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runScript(context.Background(), &out, script, quietConfig()))
	assert.Equal(t, "w 1 3\nw 1 2\nYES\n", out.String())
}

func TestRunScript_BadMutation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.af", chain)
	path := writeFile(t, dir, "steps.yaml", `
framework: base.af
steps:
  - mutations: ["+att 1 7"]
`)
	script, err := format.LoadScript(path)
	require.NoError(t, err)

	err = runScript(context.Background(), io.Discard, script, quietConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.af", chain)
	b := writeFile(t, dir, "b.apx", "arg(x).\narg(y).\natt(x,y).\natt(y,x).\n")
	bad := writeFile(t, dir, "bad.af", "p af 2\n1 3\n")

	t.Run("ordered output", func(t *testing.T) {
		var out bytes.Buffer
		err := runBatch(context.Background(), &out, []string{a, b}, "", mustQuery(t, "SE-GR", "", false), 2, quietConfig())
		require.NoError(t, err)
		assert.Equal(t, "# "+a+"\nw 1 3\n# "+b+"\n[]\n", out.String())
	})

	t.Run("failure is reported and joined", func(t *testing.T) {
		var out bytes.Buffer
		err := runBatch(context.Background(), &out, []string{bad, a}, "", mustQuery(t, "SE-GR", "", false), 1, quietConfig())
		require.Error(t, err)
		assert.Equal(t, ExitInput, exitCode(err))
		assert.Contains(t, out.String(), "# "+bad+"\nERROR ")
		assert.Contains(t, out.String(), "# "+a+"\nw 1 3\n")
	})
}

func TestConvert(t *testing.T) {
	apx, err := format.Read(bytes.NewBufferString("arg(a).\narg(b).\natt(a,b).\n"), format.APX)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, convert(&out, apx, format.ICCMA23))
	assert.Equal(t, "# 1 a\n# 2 b\np af 2\n1 2\n", out.String())

	back, err := format.Read(&out, format.ICCMA23)
	require.NoError(t, err)
	assert.True(t, back.HasAttack("1", "2"))

	numbered, err := format.Read(bytes.NewBufferString(chain), format.ICCMA23)
	require.NoError(t, err)
	out.Reset()
	require.NoError(t, convert(&out, numbered, format.APX))
	assert.Equal(t, "arg(1).\narg(2).\narg(3).\natt(1,2).\natt(2,3).\n", out.String())
}

// lockedBuffer is a bytes.Buffer safe for one writer and one reader.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchFramework(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "live.af", chain)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &lockedBuffer{}
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- watchFramework(ctx, out, path, format.ICCMA23, mustQuery(t, "SE-GR", "", false), quietConfig(), ready)
	}()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher not ready")
	}
	assert.Equal(t, "w 1 3\n", out.String())

	// replace atomically so the watcher never sees a partial file
	tmp := writeFile(t, dir, "live.tmp", "p af 3\n2 3\n")
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool {
		return out.String() == "w 1 3\nw 1 2\n"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func serverConfig() config.AfsolverConfig {
	c := config.DefaultConfig()
	c.Telemetry.TraceExporter = "none"
	c.Telemetry.MetricExporter = "none"
	c.Server.Address = "127.0.0.1:0"
	c.Journal.Enabled = true
	c.Journal.Store = badger.InMemoryConfig()
	return c
}

func TestNewServer(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := newServer(ctx, serverConfig(), log)
	require.NoError(t, err)
	defer srv.close(ctx)
	require.NotNil(t, srv.journal)

	ts := httptest.NewServer(srv.http.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := bytes.NewBufferString(`{"framework":{"format":"iccma23","content":"p af 3\n1 2\n2 3\n"}}`)
	resp, err = http.Post(ts.URL+"/v1/sessions", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, srv.manager.List(), 1)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan error, 1)
	var banner bytes.Buffer
	go func() { done <- serve(ctx, serverConfig(), log, ux.NewPrinter(&banner)) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return")
	}
	assert.Contains(t, banner.String(), "address: 127.0.0.1:0\n")
	assert.Contains(t, banner.String(), "recovered sessions: 0\n")
}

func TestRootCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "afsolver.yaml", "logging:\n  level: warn\n")
	fwPath := writeFile(t, dir, "chain.af", chain)

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(io.Discard)
		rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		err := rootCmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	_, err := run("solve", "-f", fwPath)
	assert.Equal(t, ExitUsage, exitCode(err))

	_, err = run("solve", "-f", fwPath, "-p", "XX-GR")
	assert.Equal(t, ExitUsage, exitCode(err))

	out, err := run("solve", "-f", fwPath, "-p", "DS-GR", "-a", "3")
	require.NoError(t, err)
	assert.Equal(t, "YES\n", out)

	out, err = run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "afsolver ")
}

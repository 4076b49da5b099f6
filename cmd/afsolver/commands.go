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
	"fmt"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	logLevel   string
	logDir     string
	logFormat  string
	backend    string
	timeout    string

	// solve, dynamic --watch and batch
	frameworkPath   string
	frameworkFormat string
	problem         string
	argument        string
	withCertificate bool

	watch       bool
	concurrency int

	serveAddress string

	convertTo  string
	outputPath string

	rootCmd = &cobra.Command{
		Use:   "afsolver",
		Short: "SAT-based reasoner for abstract argumentation frameworks",
		Long: `afsolver computes extensions and decides argument acceptance for
abstract argumentation frameworks under grounded, complete, stable,
preferred, semi-stable, stage and ideal semantics.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupApp,
	}

	solveCmd = &cobra.Command{
		Use:   "solve",
		Short: "Answer one problem on one framework",
		Example: `  afsolver solve -f af.af -p SE-PR
  afsolver solve -f af.apx -p DS-ST -a b --with-certificate`,
		Args: cobra.NoArgs,
		RunE: runSolveCmd,
	}

	dynamicCmd = &cobra.Command{
		Use:   "dynamic [script.yaml]",
		Short: "Run a dynamic script, or re-answer a problem whenever a framework file changes",
		Example: `  afsolver dynamic steps.yaml
  afsolver dynamic --watch -f af.af -p DC-CO -a 4`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDynamicCmd,
	}

	batchCmd = &cobra.Command{
		Use:   "batch <framework>...",
		Short: "Answer one problem on many frameworks in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatchCmd,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP session API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}

	convertCmd = &cobra.Command{
		Use:   "convert",
		Short: "Convert a framework between iccma23 and apx",
		Args:  cobra.NoArgs,
		RunE:  runConvertCmd,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the afsolver version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "afsolver %s\n", version)
		},
	}
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default $AFSOLVER_CONFIG or ~/.afsolver/afsolver.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logDir, "log-dir", "", "also write JSON logs to this directory")
	pf.StringVar(&logFormat, "log-format", "", "console log format: auto, text, json")
	pf.StringVar(&backend, "backend", "", "SAT backend: gini, gophersat, external")
	pf.StringVar(&timeout, "timeout", "", "per-query time budget, e.g. 30s")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	for _, c := range []*cobra.Command{solveCmd, dynamicCmd, batchCmd} {
		c.Flags().StringVarP(&frameworkFormat, "format", "", "", "framework format: iccma23, apx (default by extension)")
		c.Flags().StringVarP(&problem, "problem", "p", "", "problem descriptor, e.g. DC-PR")
		c.Flags().StringVarP(&argument, "argument", "a", "", "query argument for DC and DS")
		c.Flags().BoolVar(&withCertificate, "with-certificate", false, "print a witness extension for decisions")
	}
	for _, c := range []*cobra.Command{solveCmd, dynamicCmd, convertCmd} {
		c.Flags().StringVarP(&frameworkPath, "file", "f", "", "framework file")
	}
	dynamicCmd.Flags().BoolVar(&watch, "watch", false, "re-answer the problem whenever the framework file changes")
	batchCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "parallel jobs (default from config)")
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (default from config)")
	convertCmd.Flags().StringVar(&frameworkFormat, "format", "", "source format (default by extension)")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "target format: iccma23, apx")
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(solveCmd, dynamicCmd, batchCmd, serveCmd, convertCmd, versionCmd)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command afsolver answers abstract argumentation queries.
//
//	afsolver solve -f af.af -p DC-PR -a 3
//	afsolver dynamic script.yaml
//	afsolver batch -p SE-ST a.af b.af c.af
//	afsolver serve
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/afsolver/pkg/ux"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeApp()
	if err != nil {
		ux.NewPrinter(os.Stderr).Error(fmt.Sprintf("afsolver: %v", err))
	}
	os.Exit(exitCode(err))
}

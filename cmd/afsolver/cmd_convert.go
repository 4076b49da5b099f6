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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/afsolver/cmd/afsolver/config"
	"github.com/AleutianAI/afsolver/services/afsolver/af"
	"github.com/AleutianAI/afsolver/services/afsolver/format"
)

func runConvertCmd(cmd *cobra.Command, args []string) error {
	if convertTo == "" {
		return fmt.Errorf("%w: a target format is required (--to)", errUsage)
	}
	to, err := format.ParseFormat(convertTo)
	if err != nil {
		return err
	}
	fw, _, err := loadFramework(frameworkPath, frameworkFormat)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputPath != "" {
		fh, err := os.Create(config.ExpandPath(outputPath))
		if err != nil {
			return err
		}
		defer fh.Close()
		out = fh
	}
	return convert(out, fw, to)
}

// convert writes fw in format to. Frameworks whose arguments are not
// 1..n are renumbered for iccma23, with the original labels listed as
// "# <n> <label>" comment lines ahead of the header.
func convert(out io.Writer, fw *af.Framework, to format.Format) error {
	err := format.Write(io.Discard, fw, to)
	if !errors.Is(err, format.ErrUnsupportedLabels) || to != format.ICCMA23 {
		if err != nil {
			return err
		}
		return format.Write(out, fw, to)
	}

	renumbered, labels, err := format.Renumber(fw)
	if err != nil {
		return err
	}
	for _, n := range renumbered.Arguments() {
		if _, err := fmt.Fprintf(out, "# %s %s\n", n, labels[n]); err != nil {
			return err
		}
	}
	return format.Write(out, renumbered, to)
}

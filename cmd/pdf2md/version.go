// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2md/pkg/pdf2md"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of pdf2md",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pdf2md %s (facade %s)\n", version, pdf2md.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

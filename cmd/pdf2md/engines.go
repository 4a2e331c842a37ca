// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "Resolve the conversion engine and show why each candidate failed",
	Long: `Engines runs engine resolution once, exactly as a conversion would, and
prints the candidate list, the per-candidate failure reasons, and the engine
that was selected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc := newFacade(cfg).Locator()
		w := cmd.OutOrStdout()

		fmt.Fprintf(w, "candidates: %v\n", loc.Candidates())
		resolved, resolveErr := loc.Resolve(cmd.Context())

		for _, a := range loc.Attempts() {
			fmt.Fprintf(w, "  failed:   %-10s %v\n", a.Candidate, a.Err)
		}
		if resolveErr != nil {
			return fmt.Errorf("no engine available")
		}
		fmt.Fprintf(w, "  selected: %s\n", resolved.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enginesCmd)
}

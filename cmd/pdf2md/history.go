// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2md/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or export recorded conversions",
	Long: `History reads the conversion log written by "pdf2md convert" and prints
the most recent entries, or exports them as YAML or JSON. With --file it
reports the newest successful conversion of that exact document (matched by
SHA-256), wherever it was converted from.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("history.path")
	if path == "" {
		return fmt.Errorf("history is disabled (history.path is empty)")
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		return showDocument(cmd, store, file)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")
	w := cmd.OutOrStdout()

	switch format {
	case "yaml":
		return store.ExportYAML(cmd.Context(), w, limit)
	case "json":
		return store.ExportJSON(cmd.Context(), w, limit)
	case "table":
	default:
		return fmt.Errorf("unknown --format %q (want table, yaml or json)", format)
	}

	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSTATUS\tENGINE\tBYTES\tSOURCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			e.ConvertedAt.Local().Format(time.DateTime), e.Status, e.Engine, e.Bytes, e.Source)
	}
	return tw.Flush()
}

func showDocument(cmd *cobra.Command, store *history.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	e, err := store.LastBySHA256(cmd.Context(), digest)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if e == nil {
		fmt.Fprintf(w, "%s: never converted (sha256 %s)\n", path, digest)
		return nil
	}
	fmt.Fprintf(w, "%s: converted %s by %s from %s\n",
		path, e.ConvertedAt.Local().Format(time.DateTime), e.Engine, e.Source)
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 50, "maximum number of entries")
	historyCmd.Flags().String("format", "table", "output format: table, yaml, or json")
	historyCmd.Flags().String("file", "", "show the last successful conversion of this PDF")

	rootCmd.AddCommand(historyCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2md/internal/batch"
	"github.com/pdiddy/pdf2md/internal/history"
	"github.com/pdiddy/pdf2md/pkg/pdf2md"
	"github.com/pdiddy/pdf2md/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF files to Markdown",
	Long: `Convert transforms PDF files into Markdown. With file arguments it writes
one <name>.md per input into --out-dir, with YAML frontmatter, skipping inputs
whose Markdown already exists unless --force is given.

With --stdin it reads one document from standard input (raw bytes, or base64
text with --base64) and writes the Markdown to standard output.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	facade := newFacade(cfg)

	pairs, _ := cmd.Flags().GetStringSlice("option")
	opts, err := parseOptions(pairs)
	if err != nil {
		return err
	}

	if useStdin, _ := cmd.Flags().GetBool("stdin"); useStdin {
		return convertStdin(cmd, facade, opts)
	}
	if len(args) == 0 {
		return fmt.Errorf("no input files (pass PDF paths or --stdin)")
	}

	outDir, _ := cmd.Flags().GetString("out-dir")
	jobs, _ := cmd.Flags().GetInt("jobs")
	force, _ := cmd.Flags().GetBool("force")

	bopts := batch.Options{OutDir: outDir, Jobs: jobs, Force: force, Conversion: opts}

	if path := viper.GetString("history.path"); path != "" {
		store, err := history.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		bopts.Recorder = store
	}

	result := batch.Run(cmd.Context(), facade, args, bopts, cmd.OutOrStdout())
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed conversion", result.Failed)
	}
	return nil
}

// parseOptions turns repeated key=value flags into conversion options.
func parseOptions(pairs []string) (types.ConversionOptions, error) {
	opts := types.ConversionOptions{}
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --option %q, want key=value", kv)
		}
		opts[k] = v
	}
	return opts, nil
}

func convertStdin(cmd *cobra.Command, facade *pdf2md.Facade, opts types.ConversionOptions) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	var input any = pdf2md.Buffer(data)
	if asBase64, _ := cmd.Flags().GetBool("base64"); asBase64 {
		input = pdf2md.Base64(strings.TrimRight(string(data), "\r\n"))
		opts[types.OptionIsBase64] = true
	}
	if len(data) == 0 {
		input = nil
	}

	res, err := facade.ConvertDetailed(cmd.Context(), input, opts)
	if err != nil {
		return err
	}
	if res.Degraded {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no engine available, output is a placeholder")
	}
	_, err = io.WriteString(cmd.OutOrStdout(), res.Markdown)
	return err
}

func init() {
	convertCmd.Flags().String("out-dir", "markdown", "directory for converted Markdown files")
	convertCmd.Flags().Int("jobs", 2, "maximum concurrent conversions")
	convertCmd.Flags().Bool("force", false, "re-convert even when Markdown output exists")
	convertCmd.Flags().Bool("stdin", false, "read one document from stdin and write Markdown to stdout")
	convertCmd.Flags().Bool("base64", false, "treat stdin as base64 text")
	convertCmd.Flags().StringSlice("option", nil, "engine option as key=value (repeatable)")

	rootCmd.AddCommand(convertCmd)
}

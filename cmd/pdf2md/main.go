// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf2md CLI: batch conversion,
// engine diagnostics, conversion history and an HTTP endpoint, all on top
// of the conversion facade.
package main

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2md/internal/secrets"
	"github.com/pdiddy/pdf2md/pkg/pdf2md"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials read from the secrets directory at startup.
var loadedSecrets map[string]string

// logger is configured from --log-level before any command runs.
var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

// rootCmd is the base command for the pdf2md CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf2md",
	Short: "Convert PDF documents to Markdown through a resilient engine facade",
	Long: `pdf2md converts PDF documents to Markdown. It locates a working
conversion engine from an ordered list of candidates (a markitdown container,
the pdftotext binary, a remote pdf2md service, or the built-in text-layer
extractor) and uses the first one that loads for the rest of the run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if err := level.UnmarshalText([]byte(viper.GetString("log_level"))); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		s, err := secrets.Load(viper.GetString("secrets_dir"), logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", "keys", slices.Sorted(maps.Keys(s)))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf2md.yaml or ~/.config/pdf2md/pdf2md.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringSlice("engines", nil, "engine candidates in resolution order (default: markitdown,pdftotext,builtin)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "bound on each engine call (0 = none)")
	rootCmd.PersistentFlags().Bool("fallback", false, "emit a flagged placeholder document when no engine loads")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("facade.engine.candidates", rootCmd.PersistentFlags().Lookup("engines"))
	_ = viper.BindPFlag("facade.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("facade.fallback", rootCmd.PersistentFlags().Lookup("fallback"))

	setDefaults(types.DefaultConfig())
}

// setDefaults registers every default so env vars and config files can
// override any key.
func setDefaults(cfg types.Config) {
	viper.SetDefault("facade.engine.candidates", cfg.Facade.Engine.Candidates)
	viper.SetDefault("facade.engine.markitdown_image", cfg.Facade.Engine.MarkitdownImage)
	viper.SetDefault("facade.engine.pdftotext_bin", cfg.Facade.Engine.PdftotextBin)
	viper.SetDefault("facade.engine.remote_url", cfg.Facade.Engine.RemoteURL)
	viper.SetDefault("facade.engine.remote_timeout", cfg.Facade.Engine.RemoteTimeout)
	viper.SetDefault("facade.engine.remote_token", cfg.Facade.Engine.RemoteToken)
	viper.SetDefault("facade.timeout", cfg.Facade.Timeout)
	viper.SetDefault("facade.max_input_bytes", cfg.Facade.MaxInputBytes)
	viper.SetDefault("facade.fallback", cfg.Facade.Fallback)
	viper.SetDefault("server.addr", cfg.Server.Addr)
	viper.SetDefault("server.cors_origins", cfg.Server.CORSOrigins)
	viper.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	viper.SetDefault("server.token", cfg.Server.Token)
	viper.SetDefault("history.path", cfg.History.Path)
	viper.SetDefault("secrets_dir", cfg.SecretsDir)
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf2md")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf2md"))
		}
	}

	viper.SetEnvPrefix("PDF2MD")
	// facade.engine.remote_url -> PDF2MD_FACADE_ENGINE_REMOTE_URL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged flag, env, file and default settings.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.Facade.Engine.RemoteToken = secrets.Default(loadedSecrets, secrets.RemoteToken, cfg.Facade.Engine.RemoteToken)
	cfg.Server.Token = secrets.Default(loadedSecrets, secrets.ServerToken, cfg.Server.Token)
	return cfg, nil
}

// newFacade builds a facade from the current configuration.
func newFacade(cfg types.Config) *pdf2md.Facade {
	return pdf2md.NewFromConfig(cfg.Facade, pdf2md.WithLogger(logger))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

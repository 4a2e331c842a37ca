// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Engine candidate names understood by the engine registry.
const (
	EngineMarkitdown = "markitdown"
	EnginePdftotext  = "pdftotext"
	EngineRemote     = "remote"
	EngineBuiltin    = "builtin"
)

// EngineConfig holds settings for locating and running conversion engines.
type EngineConfig struct {
	// Candidates lists engine names in resolution order. The first one that
	// loads is used for the life of the process.
	Candidates []string `json:"candidates" yaml:"candidates" mapstructure:"candidates"`

	// MarkitdownImage is the container image used by the markitdown engine.
	MarkitdownImage string `json:"markitdown_image" yaml:"markitdown_image" mapstructure:"markitdown_image"`

	// PdftotextBin is the binary name or path used by the pdftotext engine.
	PdftotextBin string `json:"pdftotext_bin" yaml:"pdftotext_bin" mapstructure:"pdftotext_bin"`

	// RemoteURL is the base URL of a remote conversion service (e.g.
	// "http://localhost:8080"). Empty disables the remote engine.
	RemoteURL string `json:"remote_url,omitempty" yaml:"remote_url,omitempty" mapstructure:"remote_url"`

	// RemoteTimeout bounds each HTTP request made by the remote engine.
	RemoteTimeout time.Duration `json:"remote_timeout" yaml:"remote_timeout" mapstructure:"remote_timeout"`

	// RemoteToken is sent as a bearer token to the remote service.
	RemoteToken string `json:"-" yaml:"-" mapstructure:"remote_token"`
}

// FacadeConfig holds settings for the conversion facade.
type FacadeConfig struct {
	Engine EngineConfig `json:"engine" yaml:"engine" mapstructure:"engine"`

	// Timeout bounds each delegated engine call. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxInputBytes rejects inputs larger than this many bytes. Zero means
	// unlimited.
	MaxInputBytes int64 `json:"max_input_bytes" yaml:"max_input_bytes" mapstructure:"max_input_bytes"`

	// Fallback enables the degraded placeholder document when no engine
	// resolves. Only reported through detailed results, flagged as degraded.
	Fallback bool `json:"fallback" yaml:"fallback" mapstructure:"fallback"`
}

// ServerConfig holds settings for the HTTP conversion endpoint.
type ServerConfig struct {
	Addr        string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	CORSOrigins []string      `json:"cors_origins" yaml:"cors_origins" mapstructure:"cors_origins"`
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`

	// Token, when set, is required as a bearer token on POST /convert.
	Token string `json:"-" yaml:"-" mapstructure:"token"`
}

// HistoryConfig holds settings for the conversion history store.
type HistoryConfig struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups every setting read by the CLI.
type Config struct {
	Facade  FacadeConfig  `json:"facade" yaml:"facade" mapstructure:"facade"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`

	// SecretsDir holds credential files (see internal/secrets).
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`
}

// DefaultFacadeConfig returns the facade settings used when nothing is
// configured: the markitdown container first, then pdftotext, then the
// in-process extractor.
func DefaultFacadeConfig() FacadeConfig {
	return FacadeConfig{
		Engine: EngineConfig{
			Candidates:      []string{EngineMarkitdown, EnginePdftotext, EngineBuiltin},
			MarkitdownImage: "markitdown:latest",
			PdftotextBin:    "pdftotext",
			RemoteTimeout:   60 * time.Second,
		},
	}
}

// DefaultConfig returns the CLI defaults.
func DefaultConfig() Config {
	return Config{
		Facade: DefaultFacadeConfig(),
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
			ReadTimeout: 30 * time.Second,
		},
		History: HistoryConfig{
			Path: "pdf2md-history.db",
		},
		SecretsDir: ".secrets/",
	}
}

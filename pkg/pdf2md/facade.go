// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdf2md is the single entry point for converting PDF documents to
// Markdown. It accepts several binary input representations, normalises them
// to one canonical buffer, locates a working conversion engine from an
// ordered list of candidates, and maps every failure onto a typed error.
package pdf2md

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pdiddy/pdf2md/internal/engines"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// Version identifies this facade for diagnostics and display.
const Version = "0.3.0"

// Result is the detailed outcome of a conversion.
type Result struct {
	// Markdown is the engine output, unmodified.
	Markdown string

	// Engine names the candidate that produced Markdown.
	Engine string

	// Bytes is the length of the canonical buffer that was converted.
	Bytes int

	// Degraded is true when Markdown is the placeholder document produced
	// because no engine could be resolved. It never holds converted text.
	Degraded bool
}

// Facade converts documents through a lazily resolved engine.
type Facade struct {
	locator  *Locator
	logger   *slog.Logger
	timeout  time.Duration
	maxBytes int64
	fallback bool
}

// Option configures a Facade.
type Option func(*Facade)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Facade) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithTimeout bounds every delegated engine call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Facade) { f.timeout = d }
}

// WithMaxInputBytes rejects inputs larger than n bytes. Zero disables the
// check.
func WithMaxInputBytes(n int64) Option {
	return func(f *Facade) { f.maxBytes = n }
}

// WithFallback enables the degraded placeholder document in ConvertDetailed
// when no engine resolves.
func WithFallback(enabled bool) Option {
	return func(f *Facade) { f.fallback = enabled }
}

// New returns a Facade that delegates to the engine resolved by locator.
func New(locator *Locator, opts ...Option) *Facade {
	f := &Facade{
		locator: locator,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFromConfig builds the candidate list named in cfg and returns a Facade
// over it.
func NewFromConfig(cfg types.FacadeConfig, opts ...Option) *Facade {
	base := []Option{
		WithTimeout(cfg.Timeout),
		WithMaxInputBytes(cfg.MaxInputBytes),
		WithFallback(cfg.Fallback),
	}
	f := New(nil, append(base, opts...)...)
	f.locator = NewLocator(Candidates(cfg.Engine), WithLocatorLogger(f.logger))
	return f
}

// Candidates returns the engine candidates named in cfg, in order.
func Candidates(cfg types.EngineConfig) []Candidate {
	out := make([]Candidate, 0, len(cfg.Candidates))
	for _, name := range cfg.Candidates {
		load := engines.Lookup(name, cfg)
		out = append(out, Candidate{Name: name, Load: LoadFunc(load)})
	}
	return out
}

var defaultFacade = sync.OnceValue(func() *Facade {
	return NewFromConfig(types.DefaultFacadeConfig())
})

// Default returns the process-wide Facade built from the default
// configuration. It is created on first call and never replaced.
func Default() *Facade {
	return defaultFacade()
}

// Version returns the facade version string.
func (f *Facade) Version() string { return Version }

// Locator returns the locator backing f.
func (f *Facade) Locator() *Locator { return f.locator }

// Ready resolves the engine if needed and returns EngineUnavailableError
// when no candidate loaded. The degraded fallback does not count as ready.
func (f *Facade) Ready(ctx context.Context) error {
	_, err := f.resolve(ctx)
	return err
}

// Convert normalises input, delegates to the resolved engine and returns its
// text unchanged.
func (f *Facade) Convert(ctx context.Context, input any, opts types.ConversionOptions) (string, error) {
	res, err := f.convert(ctx, input, opts, false)
	if err != nil {
		return "", err
	}
	return res.Markdown, nil
}

// ConvertDetailed is Convert with the engine name and, when the facade was
// built with WithFallback, a degraded placeholder instead of
// EngineUnavailableError.
func (f *Facade) ConvertDetailed(ctx context.Context, input any, opts types.ConversionOptions) (Result, error) {
	return f.convert(ctx, input, opts, f.fallback)
}

// FileToBuffer reads fh to completion and returns its canonical buffer.
func (f *Facade) FileToBuffer(ctx context.Context, fh FileHandle) (Buffer, error) {
	if isNil(fh) {
		return nil, &MissingInputError{}
	}
	return normalize(ctx, fh, f.maxBytes)
}

func (f *Facade) convert(ctx context.Context, input any, opts types.ConversionOptions, allowDegraded bool) (Result, error) {
	buf, err := normalize(ctx, input, f.maxBytes)
	if err != nil {
		return Result{}, err
	}

	resolved, err := f.resolve(ctx)
	if err != nil {
		var failure *EngineUnavailableError
		if allowDegraded && errors.As(err, &failure) {
			f.logger.Warn("no engine available, returning placeholder", "bytes", len(buf))
			return Result{
				Markdown: placeholder(len(buf), opts),
				Bytes:    len(buf),
				Degraded: true,
			}, nil
		}
		return Result{}, err
	}

	opts = opts.Clone().WithDefault(types.OptionVersion, Version)

	text, err := f.delegate(ctx, resolved, buf, opts)
	if err != nil {
		f.logger.Error("conversion failed", "engine", resolved.Name, "bytes", len(buf), "error", err)
		return Result{}, &ConversionFailedError{Engine: resolved.Name, Err: err}
	}

	f.logger.Debug("conversion done", "engine", resolved.Name, "bytes", len(buf))
	return Result{Markdown: text, Engine: resolved.Name, Bytes: len(buf)}, nil
}

func (f *Facade) resolve(ctx context.Context) (*ResolvedEngine, error) {
	if f.locator == nil {
		return nil, &EngineUnavailableError{Failure: &ResolutionFailure{}}
	}
	resolved, err := f.locator.Resolve(ctx)
	if err != nil {
		var failure *ResolutionFailure
		if errors.As(err, &failure) {
			return nil, &EngineUnavailableError{Failure: failure}
		}
		return nil, err
	}
	return resolved, nil
}

// delegate runs the engine call on its own goroutine. When ctx ends first,
// the caller gets ctx.Err() and the engine call is left to finish on its own.
func (f *Facade) delegate(ctx context.Context, r *ResolvedEngine, buf Buffer, opts types.ConversionOptions) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- result{err: &enginePanic{value: p}}
			}
		}()
		text, err := r.Engine.Convert(ctx, buf, opts)
		ch <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.text, res.err
	}
}

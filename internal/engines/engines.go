// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engines provides the conversion engine candidates the facade can
// resolve: a markitdown container, the pdftotext binary, a remote pdf2md
// service and an in-process text-layer extractor.
//
// Every candidate is exposed as a Loader. Loading checks that the engine is
// actually usable (binary on PATH, image present, service healthy) and
// returns the engine value; it never converts anything.
package engines

import (
	"context"
	"fmt"

	"github.com/pdiddy/pdf2md/internal/container"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// Loader loads one engine. The returned value is either a value with a
// Convert(ctx, []byte, types.ConversionOptions) (string, error) method or a
// function with that signature.
type Loader func(ctx context.Context) (any, error)

// ConvertFunc is the bare-function engine shape.
type ConvertFunc = func(ctx context.Context, buf []byte, opts types.ConversionOptions) (string, error)

// Names lists the engine names Lookup understands.
func Names() []string {
	return []string{types.EngineMarkitdown, types.EnginePdftotext, types.EngineRemote, types.EngineBuiltin}
}

// Lookup returns the loader for the named engine. Unknown names yield a
// loader that always fails, so a bad entry shows up in resolution
// diagnostics next to the other candidates.
func Lookup(name string, cfg types.EngineConfig) Loader {
	return lookup(name, cfg, container.OSExecutor{})
}

func lookup(name string, cfg types.EngineConfig, exec container.Executor) Loader {
	switch name {
	case types.EngineMarkitdown:
		return func(ctx context.Context) (any, error) {
			return loadMarkitdown(ctx, exec, cfg.MarkitdownImage)
		}
	case types.EnginePdftotext:
		return func(context.Context) (any, error) {
			return loadPdftotext(exec, cfg.PdftotextBin)
		}
	case types.EngineRemote:
		return func(ctx context.Context) (any, error) {
			return loadRemote(ctx, cfg, nil)
		}
	case types.EngineBuiltin:
		return func(context.Context) (any, error) {
			return ConvertFunc(convertBuiltin), nil
		}
	default:
		return func(context.Context) (any, error) {
			return nil, fmt.Errorf("unknown engine %q (known: %v)", name, Names())
		}
	}
}

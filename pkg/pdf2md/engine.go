// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf2md

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// Engine converts a complete PDF image into Markdown text. It is the single
// call signature every loaded engine is normalised to.
type Engine interface {
	Convert(ctx context.Context, buf []byte, opts types.ConversionOptions) (string, error)
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, buf []byte, opts types.ConversionOptions) (string, error)

// Convert calls f.
func (f EngineFunc) Convert(ctx context.Context, buf []byte, opts types.ConversionOptions) (string, error) {
	return f(ctx, buf, opts)
}

var errNoConvertFunc = errors.New("no valid conversion function found")

// asEngine normalises a loaded value to Engine. Loaders may hand back either
// an object with a Convert method or a bare conversion function; anything
// else is rejected here so the facade never branches on shape per call.
func asEngine(v any) (Engine, error) {
	switch e := v.(type) {
	case nil:
		return nil, errNoConvertFunc
	case EngineFunc:
		if e == nil {
			return nil, errNoConvertFunc
		}
		return e, nil
	case func(context.Context, []byte, types.ConversionOptions) (string, error):
		if e == nil {
			return nil, errNoConvertFunc
		}
		return EngineFunc(e), nil
	case Engine:
		return e, nil
	default:
		return nil, fmt.Errorf("%w: loaded value of type %T", errNoConvertFunc, v)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf2md

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// recordingEngine captures every buffer and option record it is given.
type recordingEngine struct {
	mu      sync.Mutex
	text    string
	err     error
	buffers [][]byte
	opts    []types.ConversionOptions
}

func (r *recordingEngine) Convert(_ context.Context, buf []byte, opts types.ConversionOptions) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers = append(r.buffers, bytes.Clone(buf))
	r.opts = append(r.opts, opts)
	return r.text, r.err
}

func facadeWith(engine any, opts ...Option) *Facade {
	loc := NewLocator([]Candidate{{Name: "stub", Load: func(context.Context) (any, error) { return engine, nil }}})
	return New(loc, opts...)
}

func TestConvert_ReturnsEngineTextUnchanged(t *testing.T) {
	f := facadeWith(stubEngine{text: "# Title"})
	out, err := f.Convert(context.Background(), Buffer(samplePDF), nil)
	require.NoError(t, err)
	assert.Equal(t, "# Title", out)

	f = facadeWith(stubEngine{text: "\n  # Title  \n\n"})
	out, err = f.Convert(context.Background(), Buffer(samplePDF), nil)
	require.NoError(t, err)
	assert.Equal(t, "\n  # Title  \n\n", out)
}

func TestConvert_SameBytesForEveryVariant(t *testing.T) {
	eng := &recordingEngine{text: "ok"}
	f := facadeWith(eng)
	encoded := base64.StdEncoding.EncodeToString(samplePDF)

	inputs := []any{
		Buffer(bytes.Clone(samplePDF)),
		bytes.Clone(samplePDF),
		encoded,
		Base64(encoded),
		&memFile{name: "a.pdf", data: bytes.Clone(samplePDF)},
		uploadedFile(t, "a.pdf", samplePDF),
	}
	for _, in := range inputs {
		_, err := f.Convert(context.Background(), in, nil)
		require.NoError(t, err, "input %T", in)
	}

	require.Len(t, eng.buffers, len(inputs))
	for i, buf := range eng.buffers {
		assert.Equal(t, samplePDF, buf, "input %T", inputs[i])
	}
}

func TestConvert_MissingInputSkipsResolution(t *testing.T) {
	var loads int32
	loc := NewLocator([]Candidate{{Name: "stub", Load: func(context.Context) (any, error) {
		atomic.AddInt32(&loads, 1)
		return stubEngine{text: "x"}, nil
	}}})
	f := New(loc)

	_, err := f.Convert(context.Background(), nil, nil)
	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, int32(0), atomic.LoadInt32(&loads))
	assert.False(t, loc.Resolved())
}

func TestConvert_InvalidBase64(t *testing.T) {
	f := facadeWith(stubEngine{text: "x"})
	_, err := f.Convert(context.Background(), "not-valid-base64!!", types.ConversionOptions{types.OptionIsBase64: true})
	var invalid *InvalidEncodingError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "InvalidEncodingError", Kind(err))
}

func TestConvert_EngineUnavailableCarriesDiagnostics(t *testing.T) {
	loc := NewLocator([]Candidate{
		{Name: "A", Load: func(context.Context) (any, error) { return nil, errors.New("A-cause") }},
		{Name: "B", Load: func(context.Context) (any, error) { return nil, errors.New("B-cause") }},
	})
	f := New(loc)

	_, err := f.Convert(context.Background(), Buffer(samplePDF), nil)
	var unavailable *EngineUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Len(t, unavailable.Failure.Attempts, 2)
	assert.Equal(t, "A", unavailable.Failure.Attempts[0].Candidate)
	assert.Equal(t, "B", unavailable.Failure.Attempts[1].Candidate)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
	assert.ErrorIs(t, err, ErrResolution)
	assert.Equal(t, "EngineUnavailableError", Kind(err))

	// Every later call fails identically.
	_, err2 := f.Convert(context.Background(), Buffer(samplePDF), nil)
	assert.Equal(t, err.Error(), err2.Error())
}

func TestConvert_ConversionFailedPreservesCause(t *testing.T) {
	cause := fmt.Errorf("page 3: %w", errors.New("xref table corrupt"))
	f := facadeWith(stubEngine{err: cause})

	_, err := f.Convert(context.Background(), Buffer(samplePDF), nil)
	var failed *ConversionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "stub", failed.Engine)
	assert.Same(t, cause, failed.Err)
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.Contains(t, err.Error(), "page 3: xref table corrupt")
}

func TestConvert_FunctionShapedEngine(t *testing.T) {
	fn := func(_ context.Context, buf []byte, _ types.ConversionOptions) (string, error) {
		return fmt.Sprintf("%d bytes", len(buf)), nil
	}
	for name, engine := range map[string]any{"func": fn, "EngineFunc": EngineFunc(fn)} {
		t.Run(name, func(t *testing.T) {
			out, err := facadeWith(engine).Convert(context.Background(), []byte("abcd"), nil)
			require.NoError(t, err)
			assert.Equal(t, "4 bytes", out)
		})
	}
}

func TestConvert_OptionsPassThroughWithDefaults(t *testing.T) {
	eng := &recordingEngine{text: "ok"}
	f := facadeWith(eng)

	caller := types.ConversionOptions{"pages": "1-3", "isBase64": false}
	_, err := f.Convert(context.Background(), []byte("x"), caller)
	require.NoError(t, err)

	_, err = f.Convert(context.Background(), []byte("x"), types.ConversionOptions{"version": "custom"})
	require.NoError(t, err)

	_, err = f.Convert(context.Background(), []byte("x"), nil)
	require.NoError(t, err)

	assert.Equal(t, types.ConversionOptions{"pages": "1-3", "isBase64": false, "version": Version}, eng.opts[0])
	assert.Equal(t, types.ConversionOptions{"version": "custom"}, eng.opts[1])
	assert.Equal(t, types.ConversionOptions{"version": Version}, eng.opts[2])
	assert.NotContains(t, caller, "version", "caller options must not be mutated")
}

func TestConvert_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := EngineFunc(func(context.Context, []byte, types.ConversionOptions) (string, error) {
		<-release
		return "late", nil
	})
	f := facadeWith(slow, WithTimeout(20*time.Millisecond))

	_, err := f.Convert(context.Background(), []byte("x"), nil)
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConvert_EnginePanicBecomesConversionFailure(t *testing.T) {
	f := facadeWith(EngineFunc(func(context.Context, []byte, types.ConversionOptions) (string, error) {
		panic("nil font table")
	}))
	_, err := f.Convert(context.Background(), []byte("x"), nil)
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.Contains(t, err.Error(), "nil font table")
}

func TestConvert_ConcurrentCallsOwnTheirBuffers(t *testing.T) {
	var loads int32
	loc := NewLocator([]Candidate{{Name: "echo", Load: func(context.Context) (any, error) {
		atomic.AddInt32(&loads, 1)
		return EngineFunc(func(_ context.Context, buf []byte, _ types.ConversionOptions) (string, error) {
			return string(buf), nil
		}), nil
	}}})
	f := New(loc)

	const n = 50
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			want := fmt.Sprintf("doc-%02d", i)
			got, err := f.Convert(context.Background(), []byte(want), nil)
			if err == nil && got != want {
				err = fmt.Errorf("got %q, want %q", got, want)
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestConvertDetailed(t *testing.T) {
	failing := func() *Locator {
		return NewLocator([]Candidate{{Name: "A", Load: func(context.Context) (any, error) {
			return nil, errors.New("missing")
		}}})
	}

	t.Run("reports engine name", func(t *testing.T) {
		res, err := facadeWith(stubEngine{text: "# T"}).ConvertDetailed(context.Background(), []byte("abc"), nil)
		require.NoError(t, err)
		assert.Equal(t, Result{Markdown: "# T", Engine: "stub", Bytes: 3}, res)
	})

	t.Run("degraded placeholder only with fallback", func(t *testing.T) {
		f := New(failing(), WithFallback(true))
		res, err := f.ConvertDetailed(context.Background(), make([]byte, 2048), nil)
		require.NoError(t, err)
		assert.True(t, res.Degraded)
		assert.Empty(t, res.Engine)
		assert.Contains(t, res.Markdown, "**File Size:** 2 KB")
		assert.Contains(t, res.Markdown, "Basic fallback mode")

		_, err = f.Convert(context.Background(), make([]byte, 2048), nil)
		assert.ErrorIs(t, err, ErrEngineUnavailable, "Convert never returns the placeholder")
	})

	t.Run("no placeholder without fallback", func(t *testing.T) {
		_, err := New(failing()).ConvertDetailed(context.Background(), []byte("abc"), nil)
		assert.ErrorIs(t, err, ErrEngineUnavailable)
	})

	t.Run("input errors are never degraded", func(t *testing.T) {
		_, err := New(failing(), WithFallback(true)).ConvertDetailed(context.Background(), nil, nil)
		assert.ErrorIs(t, err, ErrMissingInput)
	})
}

func TestReady(t *testing.T) {
	require.NoError(t, facadeWith(stubEngine{text: "# T"}).Ready(context.Background()))

	loc := NewLocator([]Candidate{{Name: "A", Load: func(context.Context) (any, error) {
		return nil, errors.New("missing")
	}}})
	err := New(loc, WithFallback(true)).Ready(context.Background())
	assert.ErrorIs(t, err, ErrEngineUnavailable, "fallback mode is not ready")

	assert.ErrorIs(t, New(nil).Ready(context.Background()), ErrEngineUnavailable)
}

func TestFileToBuffer(t *testing.T) {
	f := facadeWith(stubEngine{text: "x"})

	data := bytes.Repeat([]byte{0x25, 0x00, 0xff, 0x7f}, 4096)
	buf, err := f.FileToBuffer(context.Background(), &memFile{name: "n.pdf", data: data})
	require.NoError(t, err)
	assert.Len(t, buf, len(data))
	assert.Equal(t, data, []byte(buf))

	_, err = f.FileToBuffer(context.Background(), &memFile{name: "bad.pdf", readErr: errors.New("disk gone")})
	var fre *FileReadError
	require.ErrorAs(t, err, &fre)
	assert.Contains(t, err.Error(), "disk gone")

	_, err = f.FileToBuffer(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingInput)

	assert.False(t, f.Locator().Resolved(), "FileToBuffer never resolves an engine")
}

func TestFacade_MaxInputBytes(t *testing.T) {
	f := facadeWith(stubEngine{text: "x"}, WithMaxInputBytes(3))
	_, err := f.Convert(context.Background(), []byte("abcd"), nil)
	assert.ErrorIs(t, err, ErrInputTooLarge)
	assert.Equal(t, "InputTooLargeError", Kind(err))
}

func TestNewFromConfig_UsesNamedCandidates(t *testing.T) {
	cfg := types.FacadeConfig{Engine: types.EngineConfig{Candidates: []string{"nope", types.EngineBuiltin}}}
	f := NewFromConfig(cfg)
	assert.Equal(t, []string{"nope", "builtin"}, f.Locator().Candidates())

	r, err := f.Locator().Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "builtin", r.Name)

	attempts := f.Locator().Attempts()
	require.Len(t, attempts, 1)
	assert.Contains(t, attempts[0].Err.Error(), `unknown engine "nope"`)
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
	assert.Equal(t, Version, Default().Version())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "MissingInputError", Kind(&MissingInputError{}))
	assert.Equal(t, "UnsupportedInputFormat", Kind(&UnsupportedInputFormatError{Type: "int"}))
	assert.Equal(t, "FileReadError", Kind(&FileReadError{Err: errors.New("x")}))
	assert.Equal(t, "ResolutionFailure", Kind(&ResolutionFailure{}))
	assert.Equal(t, "ConversionFailedError", Kind(&ConversionFailedError{Err: errors.New("x")}))
	assert.Equal(t, "Error", Kind(errors.New("other")))
}

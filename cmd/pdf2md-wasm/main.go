// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build js && wasm

// Command pdf2md-wasm exposes the conversion facade to JavaScript as
// globalThis.pdf2md with promise-returning convert and fileToBuffer calls.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"syscall/js"

	"github.com/pdiddy/pdf2md/pkg/pdf2md"
	"github.com/pdiddy/pdf2md/pkg/types"
)

func main() {
	facade := pdf2md.Default()

	api := js.Global().Get("Object").New()
	api.Set("version", pdf2md.Version)
	api.Set("convert", js.FuncOf(func(this js.Value, args []js.Value) any {
		return promise(func(ctx context.Context) (any, error) {
			input, err := goInput(arg(args, 0))
			if err != nil {
				return nil, err
			}
			return facade.Convert(ctx, input, goOptions(arg(args, 1)))
		})
	}))
	api.Set("fileToBuffer", js.FuncOf(func(this js.Value, args []js.Value) any {
		return promise(func(ctx context.Context) (any, error) {
			v := arg(args, 0)
			var fh pdf2md.FileHandle
			switch {
			case isBlob(v):
				fh = blobFile{v: v}
			case !v.IsNull() && !v.IsUndefined():
				return nil, &pdf2md.UnsupportedInputFormatError{Type: v.Type().String()}
			}
			buf, err := facade.FileToBuffer(ctx, fh)
			if err != nil {
				return nil, err
			}
			out := js.Global().Get("Uint8Array").New(len(buf))
			js.CopyBytesToJS(out, buf)
			return out, nil
		})
	}))
	js.Global().Set("pdf2md", api)

	select {}
}

func arg(args []js.Value, i int) js.Value {
	if i < len(args) {
		return args[i]
	}
	return js.Undefined()
}

// promise runs fn on its own goroutine and settles a JS Promise with the
// result. Rejections carry the error kind as the Error name.
func promise(fn func(ctx context.Context) (any, error)) js.Value {
	var handler js.Func
	handler = js.FuncOf(func(this js.Value, args []js.Value) any {
		resolve, reject := args[0], args[1]
		go func() {
			defer handler.Release()
			v, err := fn(context.Background())
			if err != nil {
				e := js.Global().Get("Error").New(err.Error())
				e.Set("name", pdf2md.Kind(err))
				reject.Invoke(e)
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	return js.Global().Get("Promise").New(handler)
}

// goInput maps a JS value onto one of the facade's input variants. Other
// values fail with UnsupportedInputFormatError naming the JS type.
func goInput(v js.Value) (any, error) {
	switch {
	case v.IsNull() || v.IsUndefined():
		return nil, nil
	case v.Type() == js.TypeString:
		return pdf2md.Base64(v.String()), nil
	case v.InstanceOf(js.Global().Get("Uint8Array")):
		buf := make([]byte, v.Get("length").Int())
		js.CopyBytesToGo(buf, v)
		return pdf2md.Buffer(buf), nil
	case v.InstanceOf(js.Global().Get("ArrayBuffer")):
		u8 := js.Global().Get("Uint8Array").New(v)
		buf := make([]byte, u8.Get("length").Int())
		js.CopyBytesToGo(buf, u8)
		return pdf2md.Buffer(buf), nil
	case isBlob(v):
		return blobFile{v: v}, nil
	}
	return nil, &pdf2md.UnsupportedInputFormatError{Type: v.Type().String()}
}

func isBlob(v js.Value) bool {
	blob := js.Global().Get("Blob")
	return v.Type() == js.TypeObject && !blob.IsUndefined() && v.InstanceOf(blob)
}

// goOptions copies the own enumerable properties of a JS object.
func goOptions(v js.Value) types.ConversionOptions {
	if v.Type() != js.TypeObject || v.IsNull() {
		return nil
	}
	keys := js.Global().Get("Object").Call("keys", v)
	opts := make(types.ConversionOptions, keys.Length())
	for i := 0; i < keys.Length(); i++ {
		k := keys.Index(i).String()
		opts[k] = goValue(v.Get(k))
	}
	return opts
}

func goValue(v js.Value) any {
	switch v.Type() {
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeNumber:
		return v.Float()
	case js.TypeString:
		return v.String()
	case js.TypeNull, js.TypeUndefined:
		return nil
	}
	return v.String()
}

// blobFile is a FileHandle over a JS Blob or File.
type blobFile struct {
	v js.Value
}

func (b blobFile) Name() string {
	if name := b.v.Get("name"); name.Type() == js.TypeString {
		return name.String()
	}
	return "blob"
}

func (b blobFile) Size() int64 {
	return int64(b.v.Get("size").Int())
}

func (b blobFile) Open(ctx context.Context) (io.ReadCloser, error) {
	data, err := await(ctx, b.v.Call("arrayBuffer"))
	if err != nil {
		return nil, err
	}
	u8 := js.Global().Get("Uint8Array").New(data)
	buf := make([]byte, u8.Get("length").Int())
	js.CopyBytesToGo(buf, u8)
	return io.NopCloser(bytes.NewReader(buf)), nil
}

// await blocks the calling goroutine until p settles.
func await(ctx context.Context, p js.Value) (js.Value, error) {
	type settled struct {
		v   js.Value
		err error
	}
	ch := make(chan settled, 1)

	var onOK, onErr js.Func
	onOK = js.FuncOf(func(this js.Value, args []js.Value) any {
		ch <- settled{v: arg(args, 0)}
		return nil
	})
	onErr = js.FuncOf(func(this js.Value, args []js.Value) any {
		ch <- settled{err: fmt.Errorf("%s", js.Global().Get("String").Invoke(arg(args, 0)).String())}
		return nil
	})
	p.Call("then", onOK, onErr)

	select {
	case <-ctx.Done():
		// The callbacks stay alive; the promise may still settle.
		return js.Undefined(), ctx.Err()
	case s := <-ch:
		onOK.Release()
		onErr.Release()
		return s.v, s.err
	}
}

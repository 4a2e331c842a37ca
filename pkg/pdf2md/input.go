// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf2md

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"reflect"
)

// Buffer is the canonical byte image of a document. Every engine call
// receives a Buffer owned by that call alone.
type Buffer []byte

// Base64 is base64 text in the standard alphabet. Plain strings are treated
// the same way.
type Base64 string

// FileHandle is a readable file whose whole content is loaded before any
// conversion starts.
type FileHandle interface {
	// Name identifies the file in errors and logs.
	Name() string

	// Size returns the file length in bytes, or -1 when unknown.
	Size() int64

	// Open returns a reader over the complete file content.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// multipartFile adapts an uploaded form file to FileHandle.
type multipartFile struct {
	h *multipart.FileHeader
}

func (m multipartFile) Name() string { return m.h.Filename }
func (m multipartFile) Size() int64  { return m.h.Size }

func (m multipartFile) Open(context.Context) (io.ReadCloser, error) {
	return m.h.Open()
}

// MultipartFile returns a FileHandle over an uploaded form file.
func MultipartFile(h *multipart.FileHeader) FileHandle {
	return multipartFile{h: h}
}

// osFile is a FileHandle backed by a path on disk.
type osFile struct {
	path string
}

// OSFile returns a FileHandle that reads the file at path.
func OSFile(path string) FileHandle {
	return osFile{path: path}
}

func (f osFile) Name() string { return f.path }

func (f osFile) Size() int64 {
	fi, err := os.Stat(f.path)
	if err != nil {
		return -1
	}
	return fi.Size()
}

func (f osFile) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

// normalize converts any recognised input variant into a Buffer the caller
// owns. maxBytes of zero disables the size check.
func normalize(ctx context.Context, input any, maxBytes int64) (Buffer, error) {
	if isNil(input) {
		return nil, &MissingInputError{}
	}

	var (
		buf Buffer
		err error
	)
	switch v := input.(type) {
	case Buffer:
		buf = v
	case []byte:
		buf = bytes.Clone(v)
		if buf == nil {
			buf = Buffer{}
		}
	case Base64:
		buf, err = decodeBase64(string(v))
	case string:
		buf, err = decodeBase64(v)
	case *multipart.FileHeader:
		buf, err = readFile(ctx, MultipartFile(v), maxBytes)
	case FileHandle:
		buf, err = readFile(ctx, v, maxBytes)
	default:
		return nil, &UnsupportedInputFormatError{Type: fmt.Sprintf("%T", input)}
	}
	if err != nil {
		return nil, err
	}

	if maxBytes > 0 && int64(len(buf)) > maxBytes {
		return nil, &InputTooLargeError{Size: int64(len(buf)), Limit: maxBytes}
	}
	return buf, nil
}

// isNil reports whether v is nil or a nil pointer, slice or interface value
// of one of the recognised variants.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	case reflect.Slice:
		// An empty, non-nil slice is a real (if empty) document.
		return rv.IsNil()
	}
	return false
}

func decodeBase64(s string) (Buffer, error) {
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &InvalidEncodingError{Err: err}
	}
	return out, nil
}

// readFile loads a file handle to completion. The read runs on its own
// goroutine so a stuck handle cannot hold the caller past ctx.
func readFile(ctx context.Context, fh FileHandle, maxBytes int64) (Buffer, error) {
	if size := fh.Size(); maxBytes > 0 && size > maxBytes {
		return nil, &InputTooLargeError{Size: size, Limit: maxBytes}
	}

	type result struct {
		buf Buffer
		err error
	}
	ch := make(chan result, 1)

	go func() {
		rc, err := fh.Open(ctx)
		if err != nil {
			ch <- result{err: err}
			return
		}
		defer rc.Close()

		var r io.Reader = rc
		if maxBytes > 0 {
			r = io.LimitReader(rc, maxBytes+1)
		}
		data, err := io.ReadAll(r)
		ch <- result{buf: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &FileReadError{Name: fh.Name(), Err: ctx.Err()}
	case res := <-ch:
		if res.err != nil {
			return nil, &FileReadError{Name: fh.Name(), Err: res.err}
		}
		if res.buf == nil {
			res.buf = Buffer{}
		}
		return res.buf, nil
	}
}

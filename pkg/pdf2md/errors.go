// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf2md

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// Sentinel error kinds. Every typed error below matches exactly one of these
// through errors.Is, so callers can branch on the kind without errors.As.
var (
	ErrMissingInput      = errors.New("missing input")
	ErrUnsupportedInput  = errors.New("unsupported input format")
	ErrInvalidEncoding   = errors.New("invalid encoding")
	ErrFileRead          = errors.New("file read failed")
	ErrInputTooLarge     = errors.New("input too large")
	ErrResolution        = errors.New("engine resolution failed")
	ErrEngineUnavailable = errors.New("engine unavailable")
	ErrConversionFailed  = errors.New("conversion failed")
)

// MissingInputError reports a nil or absent input.
type MissingInputError struct{}

func (e *MissingInputError) Error() string        { return "pdf2md: input is required" }
func (e *MissingInputError) Is(target error) bool { return target == ErrMissingInput }

// UnsupportedInputFormatError reports an input that is none of the
// recognised binary representations.
type UnsupportedInputFormatError struct {
	// Type is the Go type of the received value.
	Type string
}

func (e *UnsupportedInputFormatError) Error() string {
	return fmt.Sprintf("pdf2md: unsupported input format %s", e.Type)
}

func (e *UnsupportedInputFormatError) Is(target error) bool { return target == ErrUnsupportedInput }

// InvalidEncodingError reports malformed base64 text. No partial buffer is
// ever returned alongside it.
type InvalidEncodingError struct {
	Err error
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("pdf2md: invalid base64 input: %v", e.Err)
}

func (e *InvalidEncodingError) Unwrap() error        { return e.Err }
func (e *InvalidEncodingError) Is(target error) bool { return target == ErrInvalidEncoding }

// FileReadError reports a failure opening or reading a file handle.
type FileReadError struct {
	Name string
	Err  error
}

func (e *FileReadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("pdf2md: reading file: %v", e.Err)
	}
	return fmt.Sprintf("pdf2md: reading file %s: %v", e.Name, e.Err)
}

func (e *FileReadError) Unwrap() error        { return e.Err }
func (e *FileReadError) Is(target error) bool { return target == ErrFileRead }

// InputTooLargeError reports an input over the configured size limit.
type InputTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *InputTooLargeError) Error() string {
	return fmt.Sprintf("pdf2md: input of %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

func (e *InputTooLargeError) Is(target error) bool { return target == ErrInputTooLarge }

// Attempt records the outcome of loading one engine candidate.
type Attempt struct {
	Candidate string
	Err       error
}

// ResolutionFailure reports that no engine candidate could be loaded. It
// carries one Attempt per candidate, in candidate order.
type ResolutionFailure struct {
	Attempts []Attempt
}

func (e *ResolutionFailure) Error() string {
	if len(e.Attempts) == 0 {
		return "pdf2md: no engine candidates configured"
	}
	var b strings.Builder
	b.WriteString("pdf2md: no engine could be loaded")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Candidate, a.Err)
	}
	return b.String()
}

// Unwrap exposes every per-candidate cause.
func (e *ResolutionFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

func (e *ResolutionFailure) Is(target error) bool { return target == ErrResolution }

// EngineUnavailableError is returned by the facade when resolution failed.
type EngineUnavailableError struct {
	Failure *ResolutionFailure
}

func (e *EngineUnavailableError) Error() string {
	return fmt.Sprintf("pdf2md: engine unavailable: %v", e.Failure)
}

func (e *EngineUnavailableError) Unwrap() error {
	if e.Failure == nil {
		return nil
	}
	return e.Failure
}

func (e *EngineUnavailableError) Is(target error) bool { return target == ErrEngineUnavailable }

// ConversionFailedError wraps an error returned by the delegated engine.
// The original error is kept intact and reachable through Unwrap.
type ConversionFailedError struct {
	Engine string
	Err    error
}

func (e *ConversionFailedError) Error() string {
	return fmt.Sprintf("pdf2md: conversion with %s failed: %v", e.Engine, e.Err)
}

func (e *ConversionFailedError) Unwrap() error        { return e.Err }
func (e *ConversionFailedError) Is(target error) bool { return target == ErrConversionFailed }

// Kind returns a short name for the error kind of err, suitable for
// cross-language bindings and HTTP responses. It returns "Error" for errors
// outside the taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMissingInput):
		return "MissingInputError"
	case errors.Is(err, ErrUnsupportedInput):
		return "UnsupportedInputFormat"
	case errors.Is(err, ErrInvalidEncoding):
		return "InvalidEncodingError"
	case errors.Is(err, ErrFileRead):
		return "FileReadError"
	case errors.Is(err, ErrInputTooLarge):
		return "InputTooLargeError"
	case errors.Is(err, ErrEngineUnavailable):
		return types.KindEngineUnavailable
	case errors.Is(err, ErrResolution):
		return "ResolutionFailure"
	case errors.Is(err, ErrConversionFailed):
		return "ConversionFailedError"
	default:
		return "Error"
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"maps"
	"strconv"
)

// Well-known option keys. Engines may accept any other key; the facade
// forwards the record without stripping or renaming fields.
const (
	// OptionVersion carries the facade version tag. Injected when absent.
	OptionVersion = "version"

	// OptionIsBase64 hints that a string input is base64 text. String inputs
	// are always decoded as base64; the key is forwarded untouched.
	OptionIsBase64 = "isBase64"
)

// ConversionOptions is the open configuration record passed through to the
// conversion engine.
type ConversionOptions map[string]any

// Clone returns a shallow copy of o. A nil receiver yields an empty,
// non-nil record.
func (o ConversionOptions) Clone() ConversionOptions {
	out := make(ConversionOptions, len(o)+1)
	maps.Copy(out, o)
	return out
}

// WithDefault sets key to value only when key is absent and returns o.
func (o ConversionOptions) WithDefault(key string, value any) ConversionOptions {
	if _, ok := o[key]; !ok {
		o[key] = value
	}
	return o
}

// String returns the option value for key as a string, or "" when the key is
// absent or not a string.
func (o ConversionOptions) String(key string) string {
	s, _ := o[key].(string)
	return s
}

// Bool returns the option value for key as a bool. String values such as
// "false" or "1" (from query parameters and CLI flags) are parsed; absent or
// unparseable values yield def.
func (o ConversionOptions) Bool(key string, def bool) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionStatus indicates the outcome of converting one document.
type ConversionStatus string

const (
	ConversionNone     ConversionStatus = "skipped"
	ConversionDone     ConversionStatus = "converted"
	ConversionDegraded ConversionStatus = "degraded"
	ConversionFailed   ConversionStatus = "failed"
)

// Document describes one source document and its conversion outcome.
type Document struct {
	// Source is the path or name the document was read from.
	Source string `json:"source" yaml:"source"`

	// SHA256 is the hex digest of the canonical buffer.
	SHA256 string `json:"sha256" yaml:"sha256"`

	// Bytes is the canonical buffer length.
	Bytes int `json:"bytes" yaml:"bytes"`

	// Engine names the engine candidate that produced the Markdown.
	Engine string `json:"engine,omitempty" yaml:"engine,omitempty"`

	// Status is the conversion outcome.
	Status ConversionStatus `json:"status" yaml:"status"`

	// Error holds the failure message when Status is ConversionFailed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// ConvertedAt is when the conversion finished.
	ConvertedAt time.Time `json:"converted_at" yaml:"converted_at"`
}

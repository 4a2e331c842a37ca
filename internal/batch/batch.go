// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch converts PDF files on disk to Markdown files with YAML
// frontmatter, skipping documents that were already converted.
package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdf2md/pkg/pdf2md"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// Converter is the part of the facade batch needs.
type Converter interface {
	FileToBuffer(ctx context.Context, fh pdf2md.FileHandle) (pdf2md.Buffer, error)
	ConvertDetailed(ctx context.Context, input any, opts types.ConversionOptions) (pdf2md.Result, error)
}

// Recorder receives the outcome of every document in a batch.
type Recorder interface {
	Record(ctx context.Context, doc types.Document) error
}

// Options controls a batch run.
type Options struct {
	// OutDir receives one <base>.md per input.
	OutDir string

	// Jobs bounds concurrent conversions. Values below 1 mean 1.
	Jobs int

	// Force re-converts documents whose Markdown already exists.
	Force bool

	// Conversion is passed to every engine call.
	Conversion types.ConversionOptions

	// Recorder, when set, is told about every document.
	Recorder Recorder
}

// Result holds the outcome of a batch conversion run.
type Result struct {
	Converted int
	Degraded  int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r Result) Total() int {
	return r.Converted + r.Degraded + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// frontmatter is the YAML header written above converted Markdown.
type frontmatter struct {
	Source      string `yaml:"source"`
	Engine      string `yaml:"engine,omitempty"`
	Bytes       int    `yaml:"bytes"`
	SHA256      string `yaml:"sha256"`
	Degraded    bool   `yaml:"degraded,omitempty"`
	ConvertedAt string `yaml:"converted_at"`
}

// File converts a single PDF to Markdown, writing the result to OutDir.
// If the Markdown output already exists and Force is unset, it skips
// conversion and returns ConversionNone.
func File(ctx context.Context, c Converter, path string, opts Options, w io.Writer) types.Document {
	doc := convertFile(ctx, c, path, opts)
	report(w, doc)
	if opts.Recorder != nil && doc.Status != types.ConversionNone {
		if err := opts.Recorder.Record(ctx, doc); err != nil {
			fmt.Fprintf(w, "warning: recording %s: %v\n", doc.Source, err)
		}
	}
	return doc
}

func convertFile(ctx context.Context, c Converter, path string, opts Options) types.Document {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	mdPath := filepath.Join(opts.OutDir, base+".md")
	doc := types.Document{Source: path, Status: types.ConversionFailed}

	if !opts.Force {
		if _, err := os.Stat(mdPath); err == nil {
			doc.Status = types.ConversionNone
			return doc
		}
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		doc.Error = err.Error()
		return doc
	}

	buf, err := c.FileToBuffer(ctx, pdf2md.OSFile(path))
	if err != nil {
		doc.Error = err.Error()
		return doc
	}
	sum := sha256.Sum256(buf)
	doc.SHA256 = hex.EncodeToString(sum[:])
	doc.Bytes = len(buf)

	res, err := c.ConvertDetailed(ctx, buf, opts.Conversion)
	if err != nil {
		doc.Error = err.Error()
		return doc
	}
	doc.Engine = res.Engine
	doc.ConvertedAt = time.Now().UTC()

	content, err := addFrontmatter(doc, res)
	if err != nil {
		doc.Error = err.Error()
		return doc
	}

	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		doc.Error = err.Error()
		return doc
	}

	doc.Status = types.ConversionDone
	if res.Degraded {
		doc.Status = types.ConversionDegraded
	}
	return doc
}

func report(w io.Writer, doc types.Document) {
	name := filepath.Base(doc.Source)
	switch doc.Status {
	case types.ConversionNone:
		fmt.Fprintf(w, "skipped:   %s (already exists)\n", name)
	case types.ConversionFailed:
		fmt.Fprintf(w, "failed:    %s (%s)\n", name, doc.Error)
	case types.ConversionDegraded:
		fmt.Fprintf(w, "degraded:  %s (placeholder, no engine)\n", name)
	default:
		fmt.Fprintf(w, "converted: %s [%s]\n", name, doc.Engine)
	}
}

// Run processes paths through the converter with up to opts.Jobs
// conversions in flight, printing per-file status to w and returning a
// summary.
func Run(ctx context.Context, c Converter, paths []string, opts Options, w io.Writer) Result {
	var (
		mu     sync.Mutex
		result Result
	)
	sw := &syncWriter{w: w}

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, p := range paths {
		g.Go(func() error {
			doc := File(gctx, c, p, opts, sw)

			mu.Lock()
			defer mu.Unlock()
			switch doc.Status {
			case types.ConversionDone:
				result.Converted++
			case types.ConversionDegraded:
				result.Degraded++
			case types.ConversionNone:
				result.Skipped++
			case types.ConversionFailed:
				result.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d degraded, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Degraded, result.Skipped, result.Failed, result.Total())
	return result
}

// addFrontmatter prepends YAML frontmatter to the converted Markdown content.
func addFrontmatter(doc types.Document, res pdf2md.Result) (string, error) {
	fm := frontmatter{
		Source:      doc.Source,
		Engine:      res.Engine,
		Bytes:       doc.Bytes,
		SHA256:      doc.SHA256,
		Degraded:    res.Degraded,
		ConvertedAt: doc.ConvertedAt.Format(time.RFC3339),
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(res.Markdown)
	return b.String(), nil
}

// syncWriter serialises status lines from concurrent conversions.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

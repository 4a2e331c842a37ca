// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engines

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdiddy/pdf2md/internal/container"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// PdftotextEngine runs poppler's pdftotext, reading the PDF from stdin and
// writing UTF-8 text to stdout.
type PdftotextEngine struct {
	bin  string
	exec container.Executor
}

func loadPdftotext(exec container.Executor, bin string) (*PdftotextEngine, error) {
	if bin == "" {
		bin = "pdftotext"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%s not on PATH: %w", bin, err)
	}
	return &PdftotextEngine{bin: path, exec: exec}, nil
}

// Convert runs pdftotext over buf. The "layout" option, when false,
// switches off layout preservation.
func (p *PdftotextEngine) Convert(ctx context.Context, buf []byte, opts types.ConversionOptions) (string, error) {
	args := []string{"-enc", "UTF-8"}
	if opts.Bool("layout", true) {
		args = append(args, "-layout")
	}
	args = append(args, "-", "-")

	var out bytes.Buffer
	if err := p.exec.RunPiped(ctx, p.bin, args, bytes.NewReader(buf), &out); err != nil {
		return "", fmt.Errorf("running %s: %w", p.bin, err)
	}
	return out.String(), nil
}

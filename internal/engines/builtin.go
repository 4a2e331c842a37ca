// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// pageSeparator joins the text of consecutive pages.
const pageSeparator = "\n\n---\n\n"

var errNoText = errors.New("no extractable text layer")

// convertBuiltin extracts the embedded text layer of buf page by page.
// Scanned (image-only) PDFs have no text layer and fail with errNoText.
func convertBuiltin(ctx context.Context, buf []byte, _ types.ConversionOptions) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parsing pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	fonts := make(map[string]*pdf.Font)
	var parts []string

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}

		pageText, err := p.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i, err)
		}
		if trimmed := strings.TrimSpace(pageText); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	if len(parts) == 0 {
		return "", errNoText
	}
	return strings.Join(parts, pageSeparator), nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engines

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdiddy/pdf2md/internal/container"
	"github.com/pdiddy/pdf2md/pkg/types"
)

const defaultMarkitdownImage = "markitdown:latest"

// MarkitdownEngine converts PDFs by piping them through the markitdown
// container image. It depends on a container.Runtime (docker or podman)
// detected at load time.
type MarkitdownEngine struct {
	runtime container.Runtime
	image   string
}

// loadMarkitdown detects a container runtime and verifies that the image
// exists locally before returning the engine.
func loadMarkitdown(ctx context.Context, exec container.Executor, image string) (*MarkitdownEngine, error) {
	if image == "" {
		image = defaultMarkitdownImage
	}
	rt, err := container.DetectRuntime(ctx, exec)
	if err != nil {
		return nil, err
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownEngine{runtime: rt, image: image}, nil
}

// Convert pipes buf through the markitdown container and returns the
// resulting Markdown text.
func (m *MarkitdownEngine) Convert(ctx context.Context, buf []byte, _ types.ConversionOptions) (string, error) {
	var out bytes.Buffer
	if err := m.runtime.Run(ctx, m.image, bytes.NewReader(buf), &out); err != nil {
		return "", fmt.Errorf("converting with markitdown: %w", err)
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("markitdown produced empty output for %d byte document", len(buf))
	}

	return out.String(), nil
}

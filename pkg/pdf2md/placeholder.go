// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf2md

import (
	"fmt"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// placeholder renders the degraded document returned by ConvertDetailed when
// no engine could be resolved. It is derived from the buffer size only.
func placeholder(size int, opts types.ConversionOptions) string {
	version := opts.String(types.OptionVersion)
	if version == "" {
		version = Version
	}
	sizeKB := (size + 512) / 1024

	return fmt.Sprintf(`# PDF Document

**File Size:** %d KB  
**Conversion:** Basic fallback mode

## Content
No conversion engine could be loaded, so no text was extracted.
Configure at least one working engine to get full text extraction.

---
*Converted with pdf2md v%s*`, sizeKB, version)
}

// enginePanic is reported when an engine panics during conversion.
type enginePanic struct {
	value any
}

func (e *enginePanic) Error() string {
	return fmt.Sprintf("engine panicked: %v", e.value)
}

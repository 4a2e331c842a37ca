// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Response headers shared by the HTTP server and the remote engine.
const (
	// HeaderEngine names the engine that produced the Markdown.
	HeaderEngine = "X-Pdf2md-Engine"

	// HeaderDegraded is "true" when the body is the placeholder document.
	HeaderDegraded = "X-Pdf2md-Degraded"

	// HeaderErrorKind carries the error kind of a failed request.
	HeaderErrorKind = "X-Pdf2md-Error-Kind"
)

// KindEngineUnavailable is the error kind reported when a server has no
// working engine. Retrying the same server cannot succeed.
const KindEngineUnavailable = "EngineUnavailableError"

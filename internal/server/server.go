// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the conversion facade over HTTP. A running server
// also satisfies the remote engine contract, so one pdf2md instance can
// delegate to another.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/cors"

	"github.com/pdiddy/pdf2md/pkg/pdf2md"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// maxMemory is the multipart form size kept in memory before spilling to
// temporary files.
const maxMemory = 32 << 20

// envelopeBytes is the allowance on top of the document limit for multipart
// headers and JSON framing.
const envelopeBytes = 64 << 10

// Converter is the part of the facade the server needs.
type Converter interface {
	ConvertDetailed(ctx context.Context, input any, opts types.ConversionOptions) (pdf2md.Result, error)
	Ready(ctx context.Context) error
	Version() string
}

// jsonRequest is the JSON body accepted by POST /convert.
type jsonRequest struct {
	Data    string                  `json:"data"`
	Options types.ConversionOptions `json:"options"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Handler serves the conversion endpoints.
type Handler struct {
	conv   Converter
	logger   *slog.Logger
	token    string
	maxBytes int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithToken requires "Authorization: Bearer <token>" on POST /convert.
// An empty token leaves the endpoint open.
func WithToken(token string) Option {
	return func(h *Handler) { h.token = token }
}

// WithMaxBodyBytes rejects POST /convert bodies whose document exceeds n
// bytes with 413 before the body is read in full. Zero disables the limit.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) { h.maxBytes = n }
}

// New returns the HTTP handler for conv wrapped in CORS handling for the
// given origins.
func New(conv Converter, origins []string, logger *slog.Logger, opts ...Option) http.Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Handler{conv: conv, logger: logger}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /version", h.version)
	mux.HandleFunc("POST /convert", h.authorized(h.convert))

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders: []string{types.HeaderEngine, types.HeaderDegraded, types.HeaderErrorKind},
	})
	return c.Handler(mux)
}

func (h *Handler) authorized(next http.HandlerFunc) http.HandlerFunc {
	if h.token == "" {
		return next
	}
	want := []byte("Bearer " + h.token)
	return func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid bearer token")
			return
		}
		next(w, r)
	}
}

// health reports 503 until an engine has resolved, so a client using this
// server as its remote engine moves on to its next candidate.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.conv.Ready(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, pdf2md.Kind(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok\n")
}

func (h *Handler) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.conv.Version()})
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		limit := h.bodyLimit(r)
		if r.ContentLength > limit {
			writeError(w, http.StatusRequestEntityTooLarge, "InputTooLargeError",
				fmt.Sprintf("request body of %d bytes exceeds limit of %d", r.ContentLength, limit))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	input, opts, err := decodeRequest(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "InputTooLargeError",
				fmt.Sprintf("request body exceeds limit of %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	res, err := h.conv.ConvertDetailed(r.Context(), input, opts)
	if err != nil {
		status := statusFor(err)
		h.logger.Warn("conversion request failed", "status", status, "kind", pdf2md.Kind(err), "error", err)
		writeError(w, status, pdf2md.Kind(err), err.Error())
		return
	}

	if res.Engine != "" {
		w.Header().Set(types.HeaderEngine, res.Engine)
	}
	w.Header().Set(types.HeaderDegraded, strconv.FormatBool(res.Degraded))
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, res.Markdown)
}

// bodyLimit is the byte limit for the whole request body. Base64 text in
// JSON is a third larger than the document it carries.
func (h *Handler) bodyLimit(r *http.Request) int64 {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		return (h.maxBytes+2)/3*4 + envelopeBytes
	case "multipart/form-data":
		return h.maxBytes + envelopeBytes
	default:
		return h.maxBytes
	}
}

// decodeRequest maps the three accepted request shapes onto facade input
// variants: a raw body, a multipart upload, or JSON carrying base64 text.
// Query parameters become string options.
func decodeRequest(r *http.Request) (any, types.ConversionOptions, error) {
	opts := types.ConversionOptions{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			opts[k] = v[0]
		}
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, nil, err
		}
		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			return nil, opts, nil
		}
		return files[0], opts, nil

	case "application/json":
		var req jsonRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, err
		}
		for k, v := range req.Options {
			opts[k] = v
		}
		if req.Data == "" {
			return nil, opts, nil
		}
		return pdf2md.Base64(req.Data), opts, nil

	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, nil, err
		}
		if len(body) == 0 {
			return nil, opts, nil
		}
		return pdf2md.Buffer(body), opts, nil
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pdf2md.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, pdf2md.ErrConversionFailed):
		return http.StatusBadGateway
	case errors.Is(err, pdf2md.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pdf2md.ErrMissingInput),
		errors.Is(err, pdf2md.ErrUnsupportedInput),
		errors.Is(err, pdf2md.ErrInvalidEncoding),
		errors.Is(err, pdf2md.ErrFileRead):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set(types.HeaderErrorKind, kind)
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/pdf2md/internal/httputil"
	"github.com/pdiddy/pdf2md/pkg/types"
)

const (
	healthPath  = "/health"
	convertPath = "/convert"

	// maxErrorBody caps how much of an error response is quoted back.
	maxErrorBody = 4 << 10
)

// RemoteError is a failed response from a remote pdf2md service. Kind is
// the error kind the service reported, when it sent one.
type RemoteError struct {
	Status  int
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("remote %s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// remoteError reads a failed response. JSON bodies of the form
// {"error", "kind"} are unpacked; anything else is quoted as text.
func remoteError(resp *http.Response) *RemoteError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	e := &RemoteError{
		Status:  resp.StatusCode,
		Kind:    resp.Header.Get(types.HeaderErrorKind),
		Message: strings.TrimSpace(string(raw)),
	}
	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		e.Message = body.Error
		if e.Kind == "" {
			e.Kind = body.Kind
		}
	}
	return e
}

// engineUnavailable marks a 503 that means the service has no engine, as
// opposed to being busy.
func engineUnavailable(resp *http.Response) bool {
	return resp.Header.Get(types.HeaderErrorKind) == types.KindEngineUnavailable
}

// RemoteEngine posts PDFs to a pdf2md-compatible HTTP service.
type RemoteEngine struct {
	base   *url.URL
	client *http.Client
	token  string
}

// loadRemote checks that the service at cfg.RemoteURL answers its health
// endpoint.
func loadRemote(ctx context.Context, cfg types.EngineConfig, client *http.Client) (*RemoteEngine, error) {
	rawURL := cfg.RemoteURL
	if rawURL == "" {
		return nil, fmt.Errorf("remote engine not configured: remote_url is empty")
	}
	base, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing remote_url %q: %w", rawURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote_url %q must be http or https", rawURL)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.RemoteTimeout}
	}

	r := &RemoteEngine{base: base, client: client, token: cfg.RemoteToken}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint(healthPath, nil), nil)
	if err != nil {
		return nil, fmt.Errorf("building health request: %w", err)
	}
	r.authorize(req)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote health check: %w", remoteError(resp))
	}
	io.Copy(io.Discard, resp.Body)
	return r, nil
}

func (r *RemoteEngine) authorize(req *http.Request) {
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
}

func (r *RemoteEngine) endpoint(path string, q url.Values) string {
	u := *r.base
	u.Path = r.base.Path + path
	u.RawQuery = q.Encode()
	return u.String()
}

// Convert posts buf to the remote convert endpoint. Options travel as query
// parameters.
func (r *RemoteEngine) Convert(ctx context.Context, buf []byte, opts types.ConversionOptions) (string, error) {
	q := url.Values{}
	for k, v := range opts {
		q.Set(k, fmt.Sprint(v))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint(convertPath, q), bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("building convert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "text/markdown")
	r.authorize(req)

	resp, err := httputil.DoWithRetry(ctx, r.client, req, httputil.Policy{Permanent: engineUnavailable})
	if err != nil {
		return "", fmt.Errorf("posting to %s: %w", r.base.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("remote conversion: %w", remoteError(resp))
	}
	// A placeholder is not a conversion.
	if resp.Header.Get(types.HeaderDegraded) == "true" {
		return "", fmt.Errorf("remote conversion: %s returned a degraded placeholder", r.base.Host)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading remote response: %w", err)
	}
	return string(body), nil
}

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spiffcs/gitextract/internal/constants"
	"github.com/spiffcs/gitextract/internal/log"
	"github.com/spiffcs/gitextract/internal/target"
)

// NewHTTPClient returns a client with connection pooling and a fixed
// per-request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 20
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// requester issues one-shot JSON requests for a single engine.
type requester struct {
	engine target.Engine
	client *http.Client
}

func (r requester) get(ctx context.Context, rawURL string) (any, error) {
	return r.do(ctx, http.MethodGet, rawURL, nil)
}

func (r requester) post(ctx context.Context, rawURL string, body any) (any, error) {
	return r.do(ctx, http.MethodPost, rawURL, body)
}

func (r requester) do(ctx context.Context, method, rawURL string, body any) (any, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %w", r.engine, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", r.engine, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constants.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug("provider request", "engine", r.engine, "method", method, "url", rawURL)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", r.engine, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", r.engine, err)
	}
	if len(data) > constants.MaxResponseBytes {
		return nil, fmt.Errorf("%s response from %s exceeds %d bytes", r.engine, rawURL, constants.MaxResponseBytes)
	}

	log.Trace("provider response", "engine", r.engine, "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{Engine: r.engine, Status: resp.StatusCode, Body: clip(data)}
	}

	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s response from %s: %w", r.engine, rawURL, err)
	}
	return v, nil
}

// decodeJSON decodes a single JSON value, keeping numbers as json.Number.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// dig walks nested JSON objects by key. It returns nil as soon as a key is
// missing or a value is not an object.
func dig(v any, keys ...string) any {
	for _, k := range keys {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = obj[k]
	}
	return v
}

// listOrEmpty returns v when it is a JSON array and an empty array otherwise.
func listOrEmpty(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{}
}

func clip(body []byte) string {
	if len(body) > constants.MaxErrorBodyBytes {
		return string(body[:constants.MaxErrorBodyBytes]) + "...(truncated)"
	}
	return string(body)
}

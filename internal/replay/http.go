package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pitchtag/internal/domain/model"
)

// ErrStatus reports an unexpected HTTP status from the server.
var ErrStatus = errors.New("unexpected status")

// HTTPClient wraps http.Client with the server's base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a request and returns the body when the status is want.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, want int, headers ...string) ([]byte, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != want {
		return nil, fmt.Errorf("%w: %s %s: %d %s", ErrStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}

func (c *HTTPClient) checkHealth(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK)
	return err
}

func (c *HTTPClient) createSession(ctx context.Context) (sessionView, error) {
	var s sessionView
	data, err := c.do(ctx, http.MethodPost, "/sessions", nil, http.StatusCreated)
	if err != nil {
		return s, err
	}
	return s, json.Unmarshal(data, &s)
}

func (c *HTTPClient) deleteSession(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, http.StatusNoContent)
	return err
}

func (c *HTTPClient) patchForm(ctx context.Context, id string, p model.FormPatch) error {
	_, err := c.do(ctx, http.MethodPatch, "/sessions/"+id+"/form", p, http.StatusOK)
	return err
}

func (c *HTTPClient) addPoint(ctx context.Context, id string, p model.DrawnPoint) error {
	_, err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/points", p, http.StatusOK)
	return err
}

func (c *HTTPClient) addLine(ctx context.Context, id string, l model.DrawnLine) error {
	_, err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/lines", l, http.StatusOK)
	return err
}

// commit posts a commit under a fresh idempotency key and, when retry is set,
// repeats it with the same key to exercise duplicate detection.
func (c *HTTPClient) commit(ctx context.Context, id string, retry bool) (first, second commitView, err error) {
	key := uuid.NewString()
	path := "/sessions/" + id + "/commit"

	data, err := c.do(ctx, http.MethodPost, path, nil, http.StatusOK, "Idempotency-Key", key)
	if err != nil {
		return first, second, err
	}
	if err := json.Unmarshal(data, &first); err != nil {
		return first, second, err
	}
	if !retry {
		return first, second, nil
	}

	data, err = c.do(ctx, http.MethodPost, path, nil, http.StatusOK, "Idempotency-Key", key)
	if err != nil {
		return first, second, err
	}
	return first, second, json.Unmarshal(data, &second)
}

// export downloads the CSV and the filename the server suggests.
func (c *HTTPClient) export(ctx context.Context, id string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sessions/"+id+"/export", http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, "", nil
	case http.StatusOK:
	default:
		return nil, "", fmt.Errorf("%w: export: %d", ErrStatus, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read export: %w", err)
	}
	return data, attachmentName(resp.Header.Get("Content-Disposition")), nil
}

// attachmentName extracts the filename of a Content-Disposition header.
func attachmentName(cd string) string {
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// Package gateway talks to the grading backend over HTTP.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	pkgerrors "gradedesk/pkg/errors"
	"gradedesk/pkg/utils/logger"

	"go.uber.org/zap"
)

const maxErrorBodySnippet = 256

// ResponseInfo carries response details.
type ResponseInfo struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Client is the grading backend client. It never retries or caches.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL. A zero timeout leaves requests bounded
// only by the caller's context.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient lets callers supply their own transport.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends one request and reads the full response body.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (ResponseInfo, error) {
	var info ResponseInfo

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return info, pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "build request failed: %v", err)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	info.Duration = time.Since(start)
	if err != nil {
		if isTimeout(ctx, err) {
			return info, pkgerrors.Wrapf(err, pkgerrors.Timeout, "request timed out: %v", err)
		}
		return info, pkgerrors.Wrapf(err, pkgerrors.BackendUnreachable, "request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	info.StatusCode = resp.StatusCode
	info.Headers = resp.Header
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return info, pkgerrors.Wrapf(err, pkgerrors.BackendUnreachable, "read response body failed: %v", err)
	}
	info.Body = bodyBytes

	logger.Debug(ctx, "backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", info.StatusCode),
		zap.Duration("duration", info.Duration),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return info, statusError(method, path, info)
	}
	return info, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// errorBody is the JSON shape the backend uses to reject a request.
type errorBody struct {
	Error string `json:"error"`
}

// statusError reports a non-2xx answer. The backend's own reason, when the
// body carries one, becomes the error message.
func statusError(method, path string, info ResponseInfo) error {
	snippet := strings.TrimSpace(string(info.Body))
	if len(snippet) > maxErrorBodySnippet {
		snippet = snippet[:maxErrorBodySnippet]
	}
	err := pkgerrors.Newf(pkgerrors.BackendStatus, "%s %s: HTTP %d", method, path, info.StatusCode).
		WithDetail("status", info.StatusCode).
		WithDetail("body", snippet)

	var body errorBody
	if json.Unmarshal(info.Body, &body) == nil && strings.TrimSpace(body.Error) != "" {
		return err.WithMessage(body.Error).WithDetail("request", method+" "+path)
	}
	return err
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(path, resp.Body, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "marshal request failed: %v", err)
		}
		body = data
	}
	resp, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return decode(path, resp.Body, out)
}

func decode(path string, body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.ResponseDecodeFailed, "decode %s response failed: %v", path, err).
			WithDetail("path", path)
	}
	return nil
}

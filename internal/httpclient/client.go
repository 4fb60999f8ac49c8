package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	ierr "github.com/billforge/billforge/internal/errors"
)

// Request represents an outbound HTTP request
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Client interface for making HTTP requests
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// DefaultClient implements the Client interface
type DefaultClient struct {
	client *http.Client
}

// NewDefaultClient creates a new DefaultClient
func NewDefaultClient() Client {
	return &DefaultClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send makes an HTTP request and returns the response
func (c *DefaultClient) Send(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrHTTPClient)
	}

	if req.Body != nil {
		httpReq.ContentLength = int64(len(req.Body))
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("The endpoint could not be reached").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read the response body").
			Mark(ierr.ErrHTTPClient)
	}

	headers := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	if resp.StatusCode >= 400 {
		return nil, ierr.NewError("endpoint returned an error status").
			WithHintf("endpoint returned status %d", resp.StatusCode).
			WithReportableDetails(map[string]any{
				"status_code": resp.StatusCode,
				"response":    string(respBody),
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    headers,
	}, nil
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// HttpClient is the transport under BookingClient: one base URL, JSON
// bodies, buffered responses.
type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// Response buffers the body so callers can decode it more than once.
type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// ToString renders the status code and body for failure messages.
func (r *Response) ToString() string {
	return fmt.Sprintf("status=%d body=%s", r.StatusCode, string(r.Body))
}

func (c *HttpClient) GET(path string) (*Response, error) {
	return c.do(http.MethodGet, path, nil, nil)
}

func (c *HttpClient) DELETE(path string) (*Response, error) {
	return c.do(http.MethodDelete, path, nil, nil)
}

func (c *HttpClient) POST(path string, body any) (*Response, error) {
	return c.POSTWithHeaders(path, body, nil)
}

func (c *HttpClient) POSTWithHeaders(path string, body any, headers map[string]string) (*Response, error) {
	var encoded []byte
	if body != nil {
		var err error
		if encoded, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}
	return c.do(http.MethodPost, path, encoded, headers)
}

// POSTRaw sends the bytes untouched. Tests use it to push bodies the typed
// payload helpers cannot express.
func (c *HttpClient) POSTRaw(path string, rawBody []byte) (*Response, error) {
	return c.do(http.MethodPost, path, rawBody, nil)
}

func (c *HttpClient) do(method, path string, body []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	buffered, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{Response: resp, Body: buffered}, nil
}

// WaitForHealthy polls the health endpoint until it answers 200 or maxWait
// elapses.
func (c *HttpClient) WaitForHealthy(maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		resp, err := c.HTTPClient.Get(c.BaseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("service did not become healthy within %v", maxWait)
}

// Package gemini is a thin HTTP client for the three remote generative
// model operations the restoration pipeline needs: describing media,
// synthesizing a still image from text, and generating a video from a
// seed image. The wire protocol belongs to the remote service; nothing
// here implements model logic.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DescribeModel = "gemini-2.5-flash"
	ImageModel    = "imagen-3.0-generate-002"
	VideoModel    = "veo-2.0-generate-001"
)

type Client struct {
	BaseURL string
	APIKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// RemoteError is an error object reported by the remote service. Its
// message is surfaced to the user verbatim.
type RemoteError struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote error %d %s", e.Code, e.Status)
}

// IsCredentialError reports whether err is the remote layer's way of
// saying the caller's access credential is invalid or expired.
func IsCredentialError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "entity was not found")
}

// post sends a JSON body to path and decodes the response into out.
// Remote error objects come back as *RemoteError.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var wrapper struct {
			Error *RemoteError `json:"error"`
		}
		if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Error != nil {
			return wrapper.Error
		}
		return fmt.Errorf("remote status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return json.Unmarshal(data, out)
}

// ResultURL appends the access credential to a result URI so the file
// behind it can actually be retrieved.
func (c *Client) ResultURL(uri string) string {
	if uri == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "key=" + url.QueryEscape(c.APIKey)
}

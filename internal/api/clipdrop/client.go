// Package clipdrop provides an HTTP client for the Clipdrop text-to-image
// API. The service has two integration variants: a JSON response carrying an
// image URL, and a raw response carrying the image bytes. Callers pick one;
// the two are never combined.
package clipdrop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oneiriclabs/reverie/internal/domain"
)

const defaultBaseURL = "https://clipdrop-api.co"

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is a custom HTTP client for the Clipdrop API. Authentication is an
// x-api-key header rather than a bearer token.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Clipdrop API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerationParams are the optional knobs forwarded to the service.
type GenerationParams struct {
	Style          string `json:"style,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	Steps          int    `json:"steps,omitempty"`
	GuidanceScale  int    `json:"guidance_scale,omitempty"`
}

type urlRequest struct {
	Prompt string `json:"prompt"`
	GenerationParams
}

type urlResponse struct {
	ImageURL string `json:"image_url"`
}

// TextToImageURL requests generation with a JSON body and returns the hosted
// image URL from the JSON response.
func (c *Client) TextToImageURL(ctx context.Context, prompt string, params *GenerationParams) (string, error) {
	reqBody := urlRequest{Prompt: prompt}
	if params != nil {
		reqBody.GenerationParams = *params
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/text-to-image/v1", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.ErrUpstream("image request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", domain.ErrUpstream(
			fmt.Sprintf("image API error (status %d): %s", resp.StatusCode, string(respBody)), nil)
	}

	var result urlResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.ImageURL == "" {
		return "", domain.ErrUpstream("image API returned no image_url", nil)
	}
	return result.ImageURL, nil
}

// TextToImage requests generation with a multipart form and returns the raw
// image bytes from the response body.
func (c *Client) TextToImage(ctx context.Context, prompt string, params *GenerationParams) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("prompt", prompt); err != nil {
		return nil, fmt.Errorf("failed to write prompt field: %w", err)
	}
	if params != nil {
		fields := map[string]string{
			"style":           params.Style,
			"negative_prompt": params.NegativePrompt,
		}
		if params.Width > 0 {
			fields["width"] = strconv.Itoa(params.Width)
		}
		if params.Height > 0 {
			fields["height"] = strconv.Itoa(params.Height)
		}
		if params.Steps > 0 {
			fields["steps"] = strconv.Itoa(params.Steps)
		}
		if params.GuidanceScale > 0 {
			fields["guidance_scale"] = strconv.Itoa(params.GuidanceScale)
		}
		for name, value := range fields {
			if value == "" {
				continue
			}
			if err := writer.WriteField(name, value); err != nil {
				return nil, fmt.Errorf("failed to write field %s: %w", name, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/text-to-image/v1", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.ErrUpstream("image request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.ErrUpstream(
			fmt.Sprintf("image API error (status %d): %s", resp.StatusCode, string(respBody)), nil)
	}
	if len(respBody) == 0 {
		return nil, domain.ErrUpstream("image API returned an empty body", nil)
	}
	return respBody, nil
}

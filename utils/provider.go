package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ProviderClient talks to the external AI provider backends over plain JSON
// HTTP. It backs the conversational fallback classifier and every executor
// that needs a model: chat, image generation, search summaries, site
// analysis. Providers form an ordered chain: each call tries them in order
// and the first usable answer wins.
type ProviderClient struct {
	BaseURLs []string
	APIKey   string
	Client   *http.Client
}

// NewProviderClient reads the provider chain from PROVIDER_BASE_URL, a
// comma-separated list ordered primary first. Returns nil when unset;
// callers treat a nil client as "provider disabled" and degrade.
func NewProviderClient() *ProviderClient {
	var baseURLs []string
	for _, u := range strings.Split(os.Getenv("PROVIDER_BASE_URL"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			baseURLs = append(baseURLs, strings.TrimRight(u, "/"))
		}
	}
	if len(baseURLs) == 0 {
		zap.L().Warn("PROVIDER_BASE_URL not set, external provider disabled")
		return nil
	}

	timeout := 30 * time.Second
	if ms := os.Getenv("PROVIDER_TIMEOUT_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			timeout = time.Duration(v) * time.Millisecond
		} else {
			zap.L().Warn("ignoring invalid PROVIDER_TIMEOUT_MS", zap.String("value", ms))
		}
	}

	return &ProviderClient{
		BaseURLs: baseURLs,
		APIKey:   os.Getenv("PROVIDER_API_KEY"),
		Client:   &http.Client{Timeout: timeout},
	}
}

// ClassifyCategory asks the provider-side model to categorize a message.
// Empty string means the model declined; the caller falls back to
// conversation.
func (c *ProviderClient) ClassifyCategory(ctx context.Context, message string) (string, error) {
	var out struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	payload := map[string]interface{}{"message": message}
	if err := c.postJSON(ctx, "/v1/classify", payload, &out); err != nil {
		return "", err
	}
	if out.Confidence < 0.5 {
		return "", nil
	}
	return out.Category, nil
}

// Complete returns a plain chat completion for a prompt.
func (c *ProviderClient) Complete(ctx context.Context, prompt string) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	payload := map[string]interface{}{"message": prompt}
	if err := c.postJSON(ctx, "/v1/chat", payload, &out); err != nil {
		return "", err
	}
	if out.Response == "" {
		return "", fmt.Errorf("empty provider response")
	}
	return out.Response, nil
}

// GenerateImage requests an image and returns its URL.
func (c *ProviderClient) GenerateImage(ctx context.Context, prompt, style string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	payload := map[string]interface{}{"prompt": prompt, "style": style}
	if err := c.postJSON(ctx, "/v1/images", payload, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("provider returned no image url")
	}
	return out.URL, nil
}

// EditImage applies an instruction to an existing image by URL.
func (c *ProviderClient) EditImage(ctx context.Context, imageURL, instruction string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	payload := map[string]interface{}{"image_url": imageURL, "instruction": instruction}
	if err := c.postJSON(ctx, "/v1/images/edit", payload, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("provider returned no image url")
	}
	return out.URL, nil
}

// AnalyzeImage asks the provider-side vision model about an existing image.
func (c *ProviderClient) AnalyzeImage(ctx context.Context, imageURL, question string) (string, error) {
	var out struct {
		Description string `json:"description"`
	}
	payload := map[string]interface{}{"image_url": imageURL, "question": question}
	if err := c.postJSON(ctx, "/v1/images/analyze", payload, &out); err != nil {
		return "", err
	}
	return out.Description, nil
}

// Search runs a web search and returns result snippets.
func (c *ProviderClient) Search(ctx context.Context, query string) ([]string, error) {
	var out struct {
		Results []string `json:"results"`
	}
	payload := map[string]interface{}{"query": query}
	if err := c.postJSON(ctx, "/v1/search", payload, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// AnalyzeSite fetches and summarizes a website.
func (c *ProviderClient) AnalyzeSite(ctx context.Context, url string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	payload := map[string]interface{}{"url": url}
	if err := c.postJSON(ctx, "/v1/sites/analyze", payload, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// FetchImage downloads raw image bytes, for local processing of artifacts
// the provider produced earlier.
func (c *ProviderClient) FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image body")
	}
	return data, nil
}

// postJSON walks the provider chain in order until one base URL yields a
// decodable 200. Only the last failure is reported; earlier ones are logged.
func (c *ProviderClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	requestBodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	var lastErr error
	for i, baseURL := range c.BaseURLs {
		if err := c.postJSONTo(ctx, baseURL, path, requestBodyBytes, out); err != nil {
			lastErr = err
			if i < len(c.BaseURLs)-1 {
				zap.L().Warn("provider failed, trying next in chain",
					zap.String("base_url", baseURL), zap.Error(err))
			}
			continue
		}
		return nil
	}
	if lastErr == nil {
		return fmt.Errorf("no providers configured")
	}
	return fmt.Errorf("all providers failed: %w", lastErr)
}

func (c *ProviderClient) postJSONTo(ctx context.Context, baseURL, path string, requestBodyBytes []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to unmarshal response JSON: %w", err)
	}
	return nil
}

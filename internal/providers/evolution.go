package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EvolutionClient talks to an Evolution API deployment. Auth is the apikey
// header; sends are scoped by instance name.
type EvolutionClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewEvolutionClient(baseURL, apiKey string) *EvolutionClient {
	return &EvolutionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *EvolutionClient) Name() string {
	return "evolution"
}

func (c *EvolutionClient) SendText(ctx context.Context, msg OutboundText) (*SendResult, error) {
	body := map[string]any{
		"number": onlyDigits(msg.To),
		"text":   msg.Body,
	}
	buf, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, msg.Instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build evolution request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("evolution send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("evolution send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		Key struct {
			ID string `json:"id"`
		} `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("evolution send: decode response: %w", err)
	}
	if out.Key.ID == "" {
		return nil, fmt.Errorf("evolution send: response missing message id")
	}
	return &SendResult{MessageID: out.Key.ID}, nil
}

// FetchQR asks the instance for its pairing QR code.
func (c *EvolutionClient) FetchQR(ctx context.Context, instance string) (string, error) {
	url := fmt.Sprintf("%s/instance/connect/%s", c.baseURL, instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build evolution request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("evolution qr: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("evolution qr: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		Base64 string `json:"base64"`
		Code   string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("evolution qr: decode response: %w", err)
	}
	if out.Base64 != "" {
		return out.Base64, nil
	}
	return out.Code, nil
}

// CheckConnection reports whether the instance is paired. The call is a pure
// read; repeating it without a state change yields the same answer.
func (c *EvolutionClient) CheckConnection(ctx context.Context, instance string) (bool, error) {
	url := fmt.Sprintf("%s/instance/connectionState/%s", c.baseURL, instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build evolution request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("evolution state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return false, fmt.Errorf("evolution state: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("evolution state: decode response: %w", err)
	}
	return out.Instance.State == "open", nil
}

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

// MaytapiClient sends through the Maytapi WhatsApp API. Auth is the
// x-maytapi-key header; the phone id comes in as the session instance.
type MaytapiClient struct {
	baseURL    string
	productID  string
	token      string
	httpClient *http.Client
}

func NewMaytapiClient(baseURL, productID, token string) *MaytapiClient {
	return &MaytapiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		productID:  productID,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *MaytapiClient) Name() string {
	return "maytapi"
}

func (c *MaytapiClient) SendText(ctx context.Context, msg OutboundText) (*SendResult, error) {
	body := map[string]any{
		"to_number": onlyDigits(msg.To),
		"type":      "text",
		"message":   msg.Body,
	}
	buf, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/%s/%s/sendMessage", c.baseURL, c.productID, msg.Instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build maytapi request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-maytapi-key", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("maytapi send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("maytapi send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			MsgID string `json:"msgId"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("maytapi send: decode response: %w", err)
	}
	if !out.Success || out.Data.MsgID == "" {
		return nil, fmt.Errorf("maytapi send: rejected: %s", out.Message)
	}
	return &SendResult{MessageID: out.Data.MsgID}, nil
}

// Status reports the phone's connection screen. Pure read.
func (c *MaytapiClient) Status(ctx context.Context, phoneID string) (bool, string, error) {
	url := fmt.Sprintf("%s/%s/%s/screen", c.baseURL, c.productID, phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, "", fmt.Errorf("build maytapi request: %w", err)
	}
	req.Header.Set("x-maytapi-key", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, "", fmt.Errorf("maytapi status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return false, "", fmt.Errorf("maytapi status: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		Status string `json:"status"`
		Screen string `json:"screen"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, "", fmt.Errorf("maytapi status: decode response: %w", err)
	}
	return out.Status == "connected" || out.Screen == "main", out.Screen, nil
}

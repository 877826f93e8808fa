package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TwilioClient sends WhatsApp messages through the Twilio REST API.
// Auth is HTTP Basic with the account SID and token; the body is
// form-encoded, not JSON.
type TwilioClient struct {
	baseURL    string
	accountSID string
	authToken  string
	httpClient *http.Client
}

func NewTwilioClient(baseURL, accountSID, authToken string) *TwilioClient {
	return &TwilioClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *TwilioClient) Name() string {
	return "twilio"
}

func whatsappAddr(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	if !strings.HasPrefix(number, "+") {
		number = "+" + onlyDigits(number)
	}
	return "whatsapp:" + number
}

func (c *TwilioClient) SendText(ctx context.Context, msg OutboundText) (*SendResult, error) {
	form := url.Values{}
	form.Set("From", whatsappAddr(msg.From))
	form.Set("To", whatsappAddr(msg.To))
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("twilio send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("twilio send: decode response: %w", err)
	}
	if out.SID == "" {
		return nil, fmt.Errorf("twilio send: response missing message sid")
	}
	return &SendResult{MessageID: out.SID}, nil
}

// ListOwnedNumbers fetches the account's incoming phone numbers, used when a
// user links their purchased Twilio numbers.
func (c *TwilioClient) ListOwnedNumbers(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/IncomingPhoneNumbers.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio numbers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("twilio numbers: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		IncomingPhoneNumbers []struct {
			PhoneNumber string `json:"phone_number"`
		} `json:"incoming_phone_numbers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("twilio numbers: decode response: %w", err)
	}

	numbers := make([]string, 0, len(out.IncomingPhoneNumbers))
	for _, n := range out.IncomingPhoneNumbers {
		numbers = append(numbers, n.PhoneNumber)
	}
	return numbers, nil
}

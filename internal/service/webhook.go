package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookClient delivers notification records to an external sink over HTTP.
// The sink is whatever the deployment points NOTIFY_WEBHOOK_URL at - a chat
// integration, an ops channel, a test collector.
type WebhookClient struct {
	url        string
	httpClient *http.Client
}

// WebhookPayload is the JSON body posted to the sink.
type WebhookPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	OwnerID     string `json:"owner_id"`
}

// NewWebhookClient creates a client for the given sink URL. An empty URL
// yields a nil client; callers treat nil as "no sink configured".
func NewWebhookClient(url string) *WebhookClient {
	if url == "" {
		return nil
	}
	return &WebhookClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send posts one notification to the sink.
func (c *WebhookClient) Send(payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook error: status=%d", resp.StatusCode)
	}
	return nil
}

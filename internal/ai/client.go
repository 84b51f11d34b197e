// Package ai provides the client for the external conversational bot API
// that backs course generation and the in-course tutor.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned when bot credentials are missing. It is
// checked before any network call so misconfiguration surfaces as a clear
// blocking message, never a silent no-op.
var ErrNotConfigured = errors.New("bot API credentials are not configured")

// Client is the interface the generation pipeline and tutor depend on.
type Client interface {
	// Ask sends one message under the given conversation id and returns the
	// bot's raw text answer.
	Ask(ctx context.Context, chatID, message string) (string, error)
}

// BotClient talks to the bot HTTP API: POST {base}/ask/{token} with a JSON
// body carrying the numeric bot id, conversation id, and message.
type BotClient struct {
	baseURL string
	token   string
	botID   int
	client  *http.Client
}

// BotOption configures a BotClient.
type BotOption func(*BotClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) BotOption {
	return func(c *BotClient) {
		c.client = client
	}
}

// WithTimeout caps the total duration of each bot request. The shared HTTP
// client is copied so the cap never leaks to other users of the client.
func WithTimeout(d time.Duration) BotOption {
	return func(c *BotClient) {
		nc := *c.client
		nc.Timeout = d
		c.client = &nc
	}
}

// NewBotClient creates a client for the bot API.
func NewBotClient(baseURL, token string, botID int, opts ...BotOption) *BotClient {
	c := &BotClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		botID:   botID,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether all credentials are present.
func (c *BotClient) Configured() bool {
	return c.baseURL != "" && c.token != "" && c.botID != 0
}

// askRequest is the request body for the bot ask endpoint.
type askRequest struct {
	BotID   int    `json:"bot_id"`
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

// askResponse is the response from the bot ask endpoint. Depending on API
// revision the answer arrives in "done" or "response".
type askResponse struct {
	Done     string `json:"done"`
	Response string `json:"response"`
}

func (c *BotClient) Ask(ctx context.Context, chatID, message string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(askRequest{
		BotID:   c.botID,
		ChatID:  chatID,
		Message: message,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/ask/" + url.PathEscape(c.token)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("bot api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var askResp askResponse
	if err := json.Unmarshal(respBody, &askResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	text := askResp.Done
	if text == "" {
		text = askResp.Response
	}
	if text == "" {
		return "", fmt.Errorf("empty answer in response")
	}
	return text, nil
}

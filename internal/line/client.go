// Package line is a minimal client for the LINE Messaging API: replying
// to webhook events, pushing messages to users and downloading message
// content such as slip images.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultAPIBase  = "https://api.line.me"
	defaultDataBase = "https://api-data.line.me"

	// Content downloads are capped; slip photos are far below this.
	maxContentSize = 10 << 20
)

// Client talks to the Messaging API on behalf of one channel.
type Client struct {
	channelToken string
	apiBase      string
	dataBase     string
	client       *http.Client
}

// Option adjusts client construction.
type Option func(*Client)

// WithEndpoints overrides the API hosts. Used by tests.
func WithEndpoints(apiBase, dataBase string) Option {
	return func(c *Client) {
		c.apiBase = apiBase
		c.dataBase = dataBase
	}
}

// New creates a Client with the given channel access token.
func New(channelToken string, opts ...Option) *Client {
	c := &Client{
		channelToken: channelToken,
		apiBase:      defaultAPIBase,
		dataBase:     defaultDataBase,
		client:       &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reply answers a webhook event. Reply tokens are single-use and
// short-lived; prefer Push once real work has happened in between.
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("at least one message is required")
	}
	body := struct {
		ReplyToken string    `json:"replyToken"`
		Messages   []Message `json:"messages"`
	}{ReplyToken: replyToken, Messages: messages}
	return c.post(ctx, "/v2/bot/message/reply", body)
}

// Push sends messages to a user outside the reply window.
func (c *Client) Push(ctx context.Context, to string, messages ...Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("at least one message is required")
	}
	body := struct {
		To       string    `json:"to"`
		Messages []Message `json:"messages"`
	}{To: to, Messages: messages}
	return c.post(ctx, "/v2/bot/message/push", body)
}

// GetMessageContent downloads the binary payload of a message, e.g. the
// image a user attached.
func (c *Client) GetMessageContent(ctx context.Context, messageID string) ([]byte, error) {
	url := fmt.Sprintf("%s/v2/bot/message/%s/content", c.dataBase, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.channelToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.channelToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, detail)
	}
	return nil
}

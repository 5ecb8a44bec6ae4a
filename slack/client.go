package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log15 "github.com/inconshreveable/log15/v3"
)

const apiBaseURL = "https://slack.com/api"

// GatewayError is any non-success response from the Slack Web API. The
// core never retries; the error is surfaced to the caller as-is.
type GatewayError struct {
	StatusCode int
	Code       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("slack api failure: status=%d code=%q", e.StatusCode, e.Code)
}

// Client talks to the Slack Web API with a bot bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        log15.Logger
}

func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    apiBaseURL,
		token:      token,
		log:        log15.New("module", "slack"),
	}
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (r apiResponse) ok() bool          { return r.OK }
func (r apiResponse) errorCode() string { return r.Error }

type apiResult interface {
	ok() bool
	errorCode() string
}

func (c *Client) call(ctx context.Context, method string, payload any, out apiResult) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &GatewayError{StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if !out.ok() {
		c.log.Error("slack api rejected call", "method", method, "error", out.errorCode())
		return &GatewayError{StatusCode: resp.StatusCode, Code: out.errorCode()}
	}
	return nil
}

type postMessageResponse struct {
	apiResponse
	Ts string `json:"ts"`
}

// PostMessage posts a message and returns its timestamp id.
func (c *Client) PostMessage(ctx context.Context, channel string, blocks []Block, text string) (string, error) {
	var out postMessageResponse
	err := c.call(ctx, "chat.postMessage", map[string]any{
		"channel": channel,
		"blocks":  blocks,
		"text":    text,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Ts, nil
}

// UpdateMessage replaces the block layout of an existing message.
func (c *Client) UpdateMessage(ctx context.Context, channel, ts string, blocks []Block) error {
	var out apiResponse
	return c.call(ctx, "chat.update", map[string]any{
		"channel": channel,
		"ts":      ts,
		"blocks":  blocks,
	}, &out)
}

type scheduleMessageResponse struct {
	apiResponse
	ScheduledMessageID string `json:"scheduled_message_id"`
}

// ScheduleMessage queues a message for future delivery and returns the
// scheduled message id.
func (c *Client) ScheduleMessage(ctx context.Context, channel string, blocks []Block, text string, postAt int64) (string, error) {
	var out scheduleMessageResponse
	err := c.call(ctx, "chat.scheduleMessage", map[string]any{
		"channel": channel,
		"blocks":  blocks,
		"text":    text,
		"post_at": postAt,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ScheduledMessageID, nil
}

// DeleteScheduledMessage removes a not-yet-sent scheduled message.
func (c *Client) DeleteScheduledMessage(ctx context.Context, channel, scheduledMessageID string) error {
	var out apiResponse
	return c.call(ctx, "chat.deleteScheduledMessage", map[string]any{
		"channel":              channel,
		"scheduled_message_id": scheduledMessageID,
	}, &out)
}

type listScheduledResponse struct {
	apiResponse
	ScheduledMessages []ScheduledMessage `json:"scheduled_messages"`
	ResponseMetadata  struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// ListScheduledMessages pages through the full scheduled-message queue of
// a channel.
func (c *Client) ListScheduledMessages(ctx context.Context, channel string) ([]ScheduledMessage, error) {
	var all []ScheduledMessage
	cursor := ""
	for {
		var out listScheduledResponse
		payload := map[string]any{"channel": channel}
		if cursor != "" {
			payload["cursor"] = cursor
		}
		if err := c.call(ctx, "chat.scheduledMessages.list", payload, &out); err != nil {
			return nil, err
		}
		all = append(all, out.ScheduledMessages...)
		cursor = out.ResponseMetadata.NextCursor
		if cursor == "" {
			return all, nil
		}
	}
}

type viewResponse struct {
	apiResponse
	View View `json:"view"`
}

// OpenView opens a modal in response to an interaction.
func (c *Client) OpenView(ctx context.Context, triggerID string, view View) error {
	var out viewResponse
	return c.call(ctx, "views.open", map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	}, &out)
}

// UpdateView replaces the content of an open modal.
func (c *Client) UpdateView(ctx context.Context, viewID string, view View) error {
	var out viewResponse
	return c.call(ctx, "views.update", map[string]any{
		"view_id": viewID,
		"view":    view,
	}, &out)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Client is a thin HTTP client for the localq server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response carries the raw outcome of an API call so callers can decide how
// to render both success and error payloads.
type Response struct {
	StatusCode int
	Body       []byte
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, Body: b}, nil
}

// Send enqueues one message.
func (c *Client) Send(ctx context.Context, queue string, req SendRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/queue/"+url.PathEscape(queue)+"/message", req)
}

// SendBatch enqueues up to 10 messages.
func (c *Client) SendBatch(ctx context.Context, queue string, req SendBatchRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/queue/"+url.PathEscape(queue)+"/messages", req)
}

// Receive checks out deliverable messages.
func (c *Client) Receive(ctx context.Context, queue string, req ReceiveRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/queue/"+url.PathEscape(queue)+"/receive", req)
}

// Delete removes a message by receipt handle.
func (c *Client) Delete(ctx context.Context, req DeleteRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/message/delete", req)
}

// DeleteBatch removes up to 10 messages by receipt handle.
func (c *Client) DeleteBatch(ctx context.Context, req DeleteBatchRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/message/delete-batch", req)
}

// ChangeVisibility extends or shortens a message's visibility window.
func (c *Client) ChangeVisibility(ctx context.Context, req ChangeVisibilityRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/message/visibility", req)
}

// PurgeQueue deletes all messages in one queue.
func (c *Client) PurgeQueue(ctx context.Context, queue string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, "/queue/"+url.PathEscape(queue), nil)
}

// PurgeAll deletes all messages across every queue. The server rejects the
// call unless confirm is true.
func (c *Client) PurgeAll(ctx context.Context, confirm bool) (*Response, error) {
	return c.do(ctx, http.MethodDelete, "/queues?confirm="+strconv.FormatBool(confirm), nil)
}

// QueueAttributes fetches message counts for one queue.
func (c *Client) QueueAttributes(ctx context.Context, queue string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/queue/"+url.PathEscape(queue)+"/attributes", nil)
}

// ListQueues lists queue names.
func (c *Client) ListQueues(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/queues", nil)
}

// CreateSchedule creates a one-shot or recurring schedule.
func (c *Client) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/schedule", req)
}

// GetSchedule fetches one schedule.
func (c *Client) GetSchedule(ctx context.Context, id string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/schedule/"+url.PathEscape(id), nil)
}

// ListSchedules lists schedules. Fired one-shot schedules are excluded unless
// includeFired is set.
func (c *Client) ListSchedules(ctx context.Context, includeFired bool, limit int) (*Response, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/schedules?include_fired=%t&limit=%d", includeFired, limit), nil)
}

// UpdateSchedule partially updates a schedule.
func (c *Client) UpdateSchedule(ctx context.Context, id string, req UpdateScheduleRequest) (*Response, error) {
	return c.do(ctx, http.MethodPut, "/schedule/"+url.PathEscape(id), req)
}

// CancelSchedule deletes a schedule.
func (c *Client) CancelSchedule(ctx context.Context, id string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, "/schedule/"+url.PathEscape(id), nil)
}

// RunDue fires due schedules once.
func (c *Client) RunDue(ctx context.Context, req RunDueRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/schedules/run-due", req)
}

// Package client talks to the parts assistant backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/partchat/pkg/history"
	"github.com/papercomputeco/partchat/pkg/logger"
	"github.com/papercomputeco/partchat/pkg/parts"
	"github.com/papercomputeco/partchat/pkg/sse"
	"github.com/papercomputeco/partchat/pkg/utils"
)

const (
	streamPath  = "/chat/stream"
	messagePath = "/chat/message"

	// errorBodyLimit bounds how much of a failed response is kept for logs.
	errorBodyLimit = 4 * 1024

	defaultTimeout = 5 * time.Minute
)

// ErrStatus is wrapped by errors for non-2xx backend answers.
var ErrStatus = errors.New("unexpected backend status")

// Request is the body of both chat endpoints.
type Request struct {
	Message             string            `json:"message"`
	ConversationID      string            `json:"conversation_id,omitempty"`
	ConversationHistory []history.Message `json:"conversation_history"`
}

// Reply is the complete answer of the non-streaming endpoint.
type Reply struct {
	Message        string               `json:"message"`
	ConversationID string               `json:"conversation_id"`
	Products       []parts.Product      `json:"products"`
	Compatibility  *parts.Compatibility `json:"compatibility"`
	Metadata       map[string]any       `json:"metadata"`
}

// Events renders the reply as the event sequence a stream would have carried.
func (r *Reply) Events() []sse.Event {
	events := make([]sse.Event, 0, len(r.Products)+3)
	for i := range r.Products {
		events = append(events, sse.Event{Kind: sse.KindProduct, Product: &r.Products[i]})
	}
	if r.Compatibility != nil {
		events = append(events, sse.Event{Kind: sse.KindCompatibility, Compatibility: r.Compatibility})
	}
	if r.Message != "" {
		events = append(events, sse.Event{Kind: sse.KindText, Text: r.Message})
	}
	return append(events, sse.Event{Kind: sse.KindDone})
}

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api/v1.
	BaseURL string

	// Timeout bounds a whole request including a streamed body.
	// Defaults to five minutes.
	Timeout time.Duration

	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is a backend client.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New validates c and returns a Client.
func New(c Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must use http or https", c.BaseURL)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		logger:  l,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Stream opens the streaming endpoint and returns the event reader over its
// body. Stream never fails: a request that cannot be sent or is answered
// with a non-2xx status yields a reader carrying a single error event. The
// caller must Close the reader.
func (c *Client) Stream(ctx context.Context, req Request) *sse.Reader {
	opts := []sse.Option{sse.WithLogger(c.logger)}

	resp, err := c.post(ctx, streamPath, req, "text/event-stream")
	if err != nil {
		c.logger.Warn("could not open stream", "error", err)
		return sse.NewFailedReader(err, opts...)
	}

	c.logger.Debug("stream opened",
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
	)
	return sse.NewReader(resp.Body, opts...)
}

// Send calls the non-streaming endpoint and decodes the complete reply.
func (c *Client) Send(ctx context.Context, req Request) (*Reply, error) {
	resp, err := c.post(ctx, messagePath, req, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decoding reply: %w", err)
	}
	return &reply, nil
}

// post sends req as JSON. On success the caller owns the response body.
func (c *Client) post(ctx context.Context, path string, req Request, accept string) (*http.Response, error) {
	if req.ConversationHistory == nil {
		req.ConversationHistory = []history.Message{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.logger.Debug("sending chat request",
		"url", c.baseURL+path,
		"history_len", len(req.ConversationHistory),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, utils.Truncate(strings.TrimSpace(string(detail)), 200))
	}

	return resp, nil
}

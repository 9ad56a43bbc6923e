package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ensure Client implements the API contracts at compile time.
var (
	_ LogSource     = (*Client)(nil)
	_ BotController = (*Client)(nil)
)

// Client talks to the bot control HTTP API and its WebSocket log stream.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
	clientID  string
	logger    *slog.Logger
}

const (
	defaultAPIBind   = "127.0.0.1:8787"
	defaultUserAgent = "relay/0.1"
	requestTimeout   = 5 * time.Second
)

// Option customises a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithLogger sets the logger used for feed diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		clientID:  uuid.NewString(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientID identifies this dashboard instance to the bot API.
func (c *Client) ClientID() string { return c.clientID }

// FetchHistory retrieves up to limit of the bot's most recent log entries.
func (c *Client) FetchHistory(ctx context.Context, botID string, limit int) ([]LogEntry, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel, err := botURL(botID, "logs")
	if err != nil {
		return nil, err
	}
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	rel.RawQuery = values.Encode()
	var payload struct {
		Entries []json.RawMessage `json:"entries"`
	}
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	entries := make([]LogEntry, 0, len(payload.Entries))
	for _, raw := range payload.Entries {
		var e LogEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			c.logger.Warn("skipping malformed history entry", "bot", botID, "error", err)
			continue
		}
		entries = append(entries, Normalize(e, botID))
	}
	return entries, nil
}

// FetchStatus retrieves the bot's runtime status.
func (c *Client) FetchStatus(ctx context.Context, botID string) (*BotStatus, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel, err := botURL(botID, "status")
	if err != nil {
		return nil, err
	}
	var payload BotStatus
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// StartBot asks the API to start botID with spec. The result's data may
// carry an initial pairing payload.
func (c *Client) StartBot(ctx context.Context, botID string, spec BotSpec) (StartResult, error) {
	if c == nil {
		return StartResult{}, fmt.Errorf("client is nil")
	}
	rel, err := botURL(botID, "start")
	if err != nil {
		return StartResult{}, err
	}
	var payload StartResult
	if err := c.doURL(ctx, http.MethodPost, rel, spec, &payload); err != nil {
		return StartResult{}, err
	}
	return payload, nil
}

// StopBot asks the API to stop botID.
func (c *Client) StopBot(ctx context.Context, botID string) (StartResult, error) {
	if c == nil {
		return StartResult{}, fmt.Errorf("client is nil")
	}
	rel, err := botURL(botID, "stop")
	if err != nil {
		return StartResult{}, err
	}
	var payload StartResult
	if err := c.doURL(ctx, http.MethodPost, rel, nil, &payload); err != nil {
		return StartResult{}, err
	}
	return payload, nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req.Header)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(h http.Header) {
	h.Set("Accept", "application/json")
	h.Set("User-Agent", c.userAgent)
	h.Set("X-Relay-Client", c.clientID)
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
}

// botURL returns the API path for action on botID. Path holds the decoded
// id and RawPath the escaped one, so ids containing '/' stay one segment.
func botURL(botID, action string) (*url.URL, error) {
	id := strings.TrimSpace(botID)
	if id == "" {
		return nil, fmt.Errorf("bot id required")
	}
	return &url.URL{
		Path:    "/api/bots/" + id + "/" + action,
		RawPath: "/api/bots/" + url.PathEscape(id) + "/" + action,
	}, nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

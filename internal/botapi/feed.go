package botapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	feedPingInterval = 30 * time.Second
	feedReadTimeout  = 60 * time.Second
	feedWriteTimeout = 10 * time.Second
	maxFrameBytes    = 1 << 20
)

// OpenLiveFeed subscribes to the bot's log stream. onEntry is called from a
// single reader goroutine, in arrival order, until the returned
// Subscription is released or the connection fails. Cancelling ctx
// releases the subscription.
func (c *Client) OpenLiveFeed(ctx context.Context, botID string, onEntry func(LogEntry)) (Subscription, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel, err := botURL(botID, "logs/stream")
	if err != nil {
		return nil, err
	}
	target := c.baseURL.ResolveReference(rel)
	switch target.Scheme {
	case "https":
		target.Scheme = "wss"
	default:
		target.Scheme = "ws"
	}

	header := http.Header{}
	c.setHeaders(header)
	header.Del("Accept")

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: requestTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, target.String(), header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
		}
		return nil, fmt.Errorf("open live feed: %w", err)
	}

	handle := NewHandle(func() {
		deadline := time.Now().Add(feedWriteTimeout)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	})

	go c.readFeed(conn, handle, botID, onEntry)
	go pingFeed(conn, handle)
	go func() {
		select {
		case <-ctx.Done():
			handle.Release()
		case <-handle.Done():
		}
	}()
	return handle, nil
}

func (c *Client) readFeed(conn *websocket.Conn, handle *Handle, botID string, onEntry func(LogEntry)) {
	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if handle.Released() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				handle.Fail(ErrFeedClosed)
				return
			}
			handle.Fail(fmt.Errorf("read live feed: %w", err))
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(feedReadTimeout))

		var entry LogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			c.logger.Warn("skipping malformed log frame", "bot", botID, "error", err)
			continue
		}
		select {
		case <-handle.Done():
			return
		default:
		}
		if onEntry != nil {
			onEntry(Normalize(entry, botID))
		}
	}
}

func pingFeed(conn *websocket.Conn, handle *Handle) {
	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-handle.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(feedWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				if errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				handle.Fail(fmt.Errorf("ping live feed: %w", err))
				return
			}
		}
	}
}

package twitch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is a minimal IRC-over-WebSocket chat client: it joins one channel,
// feeds parsed events to a callback and exposes Send for outbound text.
type Client struct {
	wsURL   string
	nick    string
	token   string
	channel string
	logger  *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(wsURL, nick, token, channel string, logger *slog.Logger) *Client {
	return &Client{
		wsURL:   wsURL,
		nick:    nick,
		token:   token,
		channel: strings.TrimPrefix(channel, "#"),
		logger:  logger,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("twitch dial: %w", err)
	}
	c.mu.Lock()
	if c.conn != nil {
		// reconnect path: drop the dead connection before replacing it
		_ = c.conn.Close()
	}
	c.conn = conn
	c.mu.Unlock()

	lines := []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"PASS oauth:" + c.token,
		"NICK " + c.nick,
		"JOIN #" + c.channel,
	}
	for _, line := range lines {
		if err := c.writeLine(line); err != nil {
			_ = conn.Close()
			return err
		}
	}
	c.logger.Info("twitch connected", "channel", c.channel)
	return nil
}

// ReadLoop reads until the context is cancelled or the connection drops,
// invoking handle for every chat message. PINGs are answered inline.
func (c *Client) ReadLoop(ctx context.Context, handle func(Event)) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("twitch read: %w", err)
		}
		// a frame may carry several IRC lines
		for _, line := range strings.Split(string(raw), "\n") {
			line = strings.TrimRight(line, "\r")
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "PING") {
				_ = c.writeLine("PONG" + strings.TrimPrefix(line, "PING"))
				continue
			}
			if ev, ok := ParseMessage(line); ok {
				handle(ev)
			}
		}
	}
}

// Send posts text to the channel.
func (c *Client) Send(ctx context.Context, channel, text string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if channel == "" {
		channel = c.channel
	}
	return c.writeLine(fmt.Sprintf("PRIVMSG #%s :%s", strings.TrimPrefix(channel, "#"), text))
}

func (c *Client) writeLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("twitch: not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line+"\r\n"))
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

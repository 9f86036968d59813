package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// TokenProvider supplies the access token interpolated into the feed URL.
type TokenProvider interface {
	AccessToken() string
}

// Conn owns the single WebSocket connection per session and keeps it alive
// with capped exponential backoff. Every successful reconnect publishes a
// stream_resync event so subscribers can catch up on anything missed.
type Conn struct {
	baseURL      string
	restaurantID string
	tokens       TokenProvider
	dispatcher   *Dispatcher
	logger       *log.Logger

	backoffBase time.Duration
	backoffMax  time.Duration

	connected  atomic.Bool
	reconnects atomic.Int64

	dial func(ctx context.Context, urlStr string) (wsReader, error)
}

// wsReader abstracts the gorilla connection for tests.
type wsReader interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

func NewConn(baseURL, restaurantID string, tokens TokenProvider, d *Dispatcher, base, max time.Duration, logger *log.Logger) *Conn {
	c := &Conn{
		baseURL:      baseURL,
		restaurantID: restaurantID,
		tokens:       tokens,
		dispatcher:   d,
		logger:       logger,
		backoffBase:  base,
		backoffMax:   max,
	}
	c.dial = func(ctx context.Context, urlStr string) (wsReader, error) {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, urlStr, nil)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}
	return c
}

// Connected reports whether the feed is currently up.
func (c *Conn) Connected() bool { return c.connected.Load() }

// Reconnects reports how many times the feed was re-established.
func (c *Conn) Reconnects() int64 { return c.reconnects.Load() }

// feedURL builds ${base}/ws/alldatalive/{restaurantID}/?token=...
func (c *Conn) feedURL() (string, error) {
	if c.restaurantID == "" {
		return "", errors.New("missing restaurant id")
	}
	tok := c.tokens.AccessToken()
	if tok == "" {
		return "", errors.New("missing access token")
	}
	u, err := url.Parse(fmt.Sprintf("%s/ws/alldatalive/%s/", c.baseURL, c.restaurantID))
	if err != nil {
		return "", fmt.Errorf("bad ws url: %w", err)
	}
	q := u.Query()
	q.Set("token", tok)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run keeps the feed alive until the context is cancelled. Missing
// preconditions (no token, no restaurant id) abort with an error instead of
// the silent no-op the dashboards had.
func (c *Conn) Run(ctx context.Context) error {
	if _, err := c.feedURL(); err != nil {
		return fmt.Errorf("websocket preconditions: %w", err)
	}

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		urlStr, err := c.feedURL()
		if err != nil {
			return fmt.Errorf("websocket preconditions: %w", err)
		}

		ws, err := c.dial(ctx, urlStr)
		if err != nil {
			delay := backoffDelay(c.backoffBase, c.backoffMax, attempt)
			c.logger.Printf("⚠️  Feed dial failed (attempt %d), retrying in %s: %v", attempt+1, delay, err)
			attempt++
			if !sleepCtx(ctx, delay) {
				return ctx.Err()
			}
			continue
		}

		c.connected.Store(true)
		if attempt > 0 || c.reconnects.Load() > 0 {
			c.reconnects.Add(1)
			c.logger.Printf("🔄 Feed reconnected, requesting catch-up sync")
			c.dispatcher.Publish(Event{Type: EventStreamResync, ReceivedAt: time.Now().UTC()})
		} else {
			c.logger.Printf("✅ Live feed connected")
		}
		attempt = 0

		err = c.readLoop(ctx, ws)
		c.connected.Store(false)
		_ = ws.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		delay := backoffDelay(c.backoffBase, c.backoffMax, attempt)
		c.logger.Printf("⚠️  Feed dropped, reconnecting in %s: %v", delay, err)
		attempt++
		if !sleepCtx(ctx, delay) {
			return ctx.Err()
		}
	}
}

func (c *Conn) readLoop(ctx context.Context, ws wsReader) error {
	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = ws.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatcher.HandleFrame(data)
	}
}

// backoffDelay is capped exponential backoff with ±25% jitter.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = time.Minute
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			d = max
			break
		}
	}
	jitter := time.Duration(rand.Int63n(int64(d)/2+1)) - d/4
	if d+jitter < base {
		return base
	}
	return d + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

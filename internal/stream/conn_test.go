package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"
)

type fixedToken string

func (t fixedToken) AccessToken() string { return string(t) }

func TestFeedURL(t *testing.T) {
	d := newTestDispatcher()
	lg := log.New(io.Discard, "", 0)

	c := NewConn("ws://feed.local:8000", "42", fixedToken("abc"), d, time.Second, time.Minute, lg)
	got, err := c.feedURL()
	if err != nil {
		t.Fatalf("feedURL: %v", err)
	}
	want := "ws://feed.local:8000/ws/alldatalive/42/?token=abc"
	if got != want {
		t.Fatalf("feedURL = %q, want %q", got, want)
	}

	c = NewConn("ws://feed.local:8000", "", fixedToken("abc"), d, time.Second, time.Minute, lg)
	if _, err := c.feedURL(); err == nil {
		t.Fatal("missing restaurant id must error")
	}

	c = NewConn("ws://feed.local:8000", "42", fixedToken(""), d, time.Second, time.Minute, lg)
	if _, err := c.feedURL(); err == nil {
		t.Fatal("missing token must error")
	}
}

func TestRunAbortsWithoutPreconditions(t *testing.T) {
	d := newTestDispatcher()
	c := NewConn("ws://feed.local", "", fixedToken("abc"), d, time.Second, time.Minute, log.New(io.Discard, "", 0))
	if err := c.Run(context.Background()); err == nil {
		t.Fatal("Run must fail fast when the feed URL cannot be built")
	}
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	base := 200 * time.Millisecond
	max := 5 * time.Second

	for attempt := 0; attempt < 12; attempt++ {
		d := backoffDelay(base, max, attempt)
		if d < base {
			t.Fatalf("attempt %d: delay %s below base %s", attempt, d, base)
		}
		// max plus full positive jitter is the hard ceiling
		if d > max+max/4 {
			t.Fatalf("attempt %d: delay %s above cap %s", attempt, d, max+max/4)
		}
	}

	// the uncapped schedule must actually grow: attempt 3 spans a range
	// strictly above attempt 0's
	d0 := backoffDelay(base, max, 0)
	if d0 > base+base/4 {
		t.Fatalf("attempt 0 delay %s outside base jitter window", d0)
	}
	d3 := backoffDelay(base, max, 3)
	if d3 < 8*base-8*base/4 {
		t.Fatalf("attempt 3 delay %s too small for 8x base schedule", d3)
	}
}

// scriptedDial returns one short-lived connection, fails the next dial once,
// then serves a second connection. Run should publish a resync after the
// reconnect.
type scriptedConn struct {
	frames [][]byte
	i      int
	hold   bool // block after the scripted frames instead of dropping
	closed chan struct{}
}

func (s *scriptedConn) ReadMessage() (int, []byte, error) {
	if s.i < len(s.frames) {
		f := s.frames[s.i]
		s.i++
		return 1, f, nil
	}
	if s.hold {
		<-s.closed
	}
	return 0, nil, errors.New("connection closed")
}

func (s *scriptedConn) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}

func TestReconnectPublishesResync(t *testing.T) {
	d := newTestDispatcher()
	sub := d.Subscribe(8, EventStreamResync, EventOrderUpdated)
	defer d.Unsubscribe(sub)

	lg := log.New(io.Discard, "", 0)
	c := NewConn("ws://feed.local", "1", fixedToken("tok"), d, time.Millisecond, 2*time.Millisecond, lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dials := 0
	second := &scriptedConn{hold: true, closed: make(chan struct{})}
	c.dial = func(ctx context.Context, urlStr string) (wsReader, error) {
		dials++
		switch dials {
		case 1:
			// first connection delivers one frame then drops
			return &scriptedConn{
				frames: [][]byte{[]byte(`{"type":"order_updated"}`)},
				closed: make(chan struct{}),
			}, nil
		case 2:
			return nil, errors.New("dial refused")
		default:
			return second, nil
		}
	}

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	want := []string{EventOrderUpdated, EventStreamResync}
	for _, w := range want {
		select {
		case ev := <-sub.Events():
			if ev.Type != w {
				t.Fatalf("got %s, want %s", ev.Type, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", w)
		}
	}
	if c.Reconnects() != 1 {
		t.Fatalf("reconnects = %d, want 1", c.Reconnects())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}

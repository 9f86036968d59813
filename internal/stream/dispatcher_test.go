package stream

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(log.New(io.Discard, "", 0))
}

func TestMalformedFrameKeepsLastEvent(t *testing.T) {
	d := newTestDispatcher()

	d.HandleFrame([]byte(`{"type":"order_updated","order_id":7}`))
	d.HandleFrame([]byte(`not json at all`))
	d.HandleFrame([]byte(`{"no_type_field":true}`))

	last := d.LastEvent()
	if last.Type != EventOrderUpdated {
		t.Fatalf("last event = %+v, want order_updated", last)
	}

	frames := d.FrameLog()
	if len(frames) != 3 {
		t.Fatalf("frame log has %d entries, want 3 (malformed frames still logged)", len(frames))
	}

	decoded, malformed := d.Stats()
	if decoded != 1 || malformed != 2 {
		t.Fatalf("stats = %d decoded / %d malformed, want 1 / 2", decoded, malformed)
	}
}

func TestSubscriberOrderingAndFiltering(t *testing.T) {
	d := newTestDispatcher()
	sub := d.Subscribe(8, EventOrderCreated, EventOrderUpdated)
	defer d.Unsubscribe(sub)

	d.HandleFrame([]byte(`{"type":"order_created"}`))
	d.HandleFrame([]byte(`{"type":"chat_message"}`))
	d.HandleFrame([]byte(`{"type":"order_updated"}`))

	want := []string{EventOrderCreated, EventOrderUpdated}
	for i, w := range want {
		select {
		case ev := <-sub.Events():
			if ev.Type != w {
				t.Fatalf("event %d = %s, want %s", i, ev.Type, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected extra event %s, chat_message should be filtered", ev.Type)
	default:
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	d := newTestDispatcher()
	sub := d.Subscribe(2, EventOrderUpdated)
	defer d.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		d.HandleFrame([]byte(`{"type":"order_updated"}`))
	}

	if got := sub.Dropped(); got != 3 {
		t.Fatalf("dropped = %d, want 3", got)
	}
	// queue still holds the newest two
	n := 0
	for {
		select {
		case <-sub.Events():
			n++
		default:
			if n != 2 {
				t.Fatalf("queue drained %d events, want 2", n)
			}
			return
		}
	}
}

func TestFrameLogIsBounded(t *testing.T) {
	d := newTestDispatcher()
	for i := 0; i < frameLogCap+50; i++ {
		d.HandleFrame([]byte(`{"type":"order_updated"}`))
	}
	if got := len(d.FrameLog()); got != frameLogCap {
		t.Fatalf("frame log length = %d, want %d", got, frameLogCap)
	}
}

// Stores unsubscribe from their Run goroutines while the feed reader is
// still publishing; that interleaving must never send on a closed channel.
func TestPublishDuringUnsubscribe(t *testing.T) {
	d := newTestDispatcher()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					d.Publish(Event{Type: EventOrderUpdated})
				}
			}
		}()
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		sub := d.Subscribe(1, EventOrderUpdated)
		d.Unsubscribe(sub)
	}
	close(stop)
	wg.Wait()
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	d := newTestDispatcher()
	sub := d.Subscribe(1)
	d.Unsubscribe(sub)
	if _, ok := <-sub.Events(); ok {
		t.Fatal("channel should be closed after Unsubscribe")
	}
	// publishing after unsubscribe must not panic
	d.HandleFrame([]byte(`{"type":"order_updated"}`))
}

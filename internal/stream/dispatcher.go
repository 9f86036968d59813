package stream

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const frameLogCap = 256

// Subscription is one consumer's ordered, bounded event queue. When the
// queue is full the oldest event is dropped and counted; each store treats a
// drop the same as a coalesced burst and refetches full server state anyway.
type Subscription struct {
	types   map[string]struct{}
	ch      chan Event
	dropped atomic.Int64

	// mu serializes deliver against close, so an in-flight publish can
	// never send on a channel Unsubscribe already closed.
	mu     sync.Mutex
	closed bool
}

// Events is the subscriber's receive channel.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Dropped reports how many events were discarded due to a full queue.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

func (s *Subscription) wants(t string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// deliver enqueues without blocking: a full queue sheds its oldest entry
// first. Events arriving after close are silently discarded.
func (s *Subscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		// Queue full: shed the oldest entry, then deliver.
		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
		select {
		case s.ch <- ev:
		default:
			s.dropped.Add(1)
		}
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Dispatcher decodes inbound frames and delivers them per subscriber,
// replacing the single shared latest-event slot the dashboards used. Each
// subscriber drains its own backlog, so two events of different types can
// never coalesce into one.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   []*Subscription
	logger *log.Logger

	last     Event
	frameLog []string

	decoded   atomic.Int64
	malformed atomic.Int64
}

func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Subscribe registers a queue for the given event types; no types means all.
func (d *Dispatcher) Subscribe(buffer int, types ...string) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}
	sub := &Subscription{ch: make(chan Event, buffer)}
	if len(types) > 0 {
		sub.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	d.mu.Lock()
	d.subs = append(d.subs, sub)
	d.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscription and closes its channel.
func (d *Dispatcher) Unsubscribe(sub *Subscription) {
	d.mu.Lock()
	for i, s := range d.subs {
		if s == sub {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			break
		}
	}
	d.mu.Unlock()
	sub.close()
}

// HandleFrame decodes one inbound frame. A frame that is not JSON, or has no
// type discriminator, is appended raw to the frame log and never reaches
// subscribers; the last decoded event is left untouched.
func (d *Dispatcher) HandleFrame(data []byte) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Type == "" {
		d.malformed.Add(1)
		d.appendFrame(string(data))
		return
	}

	ev := Event{
		Type:       head.Type,
		Raw:        append(json.RawMessage(nil), data...),
		ReceivedAt: time.Now().UTC(),
	}
	d.decoded.Add(1)
	d.appendFrame(string(data))
	d.Publish(ev)
}

// Publish delivers an event to every matching subscriber without blocking:
// a full queue sheds its oldest entry first.
func (d *Dispatcher) Publish(ev Event) {
	d.mu.Lock()
	d.last = ev
	subs := make([]*Subscription, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, sub := range subs {
		if !sub.wants(ev.Type) {
			continue
		}
		sub.deliver(ev)
	}
}

// LastEvent returns the most recently decoded event, kept for the status
// surface and for parity with the upstream latest-event semantics.
func (d *Dispatcher) LastEvent() Event {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

// FrameLog returns a copy of the bounded raw-frame history.
func (d *Dispatcher) FrameLog() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.frameLog))
	copy(out, d.frameLog)
	return out
}

// Stats reports decoded and malformed frame totals.
func (d *Dispatcher) Stats() (decoded, malformed int64) {
	return d.decoded.Load(), d.malformed.Load()
}

func (d *Dispatcher) appendFrame(raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frameLog = append(d.frameLog, raw)
	if len(d.frameLog) > frameLogCap {
		d.frameLog = d.frameLog[len(d.frameLog)-frameLogCap:]
	}
}

package notify

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"

	"github.com/cleverdining/datahub/internal/stream"
)

func newTestNotifier() *Notifier {
	return New("", "mia", nil, log.New(io.Discard, "", 0))
}

func chatEvent(sender, message string) stream.Event {
	raw, _ := json.Marshal(map[string]string{
		"type": stream.EventChatMessage, "sender": sender, "message": message,
	})
	return stream.Event{Type: stream.EventChatMessage, Raw: raw}
}

func TestOwnChatMessagesAreNotUnread(t *testing.T) {
	n := newTestNotifier()
	n.Handle(context.Background(), chatEvent("mia", "on my way"))
	if n.Unread() != 0 {
		t.Fatalf("unread = %d, own message must not count", n.Unread())
	}
}

func TestOtherSendersIncrementUnread(t *testing.T) {
	n := newTestNotifier()
	n.Handle(context.Background(), chatEvent("kay", "table 4 ready"))
	n.Handle(context.Background(), chatEvent("kay", "table 5 too"))
	if n.Unread() != 2 {
		t.Fatalf("unread = %d, want 2", n.Unread())
	}

	n.ResetUnread()
	if n.Unread() != 0 {
		t.Fatalf("unread = %d after reset, want 0", n.Unread())
	}
}

func TestMalformedChatPayloadIgnored(t *testing.T) {
	n := newTestNotifier()
	n.Handle(context.Background(), stream.Event{
		Type: stream.EventChatMessage,
		Raw:  json.RawMessage(`"not an object"`),
	})
	if n.Unread() != 0 {
		t.Fatalf("unread = %d after malformed payload, want 0", n.Unread())
	}
}

func TestCashAlertCountedWithoutBroker(t *testing.T) {
	n := newTestNotifier()
	raw, _ := json.Marshal(map[string]any{
		"type": stream.EventCashPaymentAlert, "order_id": 12,
		"table_name": "T4", "total": "38.50", "tip": "4.00",
	})
	n.Handle(context.Background(), stream.Event{Type: stream.EventCashPaymentAlert, Raw: raw})
	if n.AlertsSeen() != 1 {
		t.Fatalf("alerts = %d, want 1", n.AlertsSeen())
	}
}

func TestUnrelatedEventIsNoop(t *testing.T) {
	n := newTestNotifier()
	n.Handle(context.Background(), stream.Event{Type: stream.EventOrderUpdated})
	if n.Unread() != 0 || n.AlertsSeen() != 0 {
		t.Fatal("unrelated event must not touch counters")
	}
}

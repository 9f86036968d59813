package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cleverdining/datahub/internal/stream"
)

const (
	cashAlertQueue = "datahub.cash_alerts"
	unreadRedisKey = "datahub:chat:unread"
)

// Notifier consumes the feed's side-effect events independently of the
// domain stores, the way the dashboard's socket provider handled them
// outside any context.
type Notifier struct {
	logger      *log.Logger
	amqpURL     string
	rdb         *redis.Client
	currentUser string

	unread     atomic.Int64
	alertsSeen atomic.Int64
}

func New(amqpURL, currentUser string, rdb *redis.Client, logger *log.Logger) *Notifier {
	return &Notifier{logger: logger, amqpURL: amqpURL, rdb: rdb, currentUser: currentUser}
}

// Unread returns the count of chat messages from other senders since the
// last reset.
func (n *Notifier) Unread() int64 { return n.unread.Load() }

// ResetUnread zeroes the counter, e.g. when the operator opens the chat.
func (n *Notifier) ResetUnread() {
	n.unread.Store(0)
	if n.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := n.rdb.Del(ctx, unreadRedisKey).Err(); err != nil {
			n.logger.Printf("⚠️  Failed to reset unread counter in Redis: %v", err)
		}
	}
}

// AlertsSeen reports how many cash payment alerts arrived.
func (n *Notifier) AlertsSeen() int64 { return n.alertsSeen.Load() }

// Run drains chat and cash-alert events until the context ends.
func (n *Notifier) Run(ctx context.Context, d *stream.Dispatcher) {
	sub := d.Subscribe(64, stream.EventChatMessage, stream.EventCashPaymentAlert)
	defer d.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			n.Handle(ctx, ev)
		}
	}
}

// Handle processes one event. Exported so tests can feed events directly.
func (n *Notifier) Handle(ctx context.Context, ev stream.Event) {
	switch ev.Type {
	case stream.EventChatMessage:
		var msg stream.ChatMessage
		if err := json.Unmarshal(ev.Raw, &msg); err != nil {
			n.logger.Printf("⚠️  Bad chat_message payload: %v", err)
			return
		}
		// Own messages echo back over the feed; they are not unread.
		if msg.Sender == n.currentUser {
			return
		}
		n.unread.Add(1)
		if n.rdb != nil {
			rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := n.rdb.Incr(rctx, unreadRedisKey).Err(); err != nil {
				n.logger.Printf("⚠️  Failed to bump unread counter in Redis: %v", err)
			}
			cancel()
		}

	case stream.EventCashPaymentAlert:
		var alert stream.CashPaymentAlert
		if err := json.Unmarshal(ev.Raw, &alert); err != nil {
			n.logger.Printf("⚠️  Bad cash_payment_alert payload: %v", err)
			return
		}
		n.alertsSeen.Add(1)
		n.logger.Printf("💵 Cash payment: order #%d at %s, total %s (tip %s)",
			alert.OrderID, alert.TableName, alert.Total, alert.Tip)
		if n.amqpURL != "" {
			// Best effort, like the dashboard's notification sound.
			_ = publishJSON(ctx, n.amqpURL, cashAlertQueue, alert, n.logger)
		}
	}
}

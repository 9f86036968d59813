// Package stream maintains the live WebSocket feed from the Cleverdining
// platform and fans decoded events out to subscribers over bounded queues.
package stream

import (
	"encoding/json"
	"time"
)

// Inbound frame discriminators used by the platform. The set is open-ended;
// consumers ignore types they don't know.
const (
	EventOrderCreated       = "order_created"
	EventOrderUpdated       = "order_updated"
	EventOrderPaid          = "order_paid"
	EventPaidOrder          = "paid_order"
	EventItemCreated        = "item_created"
	EventItemUpdated        = "item_updated"
	EventItemDeleted        = "item_deleted"
	EventReservationCreated = "reservation_created"
	EventReservationUpdated = "reservation_updated"
	EventDeviceUpdated      = "device_updated"
	EventDeviceDeleted      = "device_deleted"
	EventChefStaffCreated   = "chefstaff_created"
	EventChefStaffDeleted   = "chefstaff_deleted"
	EventCategoryDeleted    = "category_deleted"
	EventCashPaymentAlert   = "cash_payment_alert"
	EventChatMessage        = "chat_message"

	// EventStreamResync is synthesized locally after a reconnect so every
	// store runs a catch-up fetch for whatever was missed while offline.
	EventStreamResync = "stream_resync"
)

// Event is one decoded frame. Raw keeps the full payload so subscribers can
// unmarshal the fields they care about.
type Event struct {
	Type       string          `json:"type"`
	Raw        json.RawMessage `json:"-"`
	ReceivedAt time.Time       `json:"-"`
}

// ChatMessage is the payload of a chat_message frame.
type ChatMessage struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// CashPaymentAlert is the payload of a cash_payment_alert frame.
type CashPaymentAlert struct {
	OrderID   int64  `json:"order_id"`
	TableName string `json:"table_name"`
	Total     string `json:"total"`
	Tip       string `json:"tip"`
}

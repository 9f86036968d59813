package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of kitchen states an order moves through.
// "paid" is not a kitchen state: it is derived from payment_status but the
// upstream API reports it through the same field, so it is part of the enum.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderPaid      OrderStatus = "paid"
)

// NormalizeOrderStatus lowercases the upstream value ("Cancelled" and
// "cancelled" both appear on the wire) and reports whether it is known.
func NormalizeOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case OrderPending, OrderPreparing, OrderServed, OrderCompleted, OrderCancelled, OrderPaid:
		return st, true
	}
	return st, false
}

// OfferedTransitions returns the statuses an operator may move an order to
// from its current status. A paid order can only be completed.
func OfferedTransitions(current OrderStatus) []OrderStatus {
	switch current {
	case OrderPaid:
		return []OrderStatus{OrderCompleted}
	case OrderPending:
		return []OrderStatus{OrderPreparing, OrderServed, OrderCompleted, OrderCancelled}
	case OrderPreparing:
		return []OrderStatus{OrderServed, OrderCompleted, OrderCancelled}
	case OrderServed:
		return []OrderStatus{OrderCompleted, OrderCancelled}
	default:
		// completed / cancelled are terminal
		return nil
	}
}

// CanTransition reports whether moving from to is allowed by OfferedTransitions.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range OfferedTransitions(from) {
		if s == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID            int64           `gorm:"primaryKey;column:id"`
	DeviceName    string          `gorm:"column:device_name"`
	Status        OrderStatus     `gorm:"column:status"`
	PaymentStatus string          `gorm:"column:payment_status"`
	TotalPrice    decimal.Decimal `gorm:"column:total_price;type:numeric(12,2)"`
	CreatedTime   *time.Time      `gorm:"column:created_time"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

type OrderItem struct {
	ID       int64           `gorm:"primaryKey;column:id"`
	OrderID  int64           `gorm:"column:order_id"`
	FoodID   int64           `gorm:"column:food_id"`
	FoodName string          `gorm:"column:food_name"`
	Quantity int             `gorm:"column:quantity"`
	Price    decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
}

func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

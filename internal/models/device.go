package models

import (
	"strings"
	"time"
)

// ActionStatus is shared by devices (tables) and staff members: both are
// either active or put on hold by an operator.
type ActionStatus string

const (
	ActionActive ActionStatus = "active"
	ActionHold   ActionStatus = "hold"
)

func NormalizeActionStatus(s string) (ActionStatus, bool) {
	st := ActionStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case ActionActive, ActionHold:
		return st, true
	}
	return st, false
}

// Device is a table-side ordering device registered to a restaurant region.
type Device struct {
	ID     int64        `gorm:"primaryKey;column:id"`
	Table  string       `gorm:"column:table_name"`
	Region string       `gorm:"column:region"`
	Action ActionStatus `gorm:"column:action"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Device) TableName() string { return "devices" }

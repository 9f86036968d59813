package models

import (
	"strings"
	"time"
)

// ReservationStatus drives the accept/hold/cancel dropdown upstream.
type ReservationStatus string

const (
	ReservationAccept ReservationStatus = "accept"
	ReservationHold   ReservationStatus = "hold"
	ReservationCancel ReservationStatus = "cancel"
)

func NormalizeReservationStatus(s string) (ReservationStatus, bool) {
	st := ReservationStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case ReservationAccept, ReservationHold, ReservationCancel:
		return st, true
	}
	return st, false
}

type Reservation struct {
	ID              int64             `gorm:"primaryKey;column:id"`
	CustomerName    string            `gorm:"column:customer_name"`
	TableNo         string            `gorm:"column:table_no"`
	GuestNo         int               `gorm:"column:guest_no"`
	CellNumber      string            `gorm:"column:cell_number"`
	Email           string            `gorm:"column:email"`
	ReservationTime *time.Time        `gorm:"column:reservation_time"`
	Status          ReservationStatus `gorm:"column:status"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Reservation) TableName() string { return "reservations" }

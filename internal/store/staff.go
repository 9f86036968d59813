package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cleverdining/datahub/internal/api"
	"github.com/cleverdining/datahub/internal/models"
	"github.com/cleverdining/datahub/internal/stream"
)

// StaffStore serves both staff and chef sessions: the role prefix comes from
// the session, and the endpoint table decides which slices the role can
// actually reach (a chef only sees orders).
type StaffStore struct {
	base

	Orders       *Collection[models.Order]
	Reservations *Collection[models.Reservation]
	Foods        *Collection[models.FoodItem]
}

func NewStaffStore(client *api.Client, roles RoleSource, logger *log.Logger) *StaffStore {
	return &StaffStore{
		base:         base{api: client, roles: roles, logger: logger},
		Orders:       NewCollection[models.Order]("orders"),
		Reservations: NewCollection[models.Reservation]("reservations"),
		Foods:        NewCollection[models.FoodItem]("food_items"),
	}
}

func (s *StaffStore) FetchOrders(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Orders, page, search, s.api.FetchOrders)
}

func (s *StaffStore) FetchReservations(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Reservations, page, search, s.api.FetchReservations)
}

func (s *StaffStore) FetchFoodItems(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Foods, page, search, s.api.FetchFoodItems)
}

// FetchAll loads the slices the session's role is allowed to see. A slice
// the endpoint table withholds from the role is skipped; a transport
// failure on an allowed slice is a real error.
func (s *StaffStore) FetchAll(ctx context.Context) error {
	if err := refreshList(ctx, &s.base, s.Orders, s.api.FetchOrders); err != nil {
		return err
	}
	if err := refreshList(ctx, &s.base, s.Reservations, s.api.FetchReservations); err != nil && !errors.Is(err, api.ErrResourceForbidden) {
		return err
	}
	if err := refreshList(ctx, &s.base, s.Foods, s.api.FetchFoodItems); err != nil && !errors.Is(err, api.ErrResourceForbidden) {
		return err
	}
	return nil
}

// UpdateOrderStatus mirrors the owner path: optimistic apply with rollback,
// paid orders restricted to completion.
func (s *StaffStore) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	role, err := s.role()
	if err != nil {
		return err
	}

	current, ok := s.Orders.Find(func(o models.Order) bool { return o.ID == id })
	if !ok {
		return ErrNotFound
	}
	if !models.CanTransition(current.Status, status) {
		return fmt.Errorf("%w: %s → %s", ErrBadTransition, current.Status, status)
	}

	return s.Orders.Mutate(
		func(o models.Order) bool { return o.ID == id },
		func(o *models.Order) { o.Status = status },
		func() error { return s.api.UpdateOrderStatus(ctx, role, id, status) },
	)
}

func (s *StaffStore) UpdateReservationStatus(ctx context.Context, id int64, status models.ReservationStatus) error {
	role, err := s.role()
	if err != nil {
		return err
	}
	return s.Reservations.Mutate(
		func(r models.Reservation) bool { return r.ID == id },
		func(r *models.Reservation) { r.Status = status },
		func() error { return s.api.UpdateReservationStatus(ctx, role, id, status) },
	)
}

// Run drains the staff queue; order and reservation events map to refetches.
func (s *StaffStore) Run(ctx context.Context, d *stream.Dispatcher) {
	sub := d.Subscribe(64,
		stream.EventOrderCreated, stream.EventOrderUpdated,
		stream.EventOrderPaid, stream.EventPaidOrder,
		stream.EventReservationCreated, stream.EventReservationUpdated,
		stream.EventItemCreated, stream.EventItemUpdated, stream.EventItemDeleted,
		stream.EventStreamResync,
	)
	defer d.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *StaffStore) handleEvent(ctx context.Context, ev stream.Event) {
	var err error
	switch ev.Type {
	case stream.EventOrderCreated, stream.EventOrderUpdated, stream.EventOrderPaid, stream.EventPaidOrder:
		err = refreshList(ctx, &s.base, s.Orders, s.api.FetchOrders)
	case stream.EventReservationCreated, stream.EventReservationUpdated:
		err = refreshList(ctx, &s.base, s.Reservations, s.api.FetchReservations)
	case stream.EventItemCreated, stream.EventItemUpdated, stream.EventItemDeleted:
		err = refreshList(ctx, &s.base, s.Foods, s.api.FetchFoodItems)
	case stream.EventStreamResync:
		err = s.FetchAll(ctx)
	}
	if err != nil && !errors.Is(err, api.ErrResourceForbidden) {
		s.logger.Printf("⚠️  Staff refresh for %s failed: %v", ev.Type, err)
	}
}

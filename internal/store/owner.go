package store

import (
	"context"
	"fmt"
	"log"

	"github.com/cleverdining/datahub/internal/api"
	"github.com/cleverdining/datahub/internal/models"
	"github.com/cleverdining/datahub/internal/stream"
)

// OwnerStore owns the owner dashboard's slices: food items, orders,
// reservations, devices, members and categories.
type OwnerStore struct {
	base

	Foods        *Collection[models.FoodItem]
	Orders       *Collection[models.Order]
	Reservations *Collection[models.Reservation]
	Devices      *Collection[models.Device]
	Members      *Collection[models.Member]
	Categories   *Collection[models.Category]
}

func NewOwnerStore(client *api.Client, roles RoleSource, logger *log.Logger) *OwnerStore {
	return &OwnerStore{
		base:         base{api: client, roles: roles, logger: logger},
		Foods:        NewCollection[models.FoodItem]("food_items"),
		Orders:       NewCollection[models.Order]("orders"),
		Reservations: NewCollection[models.Reservation]("reservations"),
		Devices:      NewCollection[models.Device]("devices"),
		Members:      NewCollection[models.Member]("members"),
		Categories:   NewCollection[models.Category]("categories"),
	}
}

// --- fetches ---

func (s *OwnerStore) FetchFoodItems(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Foods, page, search, s.api.FetchFoodItems)
}

func (s *OwnerStore) FetchOrders(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Orders, page, search, s.api.FetchOrders)
}

func (s *OwnerStore) FetchReservations(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Reservations, page, search, s.api.FetchReservations)
}

func (s *OwnerStore) FetchDevices(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Devices, page, search, s.api.FetchDevices)
}

func (s *OwnerStore) FetchMembers(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Members, page, search, s.api.FetchMembers)
}

func (s *OwnerStore) FetchCategories(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Categories, page, search, s.api.FetchCategories)
}

// FetchAll loads every owner slice; used on startup and after a resync.
func (s *OwnerStore) FetchAll(ctx context.Context) error {
	var firstErr error
	for _, f := range []func(context.Context) error{
		func(ctx context.Context) error { return refreshList(ctx, &s.base, s.Foods, s.api.FetchFoodItems) },
		func(ctx context.Context) error { return refreshList(ctx, &s.base, s.Orders, s.api.FetchOrders) },
		func(ctx context.Context) error {
			return refreshList(ctx, &s.base, s.Reservations, s.api.FetchReservations)
		},
		func(ctx context.Context) error { return refreshList(ctx, &s.base, s.Devices, s.api.FetchDevices) },
		func(ctx context.Context) error { return refreshList(ctx, &s.base, s.Members, s.api.FetchMembers) },
		func(ctx context.Context) error { return refreshList(ctx, &s.base, s.Categories, s.api.FetchCategories) },
	} {
		if err := f(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// --- structural mutations: REST call then full refetch ---

func (s *OwnerStore) CreateFoodItem(ctx context.Context, in api.FoodItemInput) error {
	return mutateThenRefresh(ctx, &s.base, s.Foods, func(r models.Role) error {
		return s.api.CreateFoodItem(ctx, r, in)
	}, s.api.FetchFoodItems)
}

func (s *OwnerStore) UpdateFoodItem(ctx context.Context, id int64, in api.FoodItemInput) error {
	return mutateThenRefresh(ctx, &s.base, s.Foods, func(r models.Role) error {
		return s.api.UpdateFoodItem(ctx, r, id, in)
	}, s.api.FetchFoodItems)
}

func (s *OwnerStore) DeleteFoodItem(ctx context.Context, id int64) error {
	return mutateThenRefresh(ctx, &s.base, s.Foods, func(r models.Role) error {
		return s.api.DeleteFoodItem(ctx, r, id)
	}, s.api.FetchFoodItems)
}

func (s *OwnerStore) CreateMember(ctx context.Context, in api.MemberInput) error {
	return mutateThenRefresh(ctx, &s.base, s.Members, func(r models.Role) error {
		return s.api.CreateMember(ctx, r, in)
	}, s.api.FetchMembers)
}

func (s *OwnerStore) DeleteMember(ctx context.Context, id int64) error {
	return mutateThenRefresh(ctx, &s.base, s.Members, func(r models.Role) error {
		return s.api.DeleteMember(ctx, r, id)
	}, s.api.FetchMembers)
}

func (s *OwnerStore) CreateCategory(ctx context.Context, in api.CategoryInput) error {
	return mutateThenRefresh(ctx, &s.base, s.Categories, func(r models.Role) error {
		return s.api.CreateCategory(ctx, r, in)
	}, s.api.FetchCategories)
}

func (s *OwnerStore) DeleteCategory(ctx context.Context, id int64) error {
	return mutateThenRefresh(ctx, &s.base, s.Categories, func(r models.Role) error {
		return s.api.DeleteCategory(ctx, r, id)
	}, s.api.FetchCategories)
}

func (s *OwnerStore) DeleteDevice(ctx context.Context, id int64) error {
	return mutateThenRefresh(ctx, &s.base, s.Devices, func(r models.Role) error {
		return s.api.DeleteDevice(ctx, r, id)
	}, s.api.FetchDevices)
}

// --- optimistic status mutations ---

// UpdateOrderStatus applies the status locally, then awaits the server and
// rolls back on rejection. Transitions are checked first: a paid order may
// only be completed.
func (s *OwnerStore) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
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

func (s *OwnerStore) UpdateReservationStatus(ctx context.Context, id int64, status models.ReservationStatus) error {
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

func (s *OwnerStore) UpdateDeviceStatus(ctx context.Context, id int64, status models.ActionStatus) error {
	role, err := s.role()
	if err != nil {
		return err
	}
	return s.Devices.Mutate(
		func(d models.Device) bool { return d.ID == id },
		func(d *models.Device) { d.Action = status },
		func() error { return s.api.UpdateDeviceStatus(ctx, role, id, status) },
	)
}

func (s *OwnerStore) UpdateMemberStatus(ctx context.Context, id int64, status models.ActionStatus) error {
	role, err := s.role()
	if err != nil {
		return err
	}
	return s.Members.Mutate(
		func(m models.Member) bool { return m.ID == id },
		func(m *models.Member) { m.Action = status },
		func() error { return s.api.UpdateMemberStatus(ctx, role, id, status) },
	)
}

// --- feed subscription ---

// Run subscribes the store to the feed and drains its own queue: each event
// type maps to the refetch of exactly one resource.
func (s *OwnerStore) Run(ctx context.Context, d *stream.Dispatcher) {
	sub := d.Subscribe(64,
		stream.EventOrderCreated, stream.EventOrderUpdated,
		stream.EventOrderPaid, stream.EventPaidOrder, stream.EventCashPaymentAlert,
		stream.EventItemCreated, stream.EventItemUpdated, stream.EventItemDeleted,
		stream.EventReservationCreated, stream.EventReservationUpdated,
		stream.EventDeviceUpdated, stream.EventDeviceDeleted,
		stream.EventChefStaffCreated, stream.EventChefStaffDeleted,
		stream.EventCategoryDeleted,
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

func (s *OwnerStore) handleEvent(ctx context.Context, ev stream.Event) {
	var err error
	switch ev.Type {
	case stream.EventOrderCreated, stream.EventOrderUpdated, stream.EventOrderPaid,
		stream.EventPaidOrder, stream.EventCashPaymentAlert:
		err = refreshList(ctx, &s.base, s.Orders, s.api.FetchOrders)
	case stream.EventItemCreated, stream.EventItemUpdated, stream.EventItemDeleted:
		err = refreshList(ctx, &s.base, s.Foods, s.api.FetchFoodItems)
	case stream.EventReservationCreated, stream.EventReservationUpdated:
		err = refreshList(ctx, &s.base, s.Reservations, s.api.FetchReservations)
	case stream.EventDeviceUpdated, stream.EventDeviceDeleted:
		err = refreshList(ctx, &s.base, s.Devices, s.api.FetchDevices)
	case stream.EventChefStaffCreated, stream.EventChefStaffDeleted:
		err = refreshList(ctx, &s.base, s.Members, s.api.FetchMembers)
	case stream.EventCategoryDeleted:
		err = refreshList(ctx, &s.base, s.Categories, s.api.FetchCategories)
	case stream.EventStreamResync:
		err = s.FetchAll(ctx)
	}
	if err != nil {
		s.logger.Printf("⚠️  Owner refresh for %s failed: %v", ev.Type, err)
	}
}

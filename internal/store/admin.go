package store

import (
	"context"
	"log"

	"github.com/cleverdining/datahub/internal/api"
	"github.com/cleverdining/datahub/internal/models"
	"github.com/cleverdining/datahub/internal/stream"
)

// AdminStore is the platform-admin view: restaurants and their members.
type AdminStore struct {
	base

	Restaurants *Collection[models.Restaurant]
	Members     *Collection[models.Member]
}

func NewAdminStore(client *api.Client, roles RoleSource, logger *log.Logger) *AdminStore {
	return &AdminStore{
		base:        base{api: client, roles: roles, logger: logger},
		Restaurants: NewCollection[models.Restaurant]("restaurants"),
		Members:     NewCollection[models.Member]("members"),
	}
}

func (s *AdminStore) FetchRestaurants(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Restaurants, page, search, s.api.FetchRestaurants)
}

func (s *AdminStore) FetchMembers(ctx context.Context, page int, search string) error {
	return fetchList(ctx, &s.base, s.Members, page, search, s.api.FetchMembers)
}

func (s *AdminStore) FetchAll(ctx context.Context) error {
	if err := refreshList(ctx, &s.base, s.Restaurants, s.api.FetchRestaurants); err != nil {
		return err
	}
	return refreshList(ctx, &s.base, s.Members, s.api.FetchMembers)
}

func (s *AdminStore) UpdateMemberStatus(ctx context.Context, id int64, status models.ActionStatus) error {
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

// Run drains the admin queue; member events and resyncs trigger refetches.
func (s *AdminStore) Run(ctx context.Context, d *stream.Dispatcher) {
	sub := d.Subscribe(64,
		stream.EventChefStaffCreated, stream.EventChefStaffDeleted,
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
			var err error
			switch ev.Type {
			case stream.EventChefStaffCreated, stream.EventChefStaffDeleted:
				err = refreshList(ctx, &s.base, s.Members, s.api.FetchMembers)
			case stream.EventStreamResync:
				err = s.FetchAll(ctx)
			}
			if err != nil {
				s.logger.Printf("⚠️  Admin refresh for %s failed: %v", ev.Type, err)
			}
		}
	}
}

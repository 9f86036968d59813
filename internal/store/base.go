package store

import (
	"context"
	"errors"
	"log"

	"github.com/cleverdining/datahub/internal/api"
	"github.com/cleverdining/datahub/internal/models"
)

// RoleSource is satisfied by the session store. Every fetch is gated on it:
// until the role resolves, store operations are no-ops that never touch the
// network, so no request can go out with an undetermined role prefix.
type RoleSource interface {
	Role() (models.Role, bool)
}

type base struct {
	api    *api.Client
	roles  RoleSource
	logger *log.Logger
}

func (b *base) role() (models.Role, error) {
	r, ok := b.roles.Role()
	if !ok {
		return "", api.ErrRoleUnresolved
	}
	return r, nil
}

type fetchFunc[T any] func(ctx context.Context, role models.Role, page int, search string) (api.Page[T], error)

// fetchList runs one role-gated, sequence-guarded list fetch. On error the
// existing list stays in place.
func fetchList[T any](ctx context.Context, b *base, c *Collection[T], page int, search string, fetch fetchFunc[T]) error {
	role, err := b.role()
	if err != nil {
		return err
	}

	seq := c.begin()
	p, err := fetch(ctx, role, page, search)
	if err != nil {
		if !errors.Is(err, api.ErrResourceForbidden) {
			b.logger.Printf("❌ Fetch %s failed: %v", c.Name(), err)
		}
		return err
	}
	if !c.applyPage(seq, p, search) {
		b.logger.Printf("⏭  Dropped stale %s response (page %d)", c.Name(), page)
	}
	return nil
}

// refreshList refetches whatever page and search term are currently loaded;
// feed events and post-mutation reloads both land here.
func refreshList[T any](ctx context.Context, b *base, c *Collection[T], fetch fetchFunc[T]) error {
	page := c.Page()
	if page <= 0 {
		page = 1
	}
	return fetchList(ctx, b, c, page, c.Search(), fetch)
}

// mutateThenRefresh issues a structural mutation (create/update/delete) and
// reloads the full list on success, keeping the local slice at server truth.
func mutateThenRefresh[T any](ctx context.Context, b *base, c *Collection[T], op func(models.Role) error, fetch fetchFunc[T]) error {
	role, err := b.role()
	if err != nil {
		return err
	}
	if err := op(role); err != nil {
		b.logger.Printf("❌ Mutation on %s failed: %v", c.Name(), err)
		return err
	}
	return refreshList(ctx, b, c, fetch)
}

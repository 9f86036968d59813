package store

import (
	"errors"
	"testing"

	"github.com/cleverdining/datahub/internal/api"
	"github.com/cleverdining/datahub/internal/models"
)

func seededOrders(statuses ...models.OrderStatus) *Collection[models.Order] {
	c := NewCollection[models.Order]("orders")
	items := make([]models.Order, len(statuses))
	for i, st := range statuses {
		items[i] = models.Order{ID: int64(i + 1), Status: st}
	}
	seq := c.begin()
	c.applyPage(seq, api.Page[models.Order]{Count: len(items), Page: 1, Results: items}, "")
	return c
}

func TestMutateCommit(t *testing.T) {
	c := seededOrders(models.OrderPending)

	err := c.Mutate(
		func(o models.Order) bool { return o.ID == 1 },
		func(o *models.Order) { o.Status = models.OrderPreparing },
		func() error { return nil },
	)
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	got, _ := c.Find(func(o models.Order) bool { return o.ID == 1 })
	if got.Status != models.OrderPreparing {
		t.Fatalf("status = %s, want preparing", got.Status)
	}
}

func TestMutateRollbackOnRejection(t *testing.T) {
	c := seededOrders(models.OrderPending)

	boom := errors.New("server said no")
	var applied models.OrderStatus
	err := c.Mutate(
		func(o models.Order) bool { return o.ID == 1 },
		func(o *models.Order) { o.Status = models.OrderCancelled },
		func() error {
			// Optimistic apply must be visible while the call is in flight.
			got, _ := c.Find(func(o models.Order) bool { return o.ID == 1 })
			applied = got.Status
			return boom
		},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("want mutation error, got %v", err)
	}
	if applied != models.OrderCancelled {
		t.Fatalf("in-flight status = %s, want cancelled (optimistic)", applied)
	}
	got, _ := c.Find(func(o models.Order) bool { return o.ID == 1 })
	if got.Status != models.OrderPending {
		t.Fatalf("after rollback status = %s, want pending", got.Status)
	}
}

func TestMutateUnknownEntity(t *testing.T) {
	c := seededOrders(models.OrderPending)
	err := c.Mutate(
		func(o models.Order) bool { return o.ID == 99 },
		func(o *models.Order) { o.Status = models.OrderServed },
		func() error { return nil },
	)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestStaleResponseSuppressed(t *testing.T) {
	c := NewCollection[models.FoodItem]("food_items")

	slowSeq := c.begin() // page 1 fetch starts first...
	fastSeq := c.begin() // ...but the page 2 fetch returns first

	fresh := api.Page[models.FoodItem]{Count: 2, Page: 2, Results: []models.FoodItem{{ID: 2, Name: "fresh"}}}
	if !c.applyPage(fastSeq, fresh, "") {
		t.Fatal("fresh response must apply")
	}

	stale := api.Page[models.FoodItem]{Count: 2, Page: 1, Results: []models.FoodItem{{ID: 1, Name: "stale"}}}
	if c.applyPage(slowSeq, stale, "") {
		t.Fatal("stale response must be dropped")
	}

	items := c.Items()
	if len(items) != 1 || items[0].Name != "fresh" {
		t.Fatalf("state overwritten by stale response: %+v", items)
	}
	if c.Page() != 2 {
		t.Fatalf("page = %d, want 2", c.Page())
	}
}

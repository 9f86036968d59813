package mirror

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/cleverdining/datahub/internal/store"
	"github.com/cleverdining/datahub/internal/stream"
)

// Runner keeps the Postgres mirror in step with the owner store. The store
// is the source: it already holds whatever the API and feed agreed on, so
// mirroring is a local transaction away from consistent.
type Runner struct {
	DB        *gorm.DB
	Owner     *store.OwnerStore
	Logger    *log.Logger
	BatchSize int

	// Quiet is the debounce window between feed activity and a re-mirror.
	Quiet time.Duration
}

func NewRunner(gdb *gorm.DB, owner *store.OwnerStore, lg *log.Logger) *Runner {
	return &Runner{DB: gdb, Owner: owner, Logger: lg, BatchSize: 500, Quiet: 2 * time.Second}
}

// InitialSync fetches every owner slice in parallel, then writes the first
// mirror snapshot.
func (r *Runner) InitialSync(ctx context.Context) error {
	lg := r.Logger
	lg.Println("▶️ Starting initial sync...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.Owner.FetchFoodItems(gctx, 1, "") })
	g.Go(func() error { return r.Owner.FetchOrders(gctx, 1, "") })
	g.Go(func() error { return r.Owner.FetchReservations(gctx, 1, "") })
	g.Go(func() error { return r.Owner.FetchDevices(gctx, 1, "") })
	g.Go(func() error { return r.Owner.FetchMembers(gctx, 1, "") })
	g.Go(func() error { return r.Owner.FetchCategories(gctx, 1, "") })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("initial fetch: %w", err)
	}

	if err := r.MirrorAll(); err != nil {
		return fmt.Errorf("initial mirror: %w", err)
	}
	lg.Println("✅ Initial sync complete.")
	return nil
}

// MirrorAll writes the current store state into the mirror tables in one
// transaction and advances every watermark.
func (r *Runner) MirrorAll() error {
	lg := r.Logger

	tx := r.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	or := NewOrdersRepo(tx, lg)
	if err := or.UpsertBatch(r.Owner.Orders.Items(), r.BatchSize); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mirror orders: %w", err)
	}
	if err := upsertBatch(tx, r.Owner.Foods.Items(), r.BatchSize); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mirror food items: %w", err)
	}
	if err := upsertBatch(tx, r.Owner.Reservations.Items(), r.BatchSize); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mirror reservations: %w", err)
	}
	if err := upsertBatch(tx, r.Owner.Devices.Items(), r.BatchSize); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mirror devices: %w", err)
	}
	if err := upsertBatch(tx, r.Owner.Members.Items(), r.BatchSize); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mirror members: %w", err)
	}
	if err := upsertBatch(tx, r.Owner.Categories.Items(), r.BatchSize); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mirror categories: %w", err)
	}

	wr := NewWatermarksRepo(tx, lg)
	now := time.Now().UTC()
	for _, entity := range []string{"food_items", "orders", "reservations", "devices", "members", "categories"} {
		if err := wr.UpsertLastSynced(entity, now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update %s watermark: %w", entity, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}
	lg.Printf("💾 Mirror committed (orders=%d foods=%d reservations=%d)",
		len(r.Owner.Orders.Items()), len(r.Owner.Foods.Items()), len(r.Owner.Reservations.Items()))
	return nil
}

// Run re-mirrors after feed activity. Only domain events count: chat and
// alert frames never touch mirrored tables. Events are debounced with a
// short quiet window so a burst of updates produces one transaction, not
// ten.
func (r *Runner) Run(ctx context.Context, d *stream.Dispatcher) {
	sub := d.Subscribe(128,
		stream.EventOrderCreated, stream.EventOrderUpdated,
		stream.EventOrderPaid, stream.EventPaidOrder,
		stream.EventItemCreated, stream.EventItemUpdated, stream.EventItemDeleted,
		stream.EventReservationCreated, stream.EventReservationUpdated,
		stream.EventDeviceUpdated, stream.EventDeviceDeleted,
		stream.EventChefStaffCreated, stream.EventChefStaffDeleted,
		stream.EventCategoryDeleted,
		stream.EventStreamResync,
	)
	defer d.Unsubscribe(sub)

	quiet := r.Quiet
	if quiet <= 0 {
		quiet = 2 * time.Second
	}
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(quiet)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(quiet)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := r.MirrorAll(); err != nil {
				r.Logger.Printf("⚠️  Mirror sync failed: %v", err)
			}
		}
	}
}

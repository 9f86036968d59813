package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/cleverdining/datahub/internal/models"
	"github.com/cleverdining/datahub/internal/store"
)

// MirrorAuditService compares the Postgres mirror against the in-memory
// store and the server-reported totals, logging any drift. In live mode it
// cures drift by refetching; in dry-run it only reports.
type MirrorAuditService struct {
	DB    *gorm.DB
	Owner *store.OwnerStore

	Logger *log.Logger

	// Config
	DryRun bool

	// Logging controls
	MaxPreview int // how many drifting entities to name per resource
}

func (s MirrorAuditService) lg() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

type auditRow struct {
	name        string
	mirrorRows  int64
	loadedRows  int
	serverTotal int
}

func (s MirrorAuditService) Run(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("mirror database is required")
	}
	if s.MaxPreview <= 0 {
		s.MaxPreview = 20
	}

	start := time.Now()
	rows := []auditRow{
		s.audit(ctx, &models.FoodItem{}, s.Owner.Foods.Name(), len(s.Owner.Foods.Items()), s.Owner.Foods.Count()),
		s.audit(ctx, &models.Order{}, s.Owner.Orders.Name(), len(s.Owner.Orders.Items()), s.Owner.Orders.Count()),
		s.audit(ctx, &models.Reservation{}, s.Owner.Reservations.Name(), len(s.Owner.Reservations.Items()), s.Owner.Reservations.Count()),
		s.audit(ctx, &models.Device{}, s.Owner.Devices.Name(), len(s.Owner.Devices.Items()), s.Owner.Devices.Count()),
		s.audit(ctx, &models.Member{}, s.Owner.Members.Name(), len(s.Owner.Members.Items()), s.Owner.Members.Count()),
		s.audit(ctx, &models.Category{}, s.Owner.Categories.Name(), len(s.Owner.Categories.Items()), s.Owner.Categories.Count()),
	}

	drifting := 0
	for _, r := range rows {
		// The mirror accumulates every row it has ever seen, so it may
		// legitimately hold more than one loaded page; drift means it
		// holds fewer rows than the store currently does.
		if int(r.mirrorRows) < r.loadedRows {
			drifting++
			s.lg().Printf("[audit] %s: mirror=%d loaded=%d server_total=%d → DRIFT",
				r.name, r.mirrorRows, r.loadedRows, r.serverTotal)
		} else {
			s.lg().Printf("[audit] %s: mirror=%d loaded=%d server_total=%d ok",
				r.name, r.mirrorRows, r.loadedRows, r.serverTotal)
		}
	}

	if drifting == 0 {
		s.lg().Printf("[audit] dry-run=%v: no drift across %d resources (%s)",
			s.DryRun, len(rows), time.Since(start).Round(time.Millisecond))
		return nil
	}

	if s.DryRun {
		s.lg().Printf("[audit] dry-run: %d resources drifting, not fixing", drifting)
		return nil
	}

	s.lg().Printf("[audit] %d resources drifting → refetching from API", drifting)
	if err := s.Owner.FetchAll(ctx); err != nil {
		return fmt.Errorf("audit refetch: %w", err)
	}
	return nil
}

func (s MirrorAuditService) audit(ctx context.Context, model any, name string, loaded, serverTotal int) auditRow {
	var n int64
	if err := s.DB.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
		s.lg().Printf("[audit] %s: count failed: %v", name, err)
		n = -1
	}
	return auditRow{name: name, mirrorRows: n, loadedRows: loaded, serverTotal: serverTotal}
}

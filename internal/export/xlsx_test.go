package export

import (
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/cleverdining/datahub/internal/models"
)

func TestExportOrders(t *testing.T) {
	created := time.Date(2026, 8, 12, 18, 30, 0, 0, time.UTC)
	orders := []models.Order{
		{
			ID:          7,
			DeviceName:  "T4",
			Status:      models.OrderServed,
			TotalPrice:  decimal.RequireFromString("38.5"),
			Items:       []models.OrderItem{{ID: 1}, {ID: 2}},
			CreatedTime: &created,
		},
	}

	w := NewWriter(t.TempDir(), log.New(io.Discard, "", 0))
	path, err := w.ExportOrders(orders)
	if err != nil {
		t.Fatalf("ExportOrders: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "orders_") || !strings.HasSuffix(path, ".xlsx") {
		t.Fatalf("unexpected export name: %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	if got, _ := f.GetCellValue("Orders", "A1"); got != "ID" {
		t.Fatalf("A1 = %q, want header ID", got)
	}
	if got, _ := f.GetCellValue("Orders", "B2"); got != "T4" {
		t.Fatalf("B2 = %q, want T4", got)
	}
	if got, _ := f.GetCellValue("Orders", "E2"); got != "38.50" {
		t.Fatalf("E2 = %q, want 38.50", got)
	}
	if got, _ := f.GetCellValue("Orders", "F2"); got != "2" {
		t.Fatalf("F2 = %q, want item count 2", got)
	}
}

func TestExportReservations(t *testing.T) {
	at := time.Date(2026, 8, 13, 19, 0, 0, 0, time.UTC)
	reservations := []models.Reservation{
		{
			ID:              3,
			CustomerName:    "Kay",
			TableNo:         "12",
			GuestNo:         4,
			Status:          models.ReservationAccept,
			ReservationTime: &at,
		},
	}

	w := NewWriter(t.TempDir(), log.New(io.Discard, "", 0))
	path, err := w.ExportReservations(reservations)
	if err != nil {
		t.Fatalf("ExportReservations: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	if got, _ := f.GetCellValue("Reservations", "B2"); got != "Kay" {
		t.Fatalf("B2 = %q, want Kay", got)
	}
	if got, _ := f.GetCellValue("Reservations", "H2"); got != "accept" {
		t.Fatalf("H2 = %q, want accept", got)
	}
}

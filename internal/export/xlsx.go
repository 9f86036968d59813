// Package export writes point-in-time spreadsheet snapshots of the mirrored
// state into the export directory.
package export

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cleverdining/datahub/internal/models"
)

type Writer struct {
	Dir    string
	Logger *log.Logger
}

func NewWriter(dir string, lg *log.Logger) *Writer {
	return &Writer{Dir: dir, Logger: lg}
}

// ExportOrders writes the given orders to a timestamped workbook and
// returns its path.
func (w *Writer) ExportOrders(orders []models.Order) (string, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Orders"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"ID", "Table", "Status", "Payment", "Total", "Items", "Created"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for row, o := range orders {
		created := ""
		if o.CreatedTime != nil {
			created = o.CreatedTime.Format(time.RFC3339)
		}
		values := []any{o.ID, o.DeviceName, string(o.Status), o.PaymentStatus,
			o.TotalPrice.StringFixed(2), len(o.Items), created}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	return w.save(f, "orders")
}

// ExportReservations writes the given reservations to a timestamped
// workbook and returns its path.
func (w *Writer) ExportReservations(reservations []models.Reservation) (string, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Reservations"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"ID", "Customer", "Table", "Guests", "Phone", "Email", "Time", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for row, r := range reservations {
		at := ""
		if r.ReservationTime != nil {
			at = r.ReservationTime.Format(time.RFC3339)
		}
		values := []any{r.ID, r.CustomerName, r.TableNo, r.GuestNo,
			r.CellNumber, r.Email, at, string(r.Status)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	return w.save(f, "reservations")
}

func (w *Writer) save(f *excelize.File, prefix string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", w.Dir, err)
	}
	ts := time.Now().UTC().Format("20060102_150405")
	path := filepath.Join(w.Dir, fmt.Sprintf("%s_%s.xlsx", prefix, ts))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	w.Logger.Printf("💾 Exported %s → %s", prefix, path)
	return path, nil
}

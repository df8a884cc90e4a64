package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"innkeep/internal/database"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter writes rental schedule workbooks to the exports directory.
// The schedule sheet is a date-by-item grid; the ledger sheet lists the
// orders of the window one per row.
type Exporter struct {
	db          *database.DB
	exportsPath string
	log         zerolog.Logger
}

func NewExporter(db *database.DB, exportsPath string, logger *zerolog.Logger) *Exporter {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "exporter").Logger()
	}
	return &Exporter{db: db, exportsPath: exportsPath, log: log}
}

// ExportSchedule renders the rental picture for [startDate, endDate]
// into an xlsx file and returns its path.
func (e *Exporter) ExportSchedule(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if endDate.Before(startDate) {
		return "", database.ErrInvalidDateRange
	}
	if err := os.MkdirAll(e.exportsPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	items, err := e.db.GetAvailableItems(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get items: %w", err)
	}
	orders, err := e.db.GetOrdersOverlapping(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("failed to get orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeScheduleSheet(f, items, orders, startDate, endDate); err != nil {
		return "", err
	}
	if err := e.writeLedgerSheet(f, orders); err != nil {
		return "", err
	}
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("rentals_%s_to_%s.xlsx",
		startDate.Format(models.DateLayout),
		endDate.Format(models.DateLayout))
	filePath := filepath.Join(e.exportsPath, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("failed to save export file: %w", err)
	}

	e.log.Info().Str("file_path", filePath).Int("orders", len(orders)).Msg("schedule export created")
	return filePath, nil
}

func (e *Exporter) writeScheduleSheet(f *excelize.File, items []models.Item, orders []models.Order, startDate, endDate time.Time) error {
	const sheetName = "Schedule"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create schedule sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Rentals %s to %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	itemStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	// Date columns across row 2.
	dateCols := make(map[string]int)
	col := 2
	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, day.Format("02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		dateCols[day.Format(models.DateLayout)] = col
		col++
	}

	// Item rows down column A.
	itemRows := make(map[int64]int)
	row := 3
	for _, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%s (%d)", item.Name, item.TotalQty))
		_ = f.SetCellStyle(sheetName, cell, cell, itemStyle)
		itemRows[item.ID] = row
		row++
	}

	// Per-day usage: an order occupies every day of its window.
	usage := make(map[string]map[int64]int64)
	for _, order := range orders {
		for day := order.EventDate; !day.After(order.ReturnDate); day = day.AddDate(0, 0, 1) {
			key := day.Format(models.DateLayout)
			if _, ok := dateCols[key]; !ok {
				continue
			}
			if usage[key] == nil {
				usage[key] = make(map[int64]int64)
			}
			for _, line := range order.Items {
				usage[key][line.ItemID] += line.Quantity
			}
		}
	}

	freeStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	partialStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	fullStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for _, item := range items {
		for dateKey, c := range dateCols {
			used := usage[dateKey][item.ID]
			remaining := item.TotalQty - used
			if remaining < 0 {
				remaining = 0
			}

			cell, _ := excelize.CoordinatesToCellName(c, itemRows[item.ID])
			_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%d/%d", remaining, item.TotalQty))

			style := freeStyle
			switch {
			case remaining == 0:
				style = fullStyle
			case used > 0:
				style = partialStyle
			}
			_ = f.SetCellStyle(sheetName, cell, cell, style)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	lastCol, _ := excelize.ColumnNumberToName(col - 1)
	if col > 2 {
		_ = f.SetColWidth(sheetName, "B", lastCol, 10)
		_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	}
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	return nil
}

func (e *Exporter) writeLedgerSheet(f *excelize.File, orders []models.Order) error {
	const sheetName = "Orders"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create orders sheet: %w", err)
	}

	headers := []string{
		"ID", "Customer", "Event Date", "Return Date", "Location",
		"Status", "Items", "Total", "Advance", "Deposit", "Paid",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, order := range orders {
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), order.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), order.CustomerName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), order.EventDate.Format(models.DateLayout))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), order.ReturnDate.Format(models.DateLayout))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), order.Location)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), order.Status)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), formatOrderItems(order.Items))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), order.TotalAmount)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), order.AdvanceAmount)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), order.SecurityDeposit)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), order.PaidAmount)
	}

	_ = f.SetColWidth(sheetName, "B", "B", 20)
	_ = f.SetColWidth(sheetName, "C", "E", 14)
	_ = f.SetColWidth(sheetName, "G", "G", 40)
	return nil
}

func formatOrderItems(items []models.OrderItem) string {
	var out string
	for i, line := range items {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s x%d", line.ItemName, line.Quantity)
	}
	return out
}

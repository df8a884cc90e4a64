package reports

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"innkeep/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const ordersSheet = "Orders"

// SheetsLedger mirrors rental orders into a Google spreadsheet so the
// office has a live ledger outside the app. It is write-only from the
// app's point of view; the database stays authoritative.
type SheetsLedger struct {
	service       *sheets.Service
	spreadsheetID string

	// rowCache maps order ID to its 1-based sheet row to avoid a scan
	// on every update.
	cacheMu  sync.RWMutex
	rowCache map[int64]int
}

func NewSheetsLedger(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsLedger, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	ledger := &SheetsLedger{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[int64]int),
	}

	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		ledger.WarmUpCache(warmCtx)
	}()

	return ledger, nil
}

// TestConnection reads one cell to verify credentials and sharing.
func (s *SheetsLedger) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, ordersSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// WarmUpCache rebuilds the order-to-row index from column A.
func (s *SheetsLedger) WarmUpCache(ctx context.Context) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, ordersSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return
	}

	fresh := make(map[int64]int)
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		var orderID int64
		if _, err := fmt.Sscanf(fmt.Sprint(row[0]), "%d", &orderID); err == nil && orderID > 0 {
			fresh[orderID] = i + 1
		}
	}

	s.cacheMu.Lock()
	s.rowCache = fresh
	s.cacheMu.Unlock()
}

func orderToRow(order *models.Order) []interface{} {
	return []interface{}{
		order.ID,
		order.CustomerName,
		order.EventDate.Format(models.DateLayout),
		order.ReturnDate.Format(models.DateLayout),
		order.Location,
		order.Status,
		formatOrderItems(order.Items),
		order.TotalAmount,
		order.AdvanceAmount,
		order.SecurityDeposit,
		order.PaidAmount,
		order.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// UpsertOrder updates the order's existing row or appends a new one.
func (s *SheetsLedger) UpsertOrder(ctx context.Context, order *models.Order) error {
	row, err := s.findOrderRow(ctx, order.ID)
	if err != nil {
		return err
	}
	if row == 0 {
		return s.appendOrder(ctx, order)
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{orderToRow(order)}}
	rangeSpec := fmt.Sprintf("%s!A%d:L%d", ordersSheet, row, row)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeSpec, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update order row: %w", err)
	}
	return nil
}

// UpdateOrderStatus rewrites only the status cell of the order's row.
// A missing row is not an error; the next upsert recreates it.
func (s *SheetsLedger) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	row, err := s.findOrderRow(ctx, orderID)
	if err != nil {
		return err
	}
	if row == 0 {
		return nil
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{{status}}}
	rangeSpec := fmt.Sprintf("%s!F%d", ordersSheet, row)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeSpec, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update order status cell: %w", err)
	}
	return nil
}

func (s *SheetsLedger) appendOrder(ctx context.Context, order *models.Order) error {
	valueRange := &sheets.ValueRange{Values: [][]interface{}{orderToRow(order)}}
	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, ordersSheet+"!A:L", valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append order row: %w", err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		var row int
		if _, err := fmt.Sscanf(resp.Updates.UpdatedRange, ordersSheet+"!A%d", &row); err == nil {
			s.cacheMu.Lock()
			s.rowCache[order.ID] = row
			s.cacheMu.Unlock()
		}
	}
	return nil
}

// findOrderRow returns the 1-based row for an order, 0 when absent.
func (s *SheetsLedger) findOrderRow(ctx context.Context, orderID int64) (int, error) {
	s.cacheMu.RLock()
	row, ok := s.rowCache[orderID]
	s.cacheMu.RUnlock()
	if ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, ordersSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to scan order column: %w", err)
	}

	for i, cells := range resp.Values {
		if len(cells) == 0 {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(fmt.Sprint(cells[0]), "%d", &id); err == nil && id == orderID {
			row = i + 1
			s.cacheMu.Lock()
			s.rowCache[orderID] = row
			s.cacheMu.Unlock()
			return row, nil
		}
	}
	return 0, nil
}

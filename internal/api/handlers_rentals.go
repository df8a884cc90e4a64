package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"innkeep/internal/metrics"
	"innkeep/internal/models"
)

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.rentals.GetItems(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type itemRequest struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	UnitPrice float64 `json:"unit_price"`
	TotalQty  int64   `json:"total_qty"`
	Available *bool   `json:"available"`
	SortOrder int64   `json:"sort_order"`
}

func (req *itemRequest) validate() string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if req.TotalQty < 0 {
		return "total_qty must not be negative"
	}
	if req.UnitPrice < 0 {
		return "unit_price must not be negative"
	}
	return ""
}

func (req *itemRequest) toModel() *models.Item {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return &models.Item{
		Name:      strings.TrimSpace(req.Name),
		Category:  strings.TrimSpace(req.Category),
		UnitPrice: req.UnitPrice,
		TotalQty:  req.TotalQty,
		Available: available,
		SortOrder: req.SortOrder,
	}
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	item := req.toModel()
	if err := s.rentals.CreateItem(r.Context(), item); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	item := req.toModel()
	item.ID = id
	if err := s.rentals.UpdateItem(r.Context(), item); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleItemAvailability answers the core question: how many of each
// item are free for the window. A missing returnDate collapses the
// window to the event day.
func (s *Server) handleItemAvailability(w http.ResponseWriter, r *http.Request) {
	eventDate, err := parseDateParam(r, "eventDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if eventDate == nil {
		writeError(w, http.StatusBadRequest, "eventDate is required")
		return
	}
	returnDate, err := parseDateParam(r, "returnDate")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	availability, err := s.rentals.GetAvailability(r.Context(), *eventDate, returnDate)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": availability})
}

type orderLineRequest struct {
	ItemID    int64   `json:"item_id"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type createOrderRequest struct {
	CustomerID      int64              `json:"customer_id"`
	EventDate       string             `json:"event_date"`
	ReturnDate      string             `json:"return_date"`
	Location        string             `json:"location"`
	AdvanceAmount   float64            `json:"advance_amount"`
	SecurityDeposit float64            `json:"security_deposit"`
	Notes           string             `json:"notes"`
	Items           []orderLineRequest `json:"items"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.CustomerID <= 0 {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	if strings.TrimSpace(req.Location) == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "at least one item is required")
		return
	}
	for _, line := range req.Items {
		if line.ItemID <= 0 || line.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "each item needs item_id and a positive quantity")
			return
		}
	}

	eventDate, err := time.Parse(models.DateLayout, req.EventDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event_date; expected YYYY-MM-DD")
		return
	}
	returnDate := eventDate
	if req.ReturnDate != "" {
		if returnDate, err = time.Parse(models.DateLayout, req.ReturnDate); err != nil {
			writeError(w, http.StatusBadRequest, "invalid return_date; expected YYYY-MM-DD")
			return
		}
	}

	order := &models.Order{
		CustomerID:      req.CustomerID,
		EventDate:       eventDate,
		ReturnDate:      returnDate,
		Location:        strings.TrimSpace(req.Location),
		AdvanceAmount:   req.AdvanceAmount,
		SecurityDeposit: req.SecurityDeposit,
		Notes:           req.Notes,
	}
	for _, line := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	if err := s.rentals.CreateOrder(r.Context(), order); err != nil {
		s.writeServiceError(w, err)
		return
	}
	metrics.IncOrderCreated("rental")
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.rentals.ListOrders(r.Context(), strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := s.rentals.GetOrder(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	order, err := s.rentals.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleOrderPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		PaidAmount float64 `json:"paid_amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := s.rentals.UpdatePayment(r.Context(), id, req.PaidAmount)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleSearchCustomers(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	customers, err := s.db.SearchCustomers(r.Context(), q, 50)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var customer models.Customer
	if err := decodeJSON(r, &customer); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(customer.Phone) == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}
	if strings.TrimSpace(customer.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := s.db.CreateCustomer(r.Context(), &customer); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

// parseDateParam reads an optional YYYY-MM-DD query parameter.
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s; expected YYYY-MM-DD", name)
	}
	return &date, nil
}

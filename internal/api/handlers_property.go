package api

import (
	"net/http"
	"strings"
	"time"

	"innkeep/internal/metrics"
	"innkeep/internal/models"
)

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.db.GetRooms(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

type roomRequest struct {
	Number      string  `json:"number"`
	Type        string  `json:"type"`
	NightlyRate float64 `json:"nightly_rate"`
	IsActive    *bool   `json:"is_active"`
}

func (req *roomRequest) toModel() (*models.Room, string) {
	if strings.TrimSpace(req.Number) == "" {
		return nil, "number is required"
	}
	if req.NightlyRate < 0 {
		return nil, "nightly_rate must not be negative"
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.Room{
		Number:      strings.TrimSpace(req.Number),
		Type:        strings.TrimSpace(req.Type),
		NightlyRate: req.NightlyRate,
		IsActive:    active,
	}, ""
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, msg := req.toModel()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.db.CreateRoom(r.Context(), room); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, msg := req.toModel()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	room.ID = id

	if err := s.db.UpdateRoom(r.Context(), room); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

type checkInRequest struct {
	RoomID      int64   `json:"room_id"`
	GuestName   string  `json:"guest_name"`
	GuestPhone  string  `json:"guest_phone"`
	IDProof     string  `json:"id_proof"`
	NightlyRate float64 `json:"nightly_rate"`
	Advance     float64 `json:"advance"`
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RoomID <= 0 {
		writeError(w, http.StatusBadRequest, "room_id is required")
		return
	}
	if strings.TrimSpace(req.GuestName) == "" {
		writeError(w, http.StatusBadRequest, "guest_name is required")
		return
	}

	stay := &models.Stay{
		RoomID:      req.RoomID,
		GuestName:   strings.TrimSpace(req.GuestName),
		GuestPhone:  strings.TrimSpace(req.GuestPhone),
		IDProof:     req.IDProof,
		NightlyRate: req.NightlyRate,
		Advance:     req.Advance,
	}
	if err := s.stays.CheckIn(r.Context(), stay); err != nil {
		s.writeServiceError(w, err)
		return
	}
	metrics.IncOrderCreated("stay")
	writeJSON(w, http.StatusCreated, stay)
}

func (s *Server) handleListStays(w http.ResponseWriter, r *http.Request) {
	stays, err := s.stays.ListStays(r.Context(), strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stays": stays})
}

func (s *Server) handleGetStay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stay, err := s.stays.GetStay(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stay)
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill, err := s.stays.CheckOut(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bill, err := s.stays.GetBill(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) handleGetMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := s.food.GetMenu(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"menu": menu})
}

type menuItemRequest struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Available *bool   `json:"available"`
}

func (req *menuItemRequest) toModel() (*models.MenuItem, string) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, "name is required"
	}
	if req.Price < 0 {
		return nil, "price must not be negative"
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return &models.MenuItem{
		Name:      strings.TrimSpace(req.Name),
		Category:  strings.TrimSpace(req.Category),
		Price:     req.Price,
		Available: available,
	}, ""
}

func (s *Server) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, msg := req.toModel()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.food.CreateMenuItem(r.Context(), item); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req menuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, msg := req.toModel()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	item.ID = id

	if err := s.food.UpdateMenuItem(r.Context(), item); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type foodLineRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int64 `json:"quantity"`
}

type createFoodOrderRequest struct {
	Table  string            `json:"table"`
	StayID *int64            `json:"stay_id"`
	Notes  string            `json:"notes"`
	Items  []foodLineRequest `json:"items"`
}

func (s *Server) handleCreateFoodOrder(w http.ResponseWriter, r *http.Request) {
	var req createFoodOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "at least one item is required")
		return
	}
	for _, line := range req.Items {
		if line.MenuItemID <= 0 || line.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "each item needs menu_item_id and a positive quantity")
			return
		}
	}

	order := &models.FoodOrder{
		Table:  strings.TrimSpace(req.Table),
		StayID: req.StayID,
		Notes:  req.Notes,
	}
	for _, line := range req.Items {
		order.Items = append(order.Items, models.FoodOrderItem{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
		})
	}

	if err := s.food.PlaceOrder(r.Context(), order); err != nil {
		s.writeServiceError(w, err)
		return
	}
	metrics.IncOrderCreated("food")
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleKitchenBoard(w http.ResponseWriter, r *http.Request) {
	orders, err := s.food.KitchenBoard(r.Context(), strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *Server) handleGetFoodOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := s.food.GetOrder(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleFoodOrderStatus(w http.ResponseWriter, r *http.Request) {
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

	order, err := s.food.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleListHalls(w http.ResponseWriter, r *http.Request) {
	halls, err := s.halls.GetHalls(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"halls": halls})
}

type hallRequest struct {
	Name      string  `json:"name"`
	Capacity  int64   `json:"capacity"`
	DailyRate float64 `json:"daily_rate"`
	IsActive  *bool   `json:"is_active"`
}

func (s *Server) handleCreateHall(w http.ResponseWriter, r *http.Request) {
	var req hallRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	hall := &models.Hall{
		Name:      strings.TrimSpace(req.Name),
		Capacity:  req.Capacity,
		DailyRate: req.DailyRate,
		IsActive:  active,
	}
	if err := s.db.CreateHall(r.Context(), hall); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hall)
}

func (s *Server) handleHallAvailability(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if date == nil {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	halls, err := s.halls.GetAvailability(r.Context(), *date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"halls": halls})
}

type hallBookingRequest struct {
	HallID     int64   `json:"hall_id"`
	CustomerID int64   `json:"customer_id"`
	EventDate  string  `json:"event_date"`
	Purpose    string  `json:"purpose"`
	Total      float64 `json:"total"`
	Advance    float64 `json:"advance"`
}

func (s *Server) handleCreateHallBooking(w http.ResponseWriter, r *http.Request) {
	var req hallBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.HallID <= 0 {
		writeError(w, http.StatusBadRequest, "hall_id is required")
		return
	}
	if req.CustomerID <= 0 {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	eventDate, err := time.Parse(models.DateLayout, req.EventDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event_date; expected YYYY-MM-DD")
		return
	}

	booking := &models.HallBooking{
		HallID:     req.HallID,
		CustomerID: req.CustomerID,
		EventDate:  eventDate,
		Purpose:    req.Purpose,
		Total:      req.Total,
		Advance:    req.Advance,
	}
	if err := s.halls.Book(r.Context(), booking); err != nil {
		s.writeServiceError(w, err)
		return
	}
	metrics.IncOrderCreated("hall")
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleListHallBookings(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.halls.ListBookings(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleHallBookingStatus(w http.ResponseWriter, r *http.Request) {
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

	booking, err := s.halls.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

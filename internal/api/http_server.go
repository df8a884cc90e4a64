package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"innkeep/internal/config"
	"innkeep/internal/database"
	"innkeep/internal/metrics"
	"innkeep/internal/notify"
	"innkeep/internal/reports"
	"innkeep/internal/service"

	"github.com/rs/zerolog"
)

// Server exposes the HTTP API.
type Server struct {
	cfg      *config.Config
	rentals  *service.RentalService
	stays    *service.StayService
	food     *service.FoodService
	halls    *service.HallService
	db       *database.DB
	exporter *reports.Exporter
	hub      *notify.Hub
	auth     *HTTPAuth
	log      zerolog.Logger
	server   *http.Server
}

// Deps carries everything the server needs. Exporter and hub may be nil;
// the corresponding endpoints then report unavailable.
type Deps struct {
	Rentals  *service.RentalService
	Stays    *service.StayService
	Food     *service.FoodService
	Halls    *service.HallService
	DB       *database.DB
	Exporter *reports.Exporter
	Hub      *notify.Hub
}

func NewServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) *Server {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "http").Logger()
	}

	s := &Server{
		cfg:      cfg,
		rentals:  deps.Rentals,
		stays:    deps.Stays,
		food:     deps.Food,
		halls:    deps.Halls,
		db:       deps.DB,
		exporter: deps.Exporter,
		hub:      deps.Hub,
		auth:     NewHTTPAuth(cfg.Auth, cfg.RateLimit),
		log:      log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/v1/items", s.handleListItems)
	mux.HandleFunc("POST /api/v1/items", s.handleCreateItem)
	mux.HandleFunc("PUT /api/v1/items/{id}", s.handleUpdateItem)
	mux.HandleFunc("GET /api/v1/items/availability", s.handleItemAvailability)

	mux.HandleFunc("POST /api/v1/orders", s.handleCreateOrder)
	mux.HandleFunc("GET /api/v1/orders", s.handleListOrders)
	mux.HandleFunc("GET /api/v1/orders/{id}", s.handleGetOrder)
	mux.HandleFunc("PUT /api/v1/orders/{id}/status", s.handleOrderStatus)
	mux.HandleFunc("PUT /api/v1/orders/{id}/payment", s.handleOrderPayment)

	mux.HandleFunc("GET /api/v1/customers", s.handleSearchCustomers)
	mux.HandleFunc("POST /api/v1/customers", s.handleCreateCustomer)

	mux.HandleFunc("GET /api/v1/rooms", s.handleListRooms)
	mux.HandleFunc("POST /api/v1/rooms", s.handleCreateRoom)
	mux.HandleFunc("PUT /api/v1/rooms/{id}", s.handleUpdateRoom)

	mux.HandleFunc("POST /api/v1/stays", s.handleCheckIn)
	mux.HandleFunc("GET /api/v1/stays", s.handleListStays)
	mux.HandleFunc("GET /api/v1/stays/{id}", s.handleGetStay)
	mux.HandleFunc("PUT /api/v1/stays/{id}/checkout", s.handleCheckOut)
	mux.HandleFunc("GET /api/v1/stays/{id}/bill", s.handleGetBill)

	mux.HandleFunc("GET /api/v1/menu", s.handleGetMenu)
	mux.HandleFunc("POST /api/v1/menu", s.handleCreateMenuItem)
	mux.HandleFunc("PUT /api/v1/menu/{id}", s.handleUpdateMenuItem)

	mux.HandleFunc("POST /api/v1/food-orders", s.handleCreateFoodOrder)
	mux.HandleFunc("GET /api/v1/food-orders", s.handleKitchenBoard)
	mux.HandleFunc("GET /api/v1/food-orders/{id}", s.handleGetFoodOrder)
	mux.HandleFunc("PUT /api/v1/food-orders/{id}/status", s.handleFoodOrderStatus)

	mux.HandleFunc("GET /api/v1/halls", s.handleListHalls)
	mux.HandleFunc("POST /api/v1/halls", s.handleCreateHall)
	mux.HandleFunc("GET /api/v1/halls/availability", s.handleHallAvailability)

	mux.HandleFunc("POST /api/v1/hall-bookings", s.handleCreateHallBooking)
	mux.HandleFunc("GET /api/v1/hall-bookings", s.handleListHallBookings)
	mux.HandleFunc("PUT /api/v1/hall-bookings/{id}/status", s.handleHallBookingStatus)

	mux.HandleFunc("GET /api/v1/reports/rentals.xlsx", s.handleExportRentals)
	mux.HandleFunc("GET /api/v1/reports/summary", s.handleDailySummary)

	mux.HandleFunc("GET /api/v1/events", s.handleEvents)

	handler := s.loggingMiddleware(s.auth.Wrap(mux))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the full middleware chain, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		metrics.IncHTTP(endpoint, strconv.Itoa(recorder.status))

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Str("remote", remoteHost(r)).
			Msg("http request")
	})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps the recorder transparent for the event stream.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto status codes. Unknown
// errors stay opaque to the client.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var stockErr *database.StockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     stockErr.Error(),
			"item_id":   stockErr.ItemID,
			"item_name": stockErr.ItemName,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
		return
	}

	var unknownItem *database.UnknownItemError
	if errors.As(err, &unknownItem) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   unknownItem.Error(),
			"item_id": unknownItem.ItemID,
		})
		return
	}

	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrInvalidDateRange),
		errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrRoomOccupied),
		errors.Is(err, database.ErrHallUnavailable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

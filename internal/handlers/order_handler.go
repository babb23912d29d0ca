package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/Lixing-Zhang/foodstand-backend/internal/service"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// List handles GET /api/orders
// Without ?day every order is returned; ?day=today or ?day=YYYY-MM-DD
// restricts the result to one operating day.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		orders []models.Order
		err    error
	)
	if day := r.URL.Query().Get("day"); day != "" {
		orders, err = h.orderService.ListOrdersForDay(r.Context(), day)
	} else {
		orders, err = h.orderService.ListOrders(r.Context())
	}
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, orders, h.log)
}

// CreateDirect handles POST /api/orders
func (h *OrderHandler) CreateDirect(w http.ResponseWriter, r *http.Request) {
	var req models.DirectOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	order, err := h.orderService.PlaceDirectOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}
	WriteJSON(w, http.StatusCreated, order, h.log)
}

// CreateFromMenu handles POST /api/orders/menu
func (h *OrderHandler) CreateFromMenu(w http.ResponseWriter, r *http.Request) {
	var req models.MenuOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	order, err := h.orderService.PlaceMenuOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}
	WriteJSON(w, http.StatusCreated, order, h.log)
}

// Get handles GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}

// UpdateStatus handles PATCH /api/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}
	var req models.StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.log)
		return
	}

	order, err := h.orderService.ChangeOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, err, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/Lixing-Zhang/foodstand-backend/internal/service"
)

// MenuHandler handles menu item requests
type MenuHandler struct {
	service *service.MenuService
	logger  *slog.Logger
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(service *service.MenuService, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{
		service: service,
		logger:  logger,
	}
}

// List handles GET /api/menu with optional ?active=true and ?q=
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	activeOnly, _ := strconv.ParseBool(query.Get("active"))

	items, err := h.service.Search(r.Context(), query.Get("q"), activeOnly)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, items, h.logger)
}

// Create handles POST /api/menu
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.MenuItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	item, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, item, h.logger)
}

// Availability handles GET /api/menu/availability
func (h *MenuHandler) Availability(w http.ResponseWriter, r *http.Request) {
	avail, err := h.service.Availability(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, avail, h.logger)
}

// Get handles GET /api/menu/{id}
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, item, h.logger)
}

// Details handles GET /api/menu/{id}/details
func (h *MenuHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	details, err := h.service.Details(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, details, h.logger)
}

// Update handles PUT /api/menu/{id}
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	var req models.MenuItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	item, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, item, h.logger)
}

// Delete handles DELETE /api/menu/{id}
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/Lixing-Zhang/foodstand-backend/internal/service"
	"github.com/shopspring/decimal"
)

// IngredientHandler handles ingredient inventory requests
type IngredientHandler struct {
	service *service.InventoryService
	logger  *slog.Logger
}

// NewIngredientHandler creates a new ingredient handler
func NewIngredientHandler(service *service.InventoryService, logger *slog.Logger) *IngredientHandler {
	return &IngredientHandler{
		service: service,
		logger:  logger,
	}
}

// List handles GET /api/ingredients
// ?q= filters by name, ?lowStock=true&threshold= returns low-stock lines only.
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	lowStock, _ := strconv.ParseBool(query.Get("lowStock"))
	if lowStock {
		var threshold decimal.NullDecimal
		if raw := query.Get("threshold"); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "threshold must be a number", h.logger)
				return
			}
			threshold = decimal.NewNullDecimal(d)
		}
		items, err := h.service.LowStock(ctx, threshold)
		if err != nil {
			writeServiceError(w, err, h.logger)
			return
		}
		WriteJSON(w, http.StatusOK, items, h.logger)
		return
	}

	items, err := h.service.Search(ctx, query.Get("q"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, items, h.logger)
}

// Create handles POST /api/ingredients
func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.IngredientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	ing, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, ing, h.logger)
}

// Get handles GET /api/ingredients/{id}
func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	ing, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, ing, h.logger)
}

// Update handles PUT /api/ingredients/{id}
func (h *IngredientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	var req models.IngredientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	ing, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, ing, h.logger)
}

// Delete handles DELETE /api/ingredients/{id}
func (h *IngredientHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// Restock handles POST /api/ingredients/{id}/restock
func (h *IngredientHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	var req models.RestockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	ing, err := h.service.Restock(r.Context(), id, req.Amount)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, ing, h.logger)
}

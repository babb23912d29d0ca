package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/foodstand-backend/internal/service"
)

// ReportHandler serves sales summaries and the operating-day clock
type ReportHandler struct {
	service *service.ReportService
	logger  *slog.Logger
}

func NewReportHandler(service *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger,
	}
}

// Summary handles GET /api/reports/summary?period=day|week|month
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	period, err := service.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	summary, err := h.service.Summary(r.Context(), period)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// Clock handles GET /api/clock
func (h *ReportHandler) Clock(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.service.Clock(), h.logger)
}

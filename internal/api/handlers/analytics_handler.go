package handlers

import (
	"net/http"

	"premiumtrader/internal/service"
)

// AnalyticsHandler отвечает за торговую аналитику
//
// Endpoints:
// - GET /api/v1/analytics/summary - сводка по закрытым сделкам
type AnalyticsHandler struct {
	analyticsService service.AnalyticsServiceInterface
}

// NewAnalyticsHandler создает новый AnalyticsHandler
func NewAnalyticsHandler(analyticsService service.AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// GetSummary возвращает сводную торговую статистику
// GET /api/v1/analytics/summary
//
// Включает win rate, profit factor, средние прибыль/убыток и
// P&L за день, неделю и месяц.
//
// Response:
// - 200 OK: сводка
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	if h.analyticsService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Analytics service is not initialized", "")
		return
	}

	summary, err := h.analyticsService.GetSummary(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"premiumtrader/internal/service"
)

// RiskHandler отвечает за риск-аналитику
//
// Endpoints:
// - GET /api/v1/risk/positions/{id} - риск-отчет по позиции
// - GET /api/v1/risk/portfolio      - агрегированный риск портфеля
type RiskHandler struct {
	riskService service.RiskServiceInterface
}

// NewRiskHandler создает новый RiskHandler
func NewRiskHandler(riskService service.RiskServiceInterface) *RiskHandler {
	return &RiskHandler{
		riskService: riskService,
	}
}

// GetPositionRisk возвращает риск-отчет по позиции
// GET /api/v1/risk/positions/{id}
//
// Отчет включает max profit/loss, risk/reward ratio (Infinity при
// нулевом max loss), греки, вероятности, дни до экспирации
// и риск-уровень (low/medium/high/extreme).
//
// Response:
// - 200 OK: риск-отчет
// - 404 Not Found: позиция не найдена
// - 422 Unprocessable Entity: неизвестная стратегия в данных
func (h *RiskHandler) GetPositionRisk(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Risk service is not initialized", "")
		return
	}

	id := mux.Vars(r)["id"]

	report, err := h.riskService.GetPositionRisk(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// GetPortfolioRisk возвращает агрегированный риск портфеля
// GET /api/v1/risk/portfolio
//
// Считается по всем открытым позициям: total risk, sector exposure,
// risk by strategy, risk by expiration, diversification score.
//
// Response:
// - 200 OK: отчет по портфелю (для пустого портфеля - нулевой отчет)
func (h *RiskHandler) GetPortfolioRisk(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Risk service is not initialized", "")
		return
	}

	report, err := h.riskService.GetPortfolioRisk(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"premiumtrader/internal/service"
)

// MarketDataHandler отвечает за рыночные данные
//
// Endpoints:
// - GET /api/v1/quotes/{symbol} - котировка базового актива
// - GET /api/v1/chains/{symbol} - опционная цепочка
type MarketDataHandler struct {
	marketDataService service.MarketDataServiceInterface
}

// NewMarketDataHandler создает новый MarketDataHandler
func NewMarketDataHandler(marketDataService service.MarketDataServiceInterface) *MarketDataHandler {
	return &MarketDataHandler{
		marketDataService: marketDataService,
	}
}

// GetQuote возвращает котировку по тикеру
// GET /api/v1/quotes/{symbol}
//
// Котировки кэшируются; при недоступности брокера отдается
// последняя известная котировка.
//
// Response:
// - 200 OK: котировка
// - 400 Bad Request: невалидный тикер
// - 409 Conflict: брокер не подключен
func (h *MarketDataHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	if h.marketDataService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Market data service is not initialized", "")
		return
	}

	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	quote, err := h.marketDataService.GetQuote(r.Context(), symbol)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, quote)
}

// GetOptionChain возвращает опционную цепочку
// GET /api/v1/chains/{symbol}?expiration=YYYY-MM-DD
//
// Response:
// - 200 OK: цепочка с коллами и путами
// - 400 Bad Request: не указана или невалидна дата экспирации
// - 409 Conflict: брокер не подключен
func (h *MarketDataHandler) GetOptionChain(w http.ResponseWriter, r *http.Request) {
	if h.marketDataService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Market data service is not initialized", "")
		return
	}

	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	expiration := r.URL.Query().Get("expiration")
	if expiration == "" {
		respondWithError(w, http.StatusBadRequest, "missing_expiration", "expiration query parameter is required", "")
		return
	}

	chain, err := h.marketDataService.GetOptionChain(r.Context(), symbol, expiration)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, chain)
}

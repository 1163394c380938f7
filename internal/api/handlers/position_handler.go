package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"premiumtrader/internal/models"
	"premiumtrader/internal/service"
)

// PositionHandler отвечает за управление опционными позициями
//
// Endpoints:
// - POST /api/v1/positions             - создание позиции
// - GET /api/v1/positions              - список позиций (фильтр по статусу)
// - GET /api/v1/positions/{id}         - получение позиции
// - PATCH /api/v1/positions/{id}       - обновление заметок и сектора
// - POST /api/v1/positions/{id}/close  - закрытие с фиксацией P&L
// - DELETE /api/v1/positions/{id}      - удаление позиции
// - POST /api/v1/positions/import      - импорт позиций из брокера
type PositionHandler struct {
	positionService service.PositionServiceInterface
}

// NewPositionHandler создает новый PositionHandler
func NewPositionHandler(positionService service.PositionServiceInterface) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
	}
}

// ImportRequest - тело запроса на импорт позиций из брокера
type ImportRequest struct {
	AccountID string `json:"account_id"`
}

// ImportResponse - результат импорта
type ImportResponse struct {
	Imported int `json:"imported"`
}

// CreatePosition создает новую позицию
// POST /api/v1/positions
//
// Response:
// - 201 Created: позиция создана
// - 400 Bad Request: невалидные параметры
// - 422 Unprocessable Entity: неизвестная стратегия
func (h *PositionHandler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Position service is not initialized", "")
		return
	}

	var req models.CreatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	position, err := h.positionService.CreatePosition(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnknownStrategy):
			respondWithError(w, http.StatusUnprocessableEntity, "unknown_strategy", "Unknown strategy", err.Error())
		default:
			// Остальные ошибки создания - невалидные данные запроса
			respondWithError(w, http.StatusBadRequest, "invalid_position", "Invalid position data", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, position)
}

// GetPositions возвращает список позиций
// GET /api/v1/positions
//
// Query Parameters:
// - status: фильтр по статусу (open, closed), пустой = все
//
// Response:
// - 200 OK: массив позиций
// - 400 Bad Request: неизвестный статус
func (h *PositionHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Position service is not initialized", "")
		return
	}

	status := r.URL.Query().Get("status")

	positions, err := h.positionService.GetPositions(r.Context(), status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// Пустой массив вместо null в JSON
	if positions == nil {
		positions = []*models.Position{}
	}

	respondWithJSON(w, http.StatusOK, positions)
}

// GetPosition возвращает позицию по ID
// GET /api/v1/positions/{id}
//
// Response:
// - 200 OK: данные позиции
// - 404 Not Found: позиция не найдена
func (h *PositionHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Position service is not initialized", "")
		return
	}

	id := mux.Vars(r)["id"]

	position, err := h.positionService.GetPosition(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, position)
}

// UpdatePosition частично обновляет позицию (заметки, сектор)
// PATCH /api/v1/positions/{id}
//
// Response:
// - 200 OK: обновленная позиция
// - 404 Not Found: позиция не найдена
func (h *PositionHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Position service is not initialized", "")
		return
	}

	id := mux.Vars(r)["id"]

	var req models.UpdatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	position, err := h.positionService.UpdatePosition(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, position)
}

// ClosePosition закрывает позицию и фиксирует реализованный P&L
// POST /api/v1/positions/{id}/close
//
// Request Body:
//
//	{
//	  "close_price": 0.25,
//	  "close_date": "2026-08-20"
//	}
//
// Response:
// - 200 OK: закрытая позиция с profit_loss
// - 400 Bad Request: отрицательная цена выкупа
// - 404 Not Found: позиция не найдена
// - 409 Conflict: позиция уже закрыта
func (h *PositionHandler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Position service is not initialized", "")
		return
	}

	id := mux.Vars(r)["id"]

	var req models.ClosePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	position, err := h.positionService.ClosePosition(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, position)
}

// DeletePosition удаляет позицию
// DELETE /api/v1/positions/{id}
//
// Response:
// - 204 No Content: позиция удалена
// - 404 Not Found: позиция не найдена
func (h *PositionHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Position service is not initialized", "")
		return
	}

	id := mux.Vars(r)["id"]

	if err := h.positionService.DeletePosition(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportPositions импортирует опционные позиции из брокерского счета
// POST /api/v1/positions/import
//
// Request Body:
//
//	{
//	  "account_id": "12345678"
//	}
//
// Уже существующие позиции пропускаются.
//
// Response:
// - 200 OK: количество импортированных позиций
// - 400 Bad Request: не указан account_id
// - 409 Conflict: брокер не подключен
func (h *PositionHandler) ImportPositions(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Position service is not initialized", "")
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	if req.AccountID == "" {
		respondWithError(w, http.StatusBadRequest, "missing_account_id", "account_id is required", "")
		return
	}

	imported, err := h.positionService.ImportFromBroker(r.Context(), req.AccountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{
		Message: "Import completed",
		Data:    ImportResponse{Imported: imported},
	})
}

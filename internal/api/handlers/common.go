package handlers

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"premiumtrader/internal/models"
	"premiumtrader/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse - стандартный формат ошибки API
type ErrorResponse struct {
	Error   string `json:"error"`             // человекочитаемое сообщение
	Code    string `json:"code"`              // машиночитаемый код ошибки
	Details string `json:"details,omitempty"` // дополнительные детали
}

// SuccessResponse - стандартный формат успешного ответа без данных
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondWithError отправляет JSON ответ с ошибкой
func respondWithError(w http.ResponseWriter, statusCode int, code, message, details string) {
	respondWithJSON(w, statusCode, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// handleServiceError транслирует ошибки сервисов в HTTP статусы
//
// Сентинельные ошибки сервисного слоя получают осмысленные коды,
// всё остальное превращается в 500 Internal Server Error.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPositionNotFound):
		respondWithError(w, http.StatusNotFound, "position_not_found", "Position not found", "")

	case errors.Is(err, service.ErrPositionAlreadyClosed):
		respondWithError(w, http.StatusConflict, "position_closed", "Position is already closed", "")

	case errors.Is(err, service.ErrInvalidClosePrice):
		respondWithError(w, http.StatusBadRequest, "invalid_close_price", "Close price must be non-negative", "")

	case errors.Is(err, service.ErrInvalidStatus):
		respondWithError(w, http.StatusBadRequest, "invalid_status", "Status filter must be open or closed", "")

	case errors.Is(err, models.ErrUnknownStrategy):
		respondWithError(w, http.StatusUnprocessableEntity, "unknown_strategy", "Unknown strategy", err.Error())

	case errors.Is(err, service.ErrBrokerNotConnected):
		respondWithError(w, http.StatusConflict, "broker_not_connected", "Broker is not connected", "")

	case errors.Is(err, service.ErrRefreshFailed):
		respondWithError(w, http.StatusBadGateway, "broker_refresh_failed", "Failed to refresh broker token", "")

	default:
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error", err.Error())
	}
}

package websocket

import (
	"time"

	"premiumtrader/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypePositionUpdate - создание, изменение или закрытие позиции
	MessageTypePositionUpdate MessageType = "positionUpdate"

	// MessageTypeRiskUpdate - пересчитанный риск портфеля
	MessageTypeRiskUpdate MessageType = "riskUpdate"

	// MessageTypeQuoteUpdate - обновлённая котировка базового актива
	MessageTypeQuoteUpdate MessageType = "quoteUpdate"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// PositionUpdateMessage - сообщение об изменении позиции
type PositionUpdateMessage struct {
	BaseMessage
	Data *models.Position `json:"data"`
}

// RiskUpdateMessage - сообщение с риском портфеля
//
// Отправляется после каждого пересчёта, чтобы дашборд не делал polling.
type RiskUpdateMessage struct {
	BaseMessage
	Data *models.PortfolioRiskReport `json:"data"`
}

// QuoteUpdateMessage - сообщение с котировкой
type QuoteUpdateMessage struct {
	BaseMessage
	Data *models.Quote `json:"data"`
}

// ============ Фабричные функции для создания сообщений ============

// NewPositionUpdateMessage создает сообщение изменения позиции
func NewPositionUpdateMessage(position *models.Position) *PositionUpdateMessage {
	return &PositionUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePositionUpdate,
			Timestamp: time.Now(),
		},
		Data: position,
	}
}

// NewRiskUpdateMessage создает сообщение с риском портфеля
func NewRiskUpdateMessage(report *models.PortfolioRiskReport) *RiskUpdateMessage {
	return &RiskUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeRiskUpdate,
			Timestamp: time.Now(),
		},
		Data: report,
	}
}

// NewQuoteUpdateMessage создает сообщение с котировкой
func NewQuoteUpdateMessage(quote *models.Quote) *QuoteUpdateMessage {
	return &QuoteUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeQuoteUpdate,
			Timestamp: time.Now(),
		},
		Data: quote,
	}
}

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Strategy - тип опционной стратегии позиции
//
// Закрытое перечисление: любое другое значение отклоняется на этапе
// валидации, а не превращается молча в нулевые расчёты.
type Strategy string

// Поддерживаемые стратегии
const (
	// StrategyCoveredCall - покрытый колл: длинная позиция в акциях + продажа колла
	StrategyCoveredCall Strategy = "covered_call"

	// StrategyCashSecuredPut - обеспеченный пут: продажа пута под зарезервированный кэш
	StrategyCashSecuredPut Strategy = "cash_secured_put"
)

// ErrUnknownStrategy возвращается при неизвестном значении стратегии
var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy разбирает строку в Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyCoveredCall:
		return StrategyCoveredCall, nil
	case StrategyCashSecuredPut:
		return StrategyCashSecuredPut, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Valid проверяет что стратегия входит в перечисление
func (s Strategy) Valid() bool {
	return s == StrategyCoveredCall || s == StrategyCashSecuredPut
}

// Статусы позиции
const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)

// Position представляет опционную позицию (один проданный контракт или серия)
type Position struct {
	ID              string     `json:"id" db:"id"`
	Symbol          string     `json:"symbol" db:"symbol"`                     // тикер базового актива (AAPL)
	Strategy        Strategy   `json:"strategy" db:"strategy"`                 // covered_call, cash_secured_put
	Quantity        int        `json:"quantity" db:"quantity"`                 // количество контрактов
	EntryPrice      float64    `json:"entry_price" db:"entry_price"`           // цена базового актива при входе
	EntryDate       time.Time  `json:"entry_date" db:"entry_date"`
	ExpirationDate  time.Time  `json:"expiration_date" db:"expiration_date"`
	StrikePrice     float64    `json:"strike_price" db:"strike_price"`
	PremiumReceived float64    `json:"premium_received" db:"premium_received"` // суммарная полученная премия, USD
	Status          string     `json:"status" db:"status"`                     // open, closed
	ClosePrice      *float64   `json:"close_price,omitempty" db:"close_price"`
	CloseDate       *time.Time `json:"close_date,omitempty" db:"close_date"`
	ProfitLoss      *float64   `json:"profit_loss,omitempty" db:"profit_loss"`
	Notes           string     `json:"notes" db:"notes"`
	Sector          string     `json:"sector" db:"sector"` // пустая строка = сектор неизвестен
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOpen сообщает открыта ли позиция
func (p *Position) IsOpen() bool {
	return p.Status == PositionStatusOpen
}

// SectorOrOther возвращает сектор позиции, подставляя "Other" вместо пустого
func (p *Position) SectorOrOther() string {
	if p.Sector == "" {
		return SectorOther
	}
	return p.Sector
}

// SectorOther - корзина для позиций без указанного сектора
const SectorOther = "Other"

// Validate проверяет корректность полей позиции
func (p *Position) Validate() error {
	if p.Symbol == "" {
		return errors.New("symbol is required")
	}
	if !p.Strategy.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, p.Strategy)
	}
	if p.Quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	if p.EntryPrice < 0 {
		return errors.New("entry_price must be non-negative")
	}
	if p.StrikePrice < 0 {
		return errors.New("strike_price must be non-negative")
	}
	if p.PremiumReceived < 0 {
		return errors.New("premium_received must be non-negative")
	}
	if p.ExpirationDate.IsZero() {
		return errors.New("expiration_date is required")
	}
	return nil
}

// CreatePositionRequest - тело запроса на создание позиции
type CreatePositionRequest struct {
	Symbol          string  `json:"symbol"`
	Strategy        string  `json:"strategy"`
	Quantity        int     `json:"quantity"`
	EntryPrice      float64 `json:"entry_price"`
	EntryDate       string  `json:"entry_date"`      // YYYY-MM-DD, пустая = сегодня
	ExpirationDate  string  `json:"expiration_date"` // YYYY-MM-DD
	StrikePrice     float64 `json:"strike_price"`
	PremiumReceived float64 `json:"premium_received"`
	Notes           string  `json:"notes"`
	Sector          string  `json:"sector"`
}

// ClosePositionRequest - тело запроса на закрытие позиции
type ClosePositionRequest struct {
	ClosePrice float64 `json:"close_price"` // цена выкупа опциона, за контракт
	CloseDate  string  `json:"close_date"`  // YYYY-MM-DD, пустая = сегодня
}

// UpdatePositionRequest - тело запроса на частичное обновление позиции
type UpdatePositionRequest struct {
	Notes  *string `json:"notes,omitempty"`
	Sector *string `json:"sector,omitempty"`
}

// Package broker реализует клиент брокерского API (Schwab):
// OAuth2 авторизация, счета, позиции и котировки.
package broker

import "fmt"

// TokenResponse - ответ token endpoint'а (code exchange и refresh)
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // секунды
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// Account - брокерский счёт
type Account struct {
	AccountID   string  `json:"accountId"`
	Type        string  `json:"type"`
	CashBalance float64 `json:"cashBalance"`
	Equity      float64 `json:"equity"`
}

// accountsResponse - обёртка списка счетов
type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// Instrument - инструмент брокерской позиции
type Instrument struct {
	AssetType        string  `json:"assetType"` // EQUITY, OPTION
	Symbol           string  `json:"symbol"`
	UnderlyingSymbol string  `json:"underlyingSymbol"`
	PutCall          string  `json:"putCall"` // CALL, PUT
	StrikePrice      float64 `json:"strikePrice"`
	ExpirationDate   string  `json:"expirationDate"` // ISO 8601
}

// BrokerPosition - позиция в формате брокера
type BrokerPosition struct {
	PositionID    string     `json:"positionId"`
	LongQuantity  int        `json:"longQuantity"`
	ShortQuantity int        `json:"shortQuantity"`
	AveragePrice  float64    `json:"averagePrice"`
	AcquiredDate  string     `json:"acquiredDate"` // ISO 8601
	Instrument    Instrument `json:"instrument"`
}

// Quantity возвращает количество контрактов независимо от направления
func (p *BrokerPosition) Quantity() int {
	if p.LongQuantity > 0 {
		return p.LongQuantity
	}
	return p.ShortQuantity
}

// positionsResponse - обёртка списка позиций
type positionsResponse struct {
	Positions []BrokerPosition `json:"positions"`
}

// QuoteData - котировка в формате брокера
type QuoteData struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"lastPrice"`
	BidPrice      float64 `json:"bidPrice"`
	AskPrice      float64 `json:"askPrice"`
	TotalVolume   int64   `json:"totalVolume"`
	ChangePercent float64 `json:"netPercentChange"`
}

// ChainContract - контракт опционной цепочки в формате брокера
type ChainContract struct {
	Symbol       string  `json:"symbol"`
	PutCall      string  `json:"putCall"`
	StrikePrice  float64 `json:"strikePrice"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Delta        float64 `json:"delta"`
	OpenInterest int64   `json:"openInterest"`
}

// chainResponse - срез опционной цепочки по одной экспирации
type chainResponse struct {
	Symbol          string          `json:"symbol"`
	UnderlyingPrice float64         `json:"underlyingPrice"`
	Expiration      string          `json:"expiration"`
	Calls           []ChainContract `json:"calls"`
	Puts            []ChainContract `json:"puts"`
}

// APIError - ошибка брокерского API с HTTP статусом
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("broker API error: status %d: %s", e.StatusCode, e.Body)
}

// Retryable сообщает стоит ли повторять запрос
//
// 5xx и 429 временные, 4xx повторять бессмысленно.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

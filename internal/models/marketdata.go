package models

import "time"

// Quote - котировка базового актива
type Quote struct {
	Symbol        string    `json:"symbol"`
	Last          float64   `json:"last"`
	Bid           float64   `json:"bid"`
	Ask           float64   `json:"ask"`
	Volume        int64     `json:"volume"`
	ChangePercent float64   `json:"change_percent"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OptionContract - один контракт в опционной цепочке
type OptionContract struct {
	Symbol       string  `json:"symbol"`
	Type         string  `json:"type"` // CALL, PUT
	Strike       float64 `json:"strike"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Delta        float64 `json:"delta"`
	OpenInterest int64   `json:"open_interest"`
}

// OptionChain - срез опционной цепочки по одной экспирации
type OptionChain struct {
	Symbol     string           `json:"symbol"`
	Underlying float64          `json:"underlying"` // цена базового актива
	Expiration string           `json:"expiration"` // YYYY-MM-DD
	Calls      []OptionContract `json:"calls"`
	Puts       []OptionContract `json:"puts"`
}

package models

import (
	"math"
	"strconv"
)

// RiskLevel - категория риска позиции
type RiskLevel string

// Уровни риска (в порядке возрастания)
const (
	RiskLevelLow     RiskLevel = "low"
	RiskLevelMedium  RiskLevel = "medium"
	RiskLevelHigh    RiskLevel = "high"
	RiskLevelExtreme RiskLevel = "extreme"
)

// RiskLevels перечисляет все уровни в порядке возрастания
var RiskLevels = []RiskLevel{RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelExtreme}

// Greeks - чувствительности опционной позиции
type Greeks struct {
	Delta float64 `json:"delta"` // [-1, 1]
	Gamma float64 `json:"gamma"` // >= 0
	Theta float64 `json:"theta"` // <= 0, распад в день
	Vega  float64 `json:"vega"`  // >= 0, на 1% волатильности
}

// Probabilities - оценки вероятностей исходов позиции
type Probabilities struct {
	Profit     float64 `json:"profit"`     // [0, 1]
	Assignment float64 `json:"assignment"` // [0, 1]
}

// Ratio - отношение прибыль/риск, сериализуемое даже при бесконечности.
//
// encoding/json (и совместимый режим jsoniter) отказывается кодировать
// +Inf, а нулевой max_loss даёт именно его. Бесконечность кодируется
// строкой "Infinity".
type Ratio float64

// MarshalJSON реализует json.Marshaler
func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsInf(f, 1) {
		return []byte(`"Infinity"`), nil
	}
	if math.IsInf(f, -1) {
		return []byte(`"-Infinity"`), nil
	}
	if math.IsNaN(f) {
		return []byte(`"NaN"`), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// IsInfinite сообщает является ли отношение бесконечным
func (r Ratio) IsInfinite() bool {
	return math.IsInf(float64(r), 0)
}

// RiskReport - риск-метрики одной позиции
//
// Имена json-полей фиксированы контрактом API и менять их нельзя.
type RiskReport struct {
	PositionID       string        `json:"position_id"`
	Symbol           string        `json:"symbol"`
	Strategy         Strategy      `json:"strategy"`
	Greeks           Greeks        `json:"greeks"`
	MaxProfit        float64       `json:"max_profit"`
	MaxLoss          float64       `json:"max_loss"`
	RiskRewardRatio  Ratio         `json:"risk_reward_ratio"`
	Probabilities    Probabilities `json:"probabilities"`
	DaysToExpiration int           `json:"days_to_expiration"` // может быть отрицательным
	RiskLevel        RiskLevel     `json:"risk_level"`
}

// PortfolioRiskReport - агрегированные риск-метрики портфеля
//
// Смешанный регистр имён (totalRisk рядом с risk_distribution) исторический,
// фронтенд завязан на него.
type PortfolioRiskReport struct {
	TotalRisk        float64               `json:"totalRisk"`
	MaxLoss          float64               `json:"maxLoss"`
	Diversification  float64               `json:"diversification"`
	RiskDistribution map[RiskLevel]float64 `json:"risk_distribution"`
	SectorExposure   map[string]float64    `json:"sectorExposure"`
	RiskByStrategy   map[Strategy]float64  `json:"riskByStrategy"`
	RiskByExpiration map[string]float64    `json:"riskByExpiration"`
}

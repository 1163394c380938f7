package risk

import (
	"math"

	"premiumtrader/internal/models"
)

// OptionType - тип опциона, определяется стратегией позиции
type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// OptionTypeFor возвращает тип проданного опциона для стратегии
//
// covered_call продаёт колл, cash_secured_put продаёт пут.
func OptionTypeFor(s models.Strategy) (OptionType, error) {
	switch s {
	case models.StrategyCoveredCall:
		return OptionCall, nil
	case models.StrategyCashSecuredPut:
		return OptionPut, nil
	default:
		return "", models.ErrUnknownStrategy
	}
}

// PricingModel - сменная модель оценки опциона
//
// Engine не привязан к конкретной модели: greeks и вероятности считает
// реализация этого интерфейса. Параметры:
//   - spot: цена базового актива
//   - strike: страйк
//   - vol: годовая волатильность (0.30 = 30%)
//   - expiry: срок до экспирации в долях года, <= 0 для истёкших
type PricingModel interface {
	Greeks(spot, strike, vol, expiry float64, typ OptionType) models.Greeks

	// ProbITM возвращает вероятность экспирации в деньгах
	ProbITM(spot, strike, vol, expiry float64, typ OptionType) float64
}

// BlackScholes - модель Блэка-Шоулза без дивидендов
type BlackScholes struct {
	// RiskFreeRate - безрисковая ставка (0.03 = 3%)
	RiskFreeRate float64
}

// NewBlackScholes создаёт модель с указанной безрисковой ставкой
func NewBlackScholes(riskFreeRate float64) *BlackScholes {
	return &BlackScholes{RiskFreeRate: riskFreeRate}
}

// d1d2 возвращает стандартные величины d1, d2 модели
func (m *BlackScholes) d1d2(spot, strike, vol, expiry float64) (float64, float64) {
	d1 := (math.Log(spot/strike) + (m.RiskFreeRate+0.5*vol*vol)*expiry) / (vol * math.Sqrt(expiry))
	d2 := d1 - vol*math.Sqrt(expiry)
	return d1, d2
}

// Greeks считает чувствительности опциона
//
// Соглашения:
//   - delta колла в [0, 1], пута в [-1, 0]
//   - theta в долларах в день (отрицательная)
//   - vega на изменение волатильности в 1 п.п.
//
// Для истёкшего контракта или вырожденных входов все значения нулевые.
func (m *BlackScholes) Greeks(spot, strike, vol, expiry float64, typ OptionType) models.Greeks {
	if expiry <= 0 || spot <= 0 || strike <= 0 || vol <= 0 {
		return models.Greeks{}
	}

	d1, d2 := m.d1d2(spot, strike, vol, expiry)
	nd1 := normCDF(d1)
	nd2 := normCDF(d2)
	np1 := normPDF(d1)

	var delta float64
	if typ == OptionCall {
		delta = nd1
	} else {
		delta = nd1 - 1
	}

	gamma := np1 / (spot * vol * math.Sqrt(expiry))
	vega := spot * math.Sqrt(expiry) * np1 / 100

	var theta float64
	term1 := -(spot * np1 * vol) / (2 * math.Sqrt(expiry))
	if typ == OptionCall {
		term2 := m.RiskFreeRate * strike * math.Exp(-m.RiskFreeRate*expiry) * nd2
		theta = (term1 - term2) / 365
	} else {
		term2 := m.RiskFreeRate * strike * math.Exp(-m.RiskFreeRate*expiry) * normCDF(-d2)
		theta = (term1 + term2) / 365
	}
	// Численный шум не должен давать положительный распад
	if theta > 0 {
		theta = 0
	}

	return models.Greeks{
		Delta: delta,
		Gamma: gamma,
		Theta: theta,
		Vega:  vega,
	}
}

// ProbITM возвращает риск-нейтральную вероятность экспирации в деньгах
//
// Колл: N(d2), пут: N(-d2). Для истёкшего контракта вероятность
// определяется текущим положением spot относительно страйка.
func (m *BlackScholes) ProbITM(spot, strike, vol, expiry float64, typ OptionType) float64 {
	if spot <= 0 || strike <= 0 {
		return 0
	}

	if expiry <= 0 || vol <= 0 {
		// Вырожденный случай: контракт фактически на экспирации
		itm := spot > strike
		if typ == OptionPut {
			itm = spot < strike
		}
		if itm {
			return 1
		}
		return 0
	}

	_, d2 := m.d1d2(spot, strike, vol, expiry)
	if typ == OptionCall {
		return normCDF(d2)
	}
	return normCDF(-d2)
}

// normCDF - функция распределения стандартного нормального закона
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF - плотность стандартного нормального закона
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

package risk

import (
	"fmt"
	"math"
	"time"

	"premiumtrader/internal/models"
	"premiumtrader/pkg/utils"
)

// Ключи корзин riskByExpiration. Зафиксированы контрактом API.
const (
	BucketUnder7 = "< 7 days"
	Bucket7to14  = "7-14 days"
	Bucket15to30 = "15-30 days"
	BucketOver30 = "> 30 days"
)

// Params - параметры расчёта риск-метрик
type Params struct {
	// FallbackVolatility - годовая волатильность для модели, когда
	// рыночной implied volatility нет (0.30 = 30%)
	FallbackVolatility float64

	// CorrelationDiscount - множитель худшего сценария портфеля:
	// одновременная реализация max_loss всех позиций маловероятна
	CorrelationDiscount float64

	// Policy - пороги классификации уровня риска
	Policy LevelPolicy
}

// DefaultParams возвращает параметры по умолчанию
func DefaultParams() Params {
	return Params{
		FallbackVolatility:  0.30,
		CorrelationDiscount: 0.8,
		Policy:              DefaultLevelPolicy(),
	}
}

// Engine - калькулятор риск-метрик позиций и портфеля
//
// Чистое вычисление: без I/O и без обращения к часам, момент расчёта
// передаётся явно. Безопасен для конкурентного использования.
type Engine struct {
	model  PricingModel
	params Params
}

// NewEngine создаёт Engine с указанной моделью оценки
func NewEngine(model PricingModel, params Params) *Engine {
	if params.FallbackVolatility <= 0 {
		params.FallbackVolatility = 0.30
	}
	if params.CorrelationDiscount <= 0 {
		params.CorrelationDiscount = 0.8
	}
	return &Engine{model: model, params: params}
}

// MaxLoss возвращает максимальный убыток позиции по стратегии
//
// covered_call: полная потеря стоимости акций за вычетом премии.
// cash_secured_put: assignment по страйку (100 акций на контракт)
// за вычетом премии.
func MaxLoss(p *models.Position) (float64, error) {
	switch p.Strategy {
	case models.StrategyCoveredCall:
		return p.EntryPrice*float64(p.Quantity) - p.PremiumReceived, nil
	case models.StrategyCashSecuredPut:
		return p.StrikePrice*float64(p.Quantity)*100 - p.PremiumReceived, nil
	default:
		return 0, fmt.Errorf("%w: %q", models.ErrUnknownStrategy, p.Strategy)
	}
}

// PositionRisk считает риск-метрики одной позиции на момент asOf
//
// Для неизвестной стратегии возвращает ошибку, оборачивающую
// models.ErrUnknownStrategy.
func (e *Engine) PositionRisk(p *models.Position, asOf time.Time) (*models.RiskReport, error) {
	optType, err := OptionTypeFor(p.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, p.Strategy)
	}

	maxLoss, err := MaxLoss(p)
	if err != nil {
		return nil, err
	}
	maxProfit := p.PremiumReceived

	// Может быть отрицательным для просроченных позиций
	dte := utils.DaysUntil(asOf, p.ExpirationDate)
	expiry := utils.YearsUntil(asOf, p.ExpirationDate)

	vol := e.params.FallbackVolatility
	spot := p.EntryPrice

	greeks := e.model.Greeks(spot, p.StrikePrice, vol, expiry, optType)

	probITM := e.model.ProbITM(spot, p.StrikePrice, vol, expiry, optType)
	probs := models.Probabilities{
		// Продавец премии в плюсе пока опцион вне денег
		Profit:     utils.Clamp(1-probITM, 0, 1),
		Assignment: utils.Clamp(probITM, 0, 1),
	}

	var ratio models.Ratio
	if maxLoss == 0 {
		ratio = models.Ratio(math.Inf(1))
	} else {
		ratio = models.Ratio(math.Abs(maxProfit / maxLoss))
	}

	return &models.RiskReport{
		PositionID:       p.ID,
		Symbol:           p.Symbol,
		Strategy:         p.Strategy,
		Greeks:           greeks,
		MaxProfit:        maxProfit,
		MaxLoss:          maxLoss,
		RiskRewardRatio:  ratio,
		Probabilities:    probs,
		DaysToExpiration: dte,
		RiskLevel:        e.params.Policy.Classify(maxLoss, dte, probs.Assignment),
	}, nil
}

// PortfolioRisk агрегирует риск открытых позиций
//
// Функция тотальна: пустой портфель, нулевой суммарный номинал или
// нулевой суммарный риск дают нулевые значения, а не ошибку деления.
// Позиция с неизвестной стратегией не вносит вклада в риск (её номинал
// учитывается в sectorExposure), факт фиксируется метрикой.
func (e *Engine) PortfolioRisk(positions []*models.Position, asOf time.Time) *models.PortfolioRiskReport {
	report := &models.PortfolioRiskReport{
		RiskDistribution: make(map[models.RiskLevel]float64, len(models.RiskLevels)),
		SectorExposure:   make(map[string]float64),
		RiskByStrategy:   make(map[models.Strategy]float64),
		RiskByExpiration: map[string]float64{
			BucketUnder7: 0, Bucket7to14: 0, Bucket15to30: 0, BucketOver30: 0,
		},
	}

	sectorNotional := make(map[string]float64)
	knownSectors := make(map[string]struct{})
	strategyRisk := make(map[models.Strategy]float64)
	bucketRisk := map[string]float64{
		BucketUnder7: 0, Bucket7to14: 0, Bucket15to30: 0, BucketOver30: 0,
	}
	levelCounts := make(map[models.RiskLevel]int, len(models.RiskLevels))

	var totalNotional, totalRisk float64
	classified := 0

	for _, p := range positions {
		notional := utils.Notional(p.EntryPrice, p.Quantity)
		sectorNotional[p.SectorOrOther()] += notional
		totalNotional += notional

		// Корзина "Other" не считается диверсификацией
		if p.Sector != "" {
			knownSectors[p.Sector] = struct{}{}
		}

		rep, err := e.PositionRisk(p, asOf)
		if err != nil {
			recordUnknownStrategy(string(p.Strategy))
			continue
		}

		totalRisk += rep.MaxLoss
		strategyRisk[p.Strategy] += rep.MaxLoss
		bucketRisk[expirationBucket(rep.DaysToExpiration)] += rep.MaxLoss
		levelCounts[rep.RiskLevel]++
		classified++
	}

	report.TotalRisk = utils.Round2(totalRisk)
	report.MaxLoss = utils.Round2(totalRisk * e.params.CorrelationDiscount)
	report.Diversification = utils.Min(float64(len(knownSectors))/10, 1.0)

	// Доли секторов считаются только при ненулевом номинале,
	// иначе карта остаётся пустой
	if totalNotional > 0 {
		for sector, notional := range sectorNotional {
			report.SectorExposure[sector] = utils.Round2(utils.Percentage(notional, totalNotional))
		}
	}

	for strategy, riskAmount := range strategyRisk {
		report.RiskByStrategy[strategy] = utils.Round2(utils.Percentage(riskAmount, totalRisk))
	}

	for bucket, riskAmount := range bucketRisk {
		report.RiskByExpiration[bucket] = utils.Round2(utils.Percentage(riskAmount, totalRisk))
	}

	for _, level := range models.RiskLevels {
		report.RiskDistribution[level] = utils.Round2(utils.Percentage(float64(levelCounts[level]), float64(classified)))
	}

	return report
}

// expirationBucket относит DTE к корзине отчёта
//
// Просроченные позиции (DTE < 0) попадают в ближайшую корзину.
func expirationBucket(dte int) string {
	switch {
	case dte < 7:
		return BucketUnder7
	case dte < 14:
		return Bucket7to14
	case dte <= 30:
		return Bucket15to30
	default:
		return BucketOver30
	}
}

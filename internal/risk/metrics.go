package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"premiumtrader/internal/models"
)

// ============================================================
// Prometheus метрики риск-аналитики
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах
// - Анализ поведения расчётов в production

// ============ Метрики расчётов ============

// CalculationDuration - время расчёта риск-метрик
var CalculationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "premiumtrader",
		Subsystem: "risk",
		Name:      "calculation_duration_ms",
		Help:      "Time to compute risk metrics in milliseconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 25},
	},
	[]string{"scope"}, // position, portfolio
)

// CalculationsTotal - количество расчётов по результатам
var CalculationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "premiumtrader",
		Subsystem: "risk",
		Name:      "calculations_total",
		Help:      "Total number of risk calculations",
	},
	[]string{"scope", "result"}, // result: success, error
)

// UnknownStrategyTotal - позиции с нераспознанной стратегией в агрегации
//
// Ненулевое значение означает расхождение данных в БД с перечислением
// стратегий и требует разбирательства.
var UnknownStrategyTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "premiumtrader",
		Subsystem: "risk",
		Name:      "unknown_strategy_total",
		Help:      "Positions skipped from aggregation due to unknown strategy",
	},
	[]string{"strategy"},
)

// ============ Метрики состояния портфеля ============

// PortfolioTotalRisk - текущий суммарный риск портфеля в USD
var PortfolioTotalRisk = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "premiumtrader",
		Subsystem: "risk",
		Name:      "portfolio_total_risk_usd",
		Help:      "Aggregate max loss of open positions in USD",
	},
)

// PositionsByLevel - распределение открытых позиций по уровням риска
var PositionsByLevel = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "premiumtrader",
		Subsystem: "risk",
		Name:      "positions_by_level_percent",
		Help:      "Share of open positions by risk level, percent",
	},
	[]string{"level"}, // low, medium, high, extreme
)

// ============ Вспомогательные функции ============

// RecordCalculation записывает исход расчёта
func RecordCalculation(scope string, durationMs float64, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	CalculationsTotal.WithLabelValues(scope, result).Inc()
	if err == nil {
		CalculationDuration.WithLabelValues(scope).Observe(durationMs)
	}
}

// recordUnknownStrategy фиксирует пропуск позиции при агрегации
func recordUnknownStrategy(strategy string) {
	UnknownStrategyTotal.WithLabelValues(strategy).Inc()
}

// UpdatePortfolioGauges обновляет gauge-метрики после агрегации
func UpdatePortfolioGauges(report *models.PortfolioRiskReport) {
	PortfolioTotalRisk.Set(report.TotalRisk)
	for level, pct := range report.RiskDistribution {
		PositionsByLevel.WithLabelValues(string(level)).Set(pct)
	}
}

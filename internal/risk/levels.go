package risk

import (
	"premiumtrader/internal/models"
)

// LevelPolicy - таблица порогов классификации риска позиции
//
// Классификация по доле max_loss от размера счёта:
//   - ratio < LowRatio    -> low
//   - ratio < MediumRatio -> medium
//   - ratio < HighRatio   -> high
//   - иначе               -> extreme
//
// Дополнительно уровень повышается на одну ступень для позиций
// у экспирации (DTE <= ShortDTE) с высокой вероятностью assignment.
// Функция тотальна: любой вход даёт ровно один уровень.
type LevelPolicy struct {
	// AccountSize - размер счёта в USD, знаменатель для ratio.
	// При нулевом значении классификация идёт по абсолютным порогам
	// от условного счёта в 100k.
	AccountSize float64

	LowRatio    float64 // верхняя граница low, доля счёта
	MediumRatio float64 // верхняя граница medium
	HighRatio   float64 // верхняя граница high

	// ShortDTE - позиции с DTE не выше этого значения считаются короткими
	ShortDTE int

	// AssignmentAlert - порог вероятности assignment для эскалации
	AssignmentAlert float64
}

// DefaultLevelPolicy возвращает пороги по умолчанию
func DefaultLevelPolicy() LevelPolicy {
	return LevelPolicy{
		AccountSize:     100_000,
		LowRatio:        0.02,
		MediumRatio:     0.05,
		HighRatio:       0.10,
		ShortDTE:        7,
		AssignmentAlert: 0.5,
	}
}

// Classify определяет уровень риска позиции
func (p LevelPolicy) Classify(maxLoss float64, daysToExpiration int, probAssignment float64) models.RiskLevel {
	account := p.AccountSize
	if account <= 0 {
		account = 100_000
	}

	ratio := maxLoss / account

	var level models.RiskLevel
	switch {
	case ratio < p.LowRatio:
		level = models.RiskLevelLow
	case ratio < p.MediumRatio:
		level = models.RiskLevelMedium
	case ratio < p.HighRatio:
		level = models.RiskLevelHigh
	default:
		level = models.RiskLevelExtreme
	}

	if daysToExpiration <= p.ShortDTE && probAssignment >= p.AssignmentAlert {
		level = escalate(level)
	}

	return level
}

// escalate повышает уровень на одну ступень
func escalate(level models.RiskLevel) models.RiskLevel {
	switch level {
	case models.RiskLevelLow:
		return models.RiskLevelMedium
	case models.RiskLevelMedium:
		return models.RiskLevelHigh
	default:
		return models.RiskLevelExtreme
	}
}

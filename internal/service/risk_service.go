package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"premiumtrader/internal/models"
	"premiumtrader/internal/repository"
	"premiumtrader/internal/risk"
)

// RiskService - риск-аналитика позиций и портфеля
//
// Оборачивает чистый risk.Engine: достаёт позиции из БД, фиксирует
// момент расчёта и записывает метрики.
type RiskService struct {
	repo   PositionRepositoryInterface
	engine *risk.Engine
	logger *zap.Logger

	// Подписчики дашборда (может быть nil)
	notifier Notifier
}

// NewRiskService создает новый экземпляр сервиса риск-аналитики
func NewRiskService(repo PositionRepositoryInterface, engine *risk.Engine, logger *zap.Logger) *RiskService {
	return &RiskService{
		repo:   repo,
		engine: engine,
		logger: logger,
	}
}

// SetNotifier устанавливает получателя событий
func (s *RiskService) SetNotifier(n Notifier) {
	s.notifier = n
}

// GetPositionRisk считает риск-метрики одной позиции
//
// Возвращает ErrPositionNotFound для несуществующей позиции и
// models.ErrUnknownStrategy для нераспознанной стратегии в БД.
func (s *RiskService) GetPositionRisk(ctx context.Context, id string) (*models.RiskReport, error) {
	position, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	start := time.Now()
	report, err := s.engine.PositionRisk(position, time.Now())
	risk.RecordCalculation("position", float64(time.Since(start).Microseconds())/1000, err)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// GetPortfolioRisk агрегирует риск всех открытых позиций
func (s *RiskService) GetPortfolioRisk(ctx context.Context) (*models.PortfolioRiskReport, error) {
	positions, err := s.repo.GetOpen()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report := s.engine.PortfolioRisk(positions, time.Now())
	risk.RecordCalculation("portfolio", float64(time.Since(start).Microseconds())/1000, nil)

	risk.UpdatePortfolioGauges(report)

	if s.notifier != nil {
		s.notifier.NotifyRiskUpdate(report)
	}

	return report, nil
}

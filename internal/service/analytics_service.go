package service

import (
	"context"

	"go.uber.org/zap"

	"premiumtrader/internal/models"
	"premiumtrader/pkg/utils"
)

// AnalyticsService - агрегированная статистика по закрытым сделкам
type AnalyticsService struct {
	repo   PositionRepositoryInterface
	logger *zap.Logger
}

// NewAnalyticsService создает новый экземпляр сервиса аналитики
func NewAnalyticsService(repo PositionRepositoryInterface, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{repo: repo, logger: logger}
}

// GetSummary считает сводку по всем закрытым позициям
//
// Все деления защищены: нет сделок - нулевая сводка, нет убытков -
// profit factor равен сумме прибылей.
func (s *AnalyticsService) GetSummary(ctx context.Context) (*models.AnalyticsSummary, error) {
	closed, err := s.repo.GetByStatus(models.PositionStatusClosed)
	if err != nil {
		return nil, err
	}

	open, err := s.repo.GetOpen()
	if err != nil {
		return nil, err
	}

	summary := &models.AnalyticsSummary{
		OpenPositions: len(open),
	}

	dayStart := utils.GetDayStart()
	weekStart := utils.GetWeekStart()
	monthStart := utils.GetMonthStart()

	var grossWin, grossLoss float64

	for _, position := range closed {
		if position.ProfitLoss == nil {
			continue
		}
		pnl := *position.ProfitLoss

		summary.TotalTrades++
		summary.TotalProfit += pnl

		if pnl >= 0 {
			summary.WinningTrades++
			grossWin += pnl
		} else {
			summary.LosingTrades++
			grossLoss += -pnl
		}

		if position.CloseDate == nil {
			continue
		}
		closeDate := *position.CloseDate
		if !closeDate.Before(monthStart) {
			summary.MonthProfit += pnl
		}
		if !closeDate.Before(weekStart) {
			summary.WeekProfit += pnl
		}
		if !closeDate.Before(dayStart) {
			summary.TodayProfit += pnl
		}
	}

	summary.WinRate = utils.SafeDiv(float64(summary.WinningTrades), float64(summary.TotalTrades), 0)
	summary.AverageWin = utils.Round2(utils.SafeDiv(grossWin, float64(summary.WinningTrades), 0))
	summary.AverageLoss = utils.Round2(utils.SafeDiv(grossLoss, float64(summary.LosingTrades), 0))
	summary.ProfitFactor = utils.Round2(utils.SafeDiv(grossWin, grossLoss, grossWin))

	summary.TotalProfit = utils.Round2(summary.TotalProfit)
	summary.MonthProfit = utils.Round2(summary.MonthProfit)
	summary.WeekProfit = utils.Round2(summary.WeekProfit)
	summary.TodayProfit = utils.Round2(summary.TodayProfit)

	return summary, nil
}

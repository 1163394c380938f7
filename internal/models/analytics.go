package models

// AnalyticsSummary - агрегированная статистика по закрытым сделкам
type AnalyticsSummary struct {
	TotalProfit   float64 `json:"total_profit"`
	WinRate       float64 `json:"win_rate"`       // доля прибыльных сделок, [0, 1]
	ProfitFactor  float64 `json:"profit_factor"`  // сумма прибылей / сумма убытков
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	OpenPositions int     `json:"open_positions"`
	MonthProfit   float64 `json:"month_profit"` // реализованный P&L текущего месяца
	WeekProfit    float64 `json:"week_profit"`
	TodayProfit   float64 `json:"today_profit"`
}

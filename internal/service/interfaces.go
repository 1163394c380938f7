package service

import (
	"context"
	"time"

	"premiumtrader/internal/broker"
	"premiumtrader/internal/models"
	"premiumtrader/internal/repository"
)

// PositionRepositoryInterface определяет интерфейс репозитория позиций
type PositionRepositoryInterface interface {
	Create(position *models.Position) error
	GetByID(id string) (*models.Position, error)
	GetAll() ([]*models.Position, error)
	GetByStatus(status string) ([]*models.Position, error)
	GetOpen() ([]*models.Position, error)
	Update(position *models.Position) error
	Close(id string, closePrice float64, closeDate time.Time, profitLoss float64) error
	Delete(id string) error
}

// TokenRepositoryInterface определяет интерфейс репозитория OAuth токенов
type TokenRepositoryInterface interface {
	Upsert(token *models.OAuthToken) error
	Get(userID string) (*models.OAuthToken, error)
	Deactivate(userID string) error
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ PositionRepositoryInterface = (*repository.PositionRepository)(nil)
var _ TokenRepositoryInterface = (*repository.TokenRepository)(nil)

// BrokerClientInterface определяет интерфейс клиента брокерского API
type BrokerClientInterface interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*broker.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*broker.TokenResponse, error)
	GetAccounts(ctx context.Context, accessToken string) ([]broker.Account, error)
	GetPositions(ctx context.Context, accessToken, accountID string) ([]broker.BrokerPosition, error)
	GetQuote(ctx context.Context, accessToken, symbol string) (*models.Quote, error)
	GetOptionChain(ctx context.Context, accessToken, symbol, expiration string) (*models.OptionChain, error)
}

var _ BrokerClientInterface = (*broker.Client)(nil)

// Notifier рассылает события подписчикам дашборда (websocket hub)
//
// Может быть nil: сервисы работают и без подписчиков.
type Notifier interface {
	NotifyPositionUpdate(position *models.Position)
	NotifyRiskUpdate(report *models.PortfolioRiskReport)
	NotifyQuoteUpdate(quote *models.Quote)
}

// ============ Интерфейсы сервисов для Dependency Injection ============

// PositionServiceInterface определяет интерфейс сервиса позиций
type PositionServiceInterface interface {
	CreatePosition(ctx context.Context, req *models.CreatePositionRequest) (*models.Position, error)
	GetPosition(ctx context.Context, id string) (*models.Position, error)
	GetPositions(ctx context.Context, status string) ([]*models.Position, error)
	UpdatePosition(ctx context.Context, id string, req *models.UpdatePositionRequest) (*models.Position, error)
	ClosePosition(ctx context.Context, id string, req *models.ClosePositionRequest) (*models.Position, error)
	DeletePosition(ctx context.Context, id string) error
	ImportFromBroker(ctx context.Context, accountID string) (int, error)
}

// RiskServiceInterface определяет интерфейс сервиса риск-аналитики
type RiskServiceInterface interface {
	GetPositionRisk(ctx context.Context, id string) (*models.RiskReport, error)
	GetPortfolioRisk(ctx context.Context) (*models.PortfolioRiskReport, error)
}

// TokenServiceInterface определяет интерфейс сервиса токенов брокера
type TokenServiceInterface interface {
	AuthorizeURL(state string) string
	Connect(ctx context.Context, code string) error
	AccessToken(ctx context.Context) (string, error)
	Accounts(ctx context.Context) ([]broker.Account, error)
	Disconnect(ctx context.Context) error
	Status(ctx context.Context) (*ConnectionStatus, error)
}

// MarketDataServiceInterface определяет интерфейс сервиса котировок
type MarketDataServiceInterface interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetOptionChain(ctx context.Context, symbol string, expiration string) (*models.OptionChain, error)
}

// AnalyticsServiceInterface определяет интерфейс сервиса аналитики
type AnalyticsServiceInterface interface {
	GetSummary(ctx context.Context) (*models.AnalyticsSummary, error)
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ PositionServiceInterface = (*PositionService)(nil)
var _ RiskServiceInterface = (*RiskService)(nil)
var _ TokenServiceInterface = (*TokenService)(nil)
var _ MarketDataServiceInterface = (*MarketDataService)(nil)
var _ AnalyticsServiceInterface = (*AnalyticsService)(nil)

package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"premiumtrader/internal/broker"
	"premiumtrader/internal/models"
	"premiumtrader/internal/service"
)

// ============ Mock Position Service ============

// MockPositionService мок для PositionServiceInterface
type MockPositionService struct {
	positions map[string]*models.Position
	createErr error
	getErr    error
	updateErr error
	closeErr  error
	deleteErr error
	importErr error
	imported  int
	mu        sync.RWMutex
}

// NewMockPositionService создает новый мок сервиса позиций
func NewMockPositionService() *MockPositionService {
	return &MockPositionService{
		positions: make(map[string]*models.Position),
	}
}

func (m *MockPositionService) CreatePosition(ctx context.Context, req *models.CreatePositionRequest) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}

	strategy, err := models.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}

	expiration, err := time.Parse("2006-01-02", req.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration_date: %w", err)
	}

	position := &models.Position{
		ID:              uuid.New().String(),
		Symbol:          strings.ToUpper(req.Symbol),
		Strategy:        strategy,
		Quantity:        req.Quantity,
		EntryPrice:      req.EntryPrice,
		EntryDate:       time.Now(),
		ExpirationDate:  expiration,
		StrikePrice:     req.StrikePrice,
		PremiumReceived: req.PremiumReceived,
		Status:          models.PositionStatusOpen,
		Notes:           req.Notes,
		Sector:          req.Sector,
	}
	m.positions[position.ID] = position
	return position, nil
}

func (m *MockPositionService) GetPosition(ctx context.Context, id string) (*models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	if position, ok := m.positions[id]; ok {
		return position, nil
	}
	return nil, service.ErrPositionNotFound
}

func (m *MockPositionService) GetPositions(ctx context.Context, status string) ([]*models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	switch status {
	case "", models.PositionStatusOpen, models.PositionStatusClosed:
	default:
		return nil, fmt.Errorf("%w: %q", service.ErrInvalidStatus, status)
	}

	result := make([]*models.Position, 0, len(m.positions))
	for _, p := range m.positions {
		if status != "" && p.Status != status {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *MockPositionService) UpdatePosition(ctx context.Context, id string, req *models.UpdatePositionRequest) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return nil, m.updateErr
	}

	position, ok := m.positions[id]
	if !ok {
		return nil, service.ErrPositionNotFound
	}

	if req.Notes != nil {
		position.Notes = *req.Notes
	}
	if req.Sector != nil {
		position.Sector = *req.Sector
	}
	return position, nil
}

func (m *MockPositionService) ClosePosition(ctx context.Context, id string, req *models.ClosePositionRequest) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closeErr != nil {
		return nil, m.closeErr
	}

	if req.ClosePrice < 0 {
		return nil, service.ErrInvalidClosePrice
	}

	position, ok := m.positions[id]
	if !ok {
		return nil, service.ErrPositionNotFound
	}
	if position.Status == models.PositionStatusClosed {
		return nil, service.ErrPositionAlreadyClosed
	}

	closeDate := time.Now()
	profitLoss := position.PremiumReceived - req.ClosePrice*float64(position.Quantity)*100

	position.Status = models.PositionStatusClosed
	position.ClosePrice = &req.ClosePrice
	position.CloseDate = &closeDate
	position.ProfitLoss = &profitLoss
	return position, nil
}

func (m *MockPositionService) DeletePosition(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}

	if _, ok := m.positions[id]; !ok {
		return service.ErrPositionNotFound
	}
	delete(m.positions, id)
	return nil
}

func (m *MockPositionService) ImportFromBroker(ctx context.Context, accountID string) (int, error) {
	if m.importErr != nil {
		return 0, m.importErr
	}
	return m.imported, nil
}

// AddPosition добавляет позицию напрямую (для настройки тестов)
func (m *MockPositionService) AddPosition(position *models.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions[position.ID] = position
}

// ============ Mock Risk Service ============

// MockRiskService мок для RiskServiceInterface
type MockRiskService struct {
	report       *models.RiskReport
	portfolio    *models.PortfolioRiskReport
	reportErr    error
	portfolioErr error
}

func (m *MockRiskService) GetPositionRisk(ctx context.Context, id string) (*models.RiskReport, error) {
	if m.reportErr != nil {
		return nil, m.reportErr
	}
	return m.report, nil
}

func (m *MockRiskService) GetPortfolioRisk(ctx context.Context) (*models.PortfolioRiskReport, error) {
	if m.portfolioErr != nil {
		return nil, m.portfolioErr
	}
	return m.portfolio, nil
}

// ============ Mock Token Service ============

// MockTokenService мок для TokenServiceInterface
type MockTokenService struct {
	authorizeURL  string
	accessToken   string
	accounts      []broker.Account
	status        *service.ConnectionStatus
	connectErr    error
	accessErr     error
	accountsErr   error
	disconnectErr error
	statusErr     error

	connectedWith string // code, переданный в Connect
	disconnected  bool
}

func (m *MockTokenService) AuthorizeURL(state string) string {
	return m.authorizeURL + "&state=" + state
}

func (m *MockTokenService) Connect(ctx context.Context, code string) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connectedWith = code
	return nil
}

func (m *MockTokenService) AccessToken(ctx context.Context) (string, error) {
	if m.accessErr != nil {
		return "", m.accessErr
	}
	return m.accessToken, nil
}

func (m *MockTokenService) Accounts(ctx context.Context) ([]broker.Account, error) {
	if m.accountsErr != nil {
		return nil, m.accountsErr
	}
	return m.accounts, nil
}

func (m *MockTokenService) Disconnect(ctx context.Context) error {
	if m.disconnectErr != nil {
		return m.disconnectErr
	}
	m.disconnected = true
	return nil
}

func (m *MockTokenService) Status(ctx context.Context) (*service.ConnectionStatus, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.status, nil
}

// ============ Mock Market Data Service ============

// MockMarketDataService мок для MarketDataServiceInterface
type MockMarketDataService struct {
	quote    *models.Quote
	chain    *models.OptionChain
	quoteErr error
	chainErr error
}

func (m *MockMarketDataService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	return m.quote, nil
}

func (m *MockMarketDataService) GetOptionChain(ctx context.Context, symbol, expiration string) (*models.OptionChain, error) {
	if m.chainErr != nil {
		return nil, m.chainErr
	}
	return m.chain, nil
}

// ============ Mock Analytics Service ============

// MockAnalyticsService мок для AnalyticsServiceInterface
type MockAnalyticsService struct {
	summary *models.AnalyticsSummary
	err     error
}

func (m *MockAnalyticsService) GetSummary(ctx context.Context) (*models.AnalyticsSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

// ============ Helper errors for tests ============

var ErrMockDatabase = errors.New("mock database error")

// ============ Проверяем, что моки реализуют интерфейсы ============

var _ service.PositionServiceInterface = (*MockPositionService)(nil)
var _ service.RiskServiceInterface = (*MockRiskService)(nil)
var _ service.TokenServiceInterface = (*MockTokenService)(nil)
var _ service.MarketDataServiceInterface = (*MockMarketDataService)(nil)
var _ service.AnalyticsServiceInterface = (*MockAnalyticsService)(nil)

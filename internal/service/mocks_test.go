package service

import (
	"context"
	"sync"
	"time"

	"premiumtrader/internal/broker"
	"premiumtrader/internal/models"
	"premiumtrader/internal/repository"
)

// ============ Mock PositionRepository ============

type MockPositionRepository struct {
	positions map[string]*models.Position
	createErr error
	getErr    error
	updateErr error
	closeErr  error
	deleteErr error
}

func NewMockPositionRepository() *MockPositionRepository {
	return &MockPositionRepository{
		positions: make(map[string]*models.Position),
	}
}

func (m *MockPositionRepository) Create(position *models.Position) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.positions[position.ID]; exists {
		return repository.ErrPositionExists
	}
	now := time.Now()
	position.CreatedAt = now
	position.UpdatedAt = now
	if position.Status == "" {
		position.Status = models.PositionStatusOpen
	}
	copied := *position
	m.positions[position.ID] = &copied
	return nil
}

func (m *MockPositionRepository) GetByID(id string) (*models.Position, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if position, exists := m.positions[id]; exists {
		copied := *position
		return &copied, nil
	}
	return nil, repository.ErrPositionNotFound
}

func (m *MockPositionRepository) GetAll() ([]*models.Position, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.Position, 0, len(m.positions))
	for _, position := range m.positions {
		copied := *position
		result = append(result, &copied)
	}
	return result, nil
}

func (m *MockPositionRepository) GetByStatus(status string) ([]*models.Position, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []*models.Position
	for _, position := range m.positions {
		if position.Status == status {
			copied := *position
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockPositionRepository) GetOpen() ([]*models.Position, error) {
	return m.GetByStatus(models.PositionStatusOpen)
}

func (m *MockPositionRepository) Update(position *models.Position) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, exists := m.positions[position.ID]
	if !exists {
		return repository.ErrPositionNotFound
	}
	stored.Notes = position.Notes
	stored.Sector = position.Sector
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *MockPositionRepository) Close(id string, closePrice float64, closeDate time.Time, profitLoss float64) error {
	if m.closeErr != nil {
		return m.closeErr
	}
	stored, exists := m.positions[id]
	if !exists || stored.Status != models.PositionStatusOpen {
		return repository.ErrPositionNotFound
	}
	stored.Status = models.PositionStatusClosed
	stored.ClosePrice = &closePrice
	stored.CloseDate = &closeDate
	stored.ProfitLoss = &profitLoss
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *MockPositionRepository) Delete(id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.positions[id]; !exists {
		return repository.ErrPositionNotFound
	}
	delete(m.positions, id)
	return nil
}

// ============ Mock TokenRepository ============

type MockTokenRepository struct {
	tokens    map[string]*models.OAuthToken
	upsertErr error
	getErr    error
}

func NewMockTokenRepository() *MockTokenRepository {
	return &MockTokenRepository{
		tokens: make(map[string]*models.OAuthToken),
	}
}

func (m *MockTokenRepository) Upsert(token *models.OAuthToken) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *token
	m.tokens[token.UserID] = &copied
	return nil
}

func (m *MockTokenRepository) Get(userID string) (*models.OAuthToken, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if token, exists := m.tokens[userID]; exists && token.IsActive {
		copied := *token
		return &copied, nil
	}
	return nil, repository.ErrTokenNotFound
}

func (m *MockTokenRepository) Deactivate(userID string) error {
	if token, exists := m.tokens[userID]; exists && token.IsActive {
		token.IsActive = false
		return nil
	}
	return repository.ErrTokenNotFound
}

// ============ Mock BrokerClient ============

type MockBrokerClient struct {
	accounts  []broker.Account
	positions []broker.BrokerPosition
	quote     *models.Quote
	chain     *models.OptionChain
	token     *broker.TokenResponse

	accountsErr  error
	positionsErr error
	quoteErr     error
	chainErr     error
	exchangeErr  error
	refreshErr   error

	refreshCalls int
	quoteCalls   int
}

func (m *MockBrokerClient) AuthorizeURL(state string) string {
	return "https://broker.example.com/authorize?state=" + state
}

func (m *MockBrokerClient) ExchangeCode(ctx context.Context, code string) (*broker.TokenResponse, error) {
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	return m.token, nil
}

func (m *MockBrokerClient) RefreshToken(ctx context.Context, refreshToken string) (*broker.TokenResponse, error) {
	m.refreshCalls++
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return m.token, nil
}

func (m *MockBrokerClient) GetAccounts(ctx context.Context, accessToken string) ([]broker.Account, error) {
	if m.accountsErr != nil {
		return nil, m.accountsErr
	}
	return m.accounts, nil
}

func (m *MockBrokerClient) GetPositions(ctx context.Context, accessToken, accountID string) ([]broker.BrokerPosition, error) {
	if m.positionsErr != nil {
		return nil, m.positionsErr
	}
	return m.positions, nil
}

func (m *MockBrokerClient) GetQuote(ctx context.Context, accessToken, symbol string) (*models.Quote, error) {
	m.quoteCalls++
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	quote := *m.quote
	quote.Symbol = symbol
	return &quote, nil
}

func (m *MockBrokerClient) GetOptionChain(ctx context.Context, accessToken, symbol, expiration string) (*models.OptionChain, error) {
	if m.chainErr != nil {
		return nil, m.chainErr
	}
	return m.chain, nil
}

// ============ Mock TokenService ============

type MockTokenService struct {
	accessToken string
	accessErr   error
}

func (m *MockTokenService) AuthorizeURL(state string) string { return "" }

func (m *MockTokenService) Connect(ctx context.Context, code string) error { return nil }

func (m *MockTokenService) AccessToken(ctx context.Context) (string, error) {
	if m.accessErr != nil {
		return "", m.accessErr
	}
	return m.accessToken, nil
}

func (m *MockTokenService) Accounts(ctx context.Context) ([]broker.Account, error) {
	if m.accessErr != nil {
		return nil, m.accessErr
	}
	return nil, nil
}

func (m *MockTokenService) Disconnect(ctx context.Context) error { return nil }

func (m *MockTokenService) Status(ctx context.Context) (*ConnectionStatus, error) {
	return &ConnectionStatus{Connected: m.accessErr == nil}, nil
}

// ============ Mock Notifier ============

type MockNotifier struct {
	mu              sync.Mutex
	positionUpdates []*models.Position
	riskUpdates     []*models.PortfolioRiskReport
	quoteUpdates    []*models.Quote
}

func (m *MockNotifier) NotifyPositionUpdate(position *models.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positionUpdates = append(m.positionUpdates, position)
}

func (m *MockNotifier) NotifyRiskUpdate(report *models.PortfolioRiskReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riskUpdates = append(m.riskUpdates, report)
}

func (m *MockNotifier) NotifyQuoteUpdate(quote *models.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quoteUpdates = append(m.quoteUpdates, quote)
}

func (m *MockNotifier) PositionUpdates() []*models.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionUpdates
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"premiumtrader/internal/broker"
	"premiumtrader/internal/models"
	"premiumtrader/internal/repository"
	"premiumtrader/pkg/crypto"
)

// Ошибки сервиса токенов
var (
	ErrBrokerNotConnected = errors.New("broker is not connected")
	ErrRefreshFailed      = errors.New("failed to refresh broker token")
)

// DefaultUserID - идентификатор единственного пользователя дашборда
//
// Приложение single-tenant, но схема хранения токенов оставлена
// per-user на случай расширения.
const DefaultUserID = "default"

// ConnectionStatus - состояние подключения к брокеру
type ConnectionStatus struct {
	Connected bool      `json:"connected"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Scope     string    `json:"scope,omitempty"`
}

// TokenService - хранение и обновление OAuth токенов брокера
//
// Токены лежат в БД зашифрованными (AES-256-GCM). Access token
// обновляется заранее, за TokenRefreshMargin до истечения.
type TokenService struct {
	repo          TokenRepositoryInterface
	broker        BrokerClientInterface
	encryptionKey []byte
	refreshMargin time.Duration
	logger        *zap.Logger

	// Защита от параллельных refresh'ей одного токена
	refreshMu sync.Mutex
}

// NewTokenService создает новый экземпляр сервиса токенов
func NewTokenService(
	repo TokenRepositoryInterface,
	brokerClient BrokerClientInterface,
	encryptionKey []byte,
	refreshMargin time.Duration,
	logger *zap.Logger,
) *TokenService {
	if refreshMargin <= 0 {
		refreshMargin = 5 * time.Minute
	}
	return &TokenService{
		repo:          repo,
		broker:        brokerClient,
		encryptionKey: encryptionKey,
		refreshMargin: refreshMargin,
		logger:        logger,
	}
}

// AuthorizeURL возвращает URL авторизации брокера
func (s *TokenService) AuthorizeURL(state string) string {
	return s.broker.AuthorizeURL(state)
}

// Connect обменивает authorization code на токены и сохраняет их
func (s *TokenService) Connect(ctx context.Context, code string) error {
	resp, err := s.broker.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}

	if err := s.save(resp); err != nil {
		return err
	}

	s.logger.Info("broker connected",
		zap.Time("expires_at", time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second)))

	return nil
}

// AccessToken возвращает действующий access token, обновляя его при
// необходимости
func (s *TokenService) AccessToken(ctx context.Context) (string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	token, err := s.repo.Get(DefaultUserID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return "", ErrBrokerNotConnected
		}
		return "", err
	}

	if !token.IsExpired(s.refreshMargin) {
		return crypto.Decrypt(token.AccessToken, s.encryptionKey)
	}

	// Access token истекает - обновляем по refresh token'у
	refreshToken, err := crypto.Decrypt(token.RefreshToken, s.encryptionKey)
	if err != nil {
		return "", err
	}

	resp, err := s.broker.RefreshToken(ctx, refreshToken)
	if err != nil {
		s.logger.Error("broker token refresh failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	// Брокер может не возвращать новый refresh token - оставляем старый
	if resp.RefreshToken == "" {
		resp.RefreshToken = refreshToken
	}

	if err := s.save(resp); err != nil {
		return "", err
	}

	s.logger.Info("broker token refreshed",
		zap.Time("expires_at", time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second)))

	return resp.AccessToken, nil
}

// Accounts возвращает список брокерских счетов
//
// Используется дашбордом для выбора account_id перед импортом позиций.
func (s *TokenService) Accounts(ctx context.Context) ([]broker.Account, error) {
	accessToken, err := s.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.broker.GetAccounts(ctx, accessToken)
}

// Disconnect отзывает сохранённые токены
func (s *TokenService) Disconnect(ctx context.Context) error {
	if err := s.repo.Deactivate(DefaultUserID); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrBrokerNotConnected
		}
		return err
	}

	s.logger.Info("broker disconnected")
	return nil
}

// Status возвращает состояние подключения к брокеру
func (s *TokenService) Status(ctx context.Context) (*ConnectionStatus, error) {
	token, err := s.repo.Get(DefaultUserID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return &ConnectionStatus{Connected: false}, nil
		}
		return nil, err
	}

	return &ConnectionStatus{
		Connected: true,
		ExpiresAt: token.ExpiresAt,
		Scope:     token.Scope,
	}, nil
}

// save шифрует и сохраняет пару токенов
func (s *TokenService) save(resp *broker.TokenResponse) error {
	encryptedAccess, err := crypto.Encrypt(resp.AccessToken, s.encryptionKey)
	if err != nil {
		return err
	}
	encryptedRefresh, err := crypto.Encrypt(resp.RefreshToken, s.encryptionKey)
	if err != nil {
		return err
	}

	return s.repo.Upsert(&models.OAuthToken{
		UserID:       DefaultUserID,
		AccessToken:  encryptedAccess,
		RefreshToken: encryptedRefresh,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		TokenType:    resp.TokenType,
		Scope:        resp.Scope,
		IsActive:     true,
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"premiumtrader/internal/broker"
	"premiumtrader/internal/models"
	"premiumtrader/internal/repository"
	"premiumtrader/pkg/utils"
)

// Ошибки сервиса позиций
var (
	ErrPositionNotFound      = errors.New("position not found")
	ErrPositionAlreadyClosed = errors.New("position is already closed")
	ErrInvalidClosePrice     = errors.New("close price must be non-negative")
	ErrInvalidStatus         = errors.New("invalid status filter")
)

// PositionService - бизнес-логика управления опционными позициями
type PositionService struct {
	repo   PositionRepositoryInterface
	broker BrokerClientInterface
	tokens TokenServiceInterface
	logger *zap.Logger

	// Подписчики дашборда (может быть nil)
	notifier Notifier
}

// NewPositionService создает новый экземпляр сервиса позиций
func NewPositionService(
	repo PositionRepositoryInterface,
	brokerClient BrokerClientInterface,
	tokens TokenServiceInterface,
	logger *zap.Logger,
) *PositionService {
	return &PositionService{
		repo:   repo,
		broker: brokerClient,
		tokens: tokens,
		logger: logger,
	}
}

// SetNotifier устанавливает получателя событий
// Вызывается после инициализации websocket hub'а
func (s *PositionService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreatePosition создает новую позицию
// Выполняет:
// 1. Разбор и валидацию стратегии (закрытое перечисление)
// 2. Разбор дат входа и экспирации
// 3. Валидацию полей позиции
// 4. Сохранение в БД
func (s *PositionService) CreatePosition(ctx context.Context, req *models.CreatePositionRequest) (*models.Position, error) {
	strategy, err := models.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if err := utils.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	entryDate := time.Now()
	if req.EntryDate != "" {
		entryDate, err = utils.ParseDate(req.EntryDate)
		if err != nil {
			return nil, fmt.Errorf("invalid entry_date: %w", err)
		}
	}

	expirationDate, err := utils.ParseDate(req.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration_date: %w", err)
	}

	position := &models.Position{
		ID:              uuid.New().String(),
		Symbol:          symbol,
		Strategy:        strategy,
		Quantity:        req.Quantity,
		EntryPrice:      req.EntryPrice,
		EntryDate:       entryDate,
		ExpirationDate:  expirationDate,
		StrikePrice:     req.StrikePrice,
		PremiumReceived: req.PremiumReceived,
		Status:          models.PositionStatusOpen,
		Notes:           req.Notes,
		Sector:          req.Sector,
	}

	if err := position.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(position); err != nil {
		return nil, err
	}

	s.logger.Info("position created",
		zap.String("id", position.ID),
		zap.String("symbol", position.Symbol),
		zap.String("strategy", string(position.Strategy)))

	s.notifyPosition(position)

	return position, nil
}

// GetPosition возвращает позицию по ID
func (s *PositionService) GetPosition(ctx context.Context, id string) (*models.Position, error) {
	position, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	return position, nil
}

// GetPositions возвращает позиции с опциональным фильтром по статусу
// Пустой статус означает все позиции
func (s *PositionService) GetPositions(ctx context.Context, status string) ([]*models.Position, error) {
	switch status {
	case "":
		return s.repo.GetAll()
	case models.PositionStatusOpen, models.PositionStatusClosed:
		return s.repo.GetByStatus(status)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}

// UpdatePosition частично обновляет позицию (заметки, сектор)
func (s *PositionService) UpdatePosition(ctx context.Context, id string, req *models.UpdatePositionRequest) (*models.Position, error) {
	position, err := s.GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Notes != nil {
		position.Notes = *req.Notes
	}
	if req.Sector != nil {
		position.Sector = *req.Sector
	}

	if err := s.repo.Update(position); err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	s.notifyPosition(position)

	return position, nil
}

// ClosePosition закрывает позицию и фиксирует реализованный P&L
//
// P&L продавца премии: полученная премия минус стоимость выкупа
// опциона (цена за контракт * количество * 100).
func (s *PositionService) ClosePosition(ctx context.Context, id string, req *models.ClosePositionRequest) (*models.Position, error) {
	if req.ClosePrice < 0 {
		return nil, ErrInvalidClosePrice
	}

	position, err := s.GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	if !position.IsOpen() {
		return nil, ErrPositionAlreadyClosed
	}

	closeDate := time.Now()
	if req.CloseDate != "" {
		closeDate, err = utils.ParseDate(req.CloseDate)
		if err != nil {
			return nil, fmt.Errorf("invalid close_date: %w", err)
		}
	}

	profitLoss := utils.Round2(position.PremiumReceived - req.ClosePrice*float64(position.Quantity)*100)

	if err := s.repo.Close(id, req.ClosePrice, closeDate, profitLoss); err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return nil, ErrPositionAlreadyClosed
		}
		return nil, err
	}

	position.Status = models.PositionStatusClosed
	position.ClosePrice = &req.ClosePrice
	position.CloseDate = &closeDate
	position.ProfitLoss = &profitLoss

	s.logger.Info("position closed",
		zap.String("id", id),
		zap.Float64("profit_loss", profitLoss))

	s.notifyPosition(position)

	return position, nil
}

// DeletePosition удаляет позицию
func (s *PositionService) DeletePosition(ctx context.Context, id string) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			return ErrPositionNotFound
		}
		return err
	}

	s.logger.Info("position deleted", zap.String("id", id))
	return nil
}

// ============ Импорт позиций брокера ============

// ImportFromBroker импортирует опционные позиции со счёта брокера
//
// Импортируются только позиции с assetType OPTION: CALL превращается
// в covered_call, PUT - в cash_secured_put. Уже существующие позиции
// (по тому же брокерскому ID) пропускаются.
// Возвращает количество импортированных позиций.
func (s *PositionService) ImportFromBroker(ctx context.Context, accountID string) (int, error) {
	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return 0, err
	}

	brokerPositions, err := s.broker.GetPositions(ctx, accessToken, accountID)
	if err != nil {
		return 0, err
	}

	imported := 0
	for i := range brokerPositions {
		bp := &brokerPositions[i]
		if bp.Instrument.AssetType != "OPTION" {
			continue
		}

		position, err := s.mapBrokerPosition(bp)
		if err != nil {
			s.logger.Warn("skipping broker position",
				zap.String("broker_position_id", bp.PositionID),
				zap.Error(err))
			continue
		}

		if err := s.repo.Create(position); err != nil {
			if errors.Is(err, repository.ErrPositionExists) {
				continue
			}
			return imported, err
		}

		s.notifyPosition(position)
		imported++
	}

	s.logger.Info("broker positions imported",
		zap.String("account_id", accountID),
		zap.Int("imported", imported))

	return imported, nil
}

// mapBrokerPosition превращает брокерскую позицию во внутреннюю
func (s *PositionService) mapBrokerPosition(bp *broker.BrokerPosition) (*models.Position, error) {
	strategy := models.StrategyCashSecuredPut
	if bp.Instrument.PutCall == "CALL" {
		strategy = models.StrategyCoveredCall
	}

	expirationDate, err := time.Parse(time.RFC3339, bp.Instrument.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration date %q: %w", bp.Instrument.ExpirationDate, err)
	}

	entryDate := time.Now()
	if bp.AcquiredDate != "" {
		if parsed, err := time.Parse(time.RFC3339, bp.AcquiredDate); err == nil {
			entryDate = parsed
		}
	}

	id := bp.PositionID
	if id == "" {
		id = uuid.New().String()
	}

	return &models.Position{
		ID:              id,
		Symbol:          bp.Instrument.UnderlyingSymbol,
		Strategy:        strategy,
		Quantity:        bp.Quantity(),
		EntryPrice:      bp.AveragePrice,
		EntryDate:       entryDate,
		ExpirationDate:  expirationDate,
		StrikePrice:     bp.Instrument.StrikePrice,
		PremiumReceived: utils.Abs(bp.AveragePrice * 100),
		Status:          models.PositionStatusOpen,
		Notes:           fmt.Sprintf("Imported from Schwab on %s", time.Now().Format(utils.DateLayout)),
	}, nil
}

// notifyPosition рассылает обновление позиции подписчикам
func (s *PositionService) notifyPosition(position *models.Position) {
	if s.notifier != nil {
		s.notifier.NotifyPositionUpdate(position)
	}
}

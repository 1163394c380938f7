package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"premiumtrader/internal/config"
	"premiumtrader/internal/models"
	"premiumtrader/pkg/utils"
)

// cachedQuote - запись кэша котировок
type cachedQuote struct {
	quote     *models.Quote
	fetchedAt time.Time
}

// MarketDataService - котировки с TTL-кэшем поверх брокерского API
//
// Кэш снижает нагрузку на rate limit брокера: котировка живёт CacheTTL,
// устаревшая отдаётся как fallback при ошибке обновления.
type MarketDataService struct {
	broker BrokerClientInterface
	tokens TokenServiceInterface
	logger *zap.Logger

	ttl             time.Duration
	refreshInterval time.Duration
	marketLocation  *time.Location

	mu    sync.RWMutex
	cache map[string]cachedQuote

	// Подписчики дашборда (может быть nil)
	notifier Notifier
}

// NewMarketDataService создает новый экземпляр сервиса котировок
func NewMarketDataService(
	brokerClient BrokerClientInterface,
	tokens TokenServiceInterface,
	cfg config.MarketDataConfig,
	logger *zap.Logger,
) *MarketDataService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("invalid market timezone, falling back to UTC",
			zap.String("timezone", cfg.Timezone))
		loc = time.UTC
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	refreshInterval := cfg.RefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = ttl
	}

	return &MarketDataService{
		broker:          brokerClient,
		tokens:          tokens,
		logger:          logger,
		ttl:             ttl,
		refreshInterval: refreshInterval,
		marketLocation:  loc,
		cache:           make(map[string]cachedQuote),
	}
}

// SetNotifier устанавливает получателя событий
func (s *MarketDataService) SetNotifier(n Notifier) {
	s.notifier = n
}

// GetQuote возвращает котировку символа
//
// Свежая котировка берётся из кэша. При ошибке брокера возвращается
// устаревшая котировка, если она есть.
func (s *MarketDataService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if err := utils.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	if quote, ok := s.cached(symbol, s.ttl); ok {
		return quote, nil
	}

	quote, err := s.fetch(ctx, symbol)
	if err != nil {
		// Stale-while-error: устаревшая котировка лучше отказа
		if stale, ok := s.cached(symbol, 0); ok {
			s.logger.Warn("serving stale quote",
				zap.String("symbol", symbol),
				zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	return quote, nil
}

// GetOptionChain возвращает опционную цепочку по экспирации
func (s *MarketDataService) GetOptionChain(ctx context.Context, symbol string, expiration string) (*models.OptionChain, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if err := utils.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if _, err := utils.ParseDate(expiration); err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	return s.broker.GetOptionChain(ctx, accessToken, symbol, expiration)
}

// StartRefresher запускает фоновое обновление котировок
//
// symbols возвращает текущий список интересующих тикеров (символы
// открытых позиций). Обновление пропускается вне торговых часов.
// Останавливается отменой контекста.
func (s *MarketDataService) StartRefresher(ctx context.Context, symbols func() []string) {
	go func() {
		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now().In(s.marketLocation)
				if !utils.IsMarketHours(now, s.marketLocation) {
					continue
				}
				s.refreshAll(ctx, symbols())
			}
		}
	}()
}

// refreshAll обновляет котировки указанных символов
func (s *MarketDataService) refreshAll(ctx context.Context, symbols []string) {
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.fetch(ctx, symbol); err != nil {
			s.logger.Warn("quote refresh failed",
				zap.String("symbol", symbol),
				zap.Error(err))
		}
	}
}

// cached возвращает котировку из кэша
// maxAge 0 означает "любой возраст" (для stale fallback'а)
func (s *MarketDataService) cached(symbol string, maxAge time.Duration) (*models.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[symbol]
	if !ok {
		return nil, false
	}
	if maxAge > 0 && time.Since(entry.fetchedAt) > maxAge {
		return nil, false
	}
	return entry.quote, true
}

// fetch запрашивает котировку у брокера и кладёт в кэш
func (s *MarketDataService) fetch(ctx context.Context, symbol string) (*models.Quote, error) {
	accessToken, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	quote, err := s.broker.GetQuote(ctx, accessToken, symbol)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[symbol] = cachedQuote{quote: quote, fetchedAt: time.Now()}
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.NotifyQuoteUpdate(quote)
	}

	return quote, nil
}

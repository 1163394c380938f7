package broker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"premiumtrader/internal/config"
	"premiumtrader/internal/models"
	"premiumtrader/pkg/ratelimit"
	"premiumtrader/pkg/retry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client - HTTP клиент брокерского REST API
//
// Все запросы проходят через rate limiter и retry с экспоненциальным
// backoff. Ошибки 4xx помечаются как permanent и не повторяются.
type Client struct {
	cfg      config.BrokerConfig
	client   *http.Client
	limiter  *ratelimit.RateLimiter
	retryCfg retry.Config
	logger   *zap.Logger
}

// NewClient создает клиент брокерского API
func NewClient(cfg config.BrokerConfig, logger *zap.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2: true,
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	retryCfg.RetryIf = func(err error) bool {
		return retry.RetryIfNotContext(err) && retry.IsRetryable(err)
	}
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("broker request retry",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		limiter:  ratelimit.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		retryCfg: retryCfg,
		logger:   logger,
	}
}

// Close освобождает idle соединения
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

// ============================================================
// REST endpoints
// ============================================================

// GetAccounts возвращает список брокерских счетов
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	var resp accountsResponse
	if err := c.get(ctx, "/v1/accounts", accessToken, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// GetPositions возвращает позиции счёта
func (c *Client) GetPositions(ctx context.Context, accessToken, accountID string) ([]BrokerPosition, error) {
	var resp positionsResponse
	path := fmt.Sprintf("/v1/accounts/%s/positions", url.PathEscape(accountID))
	if err := c.get(ctx, path, accessToken, &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}

// GetQuote возвращает котировку символа
func (c *Client) GetQuote(ctx context.Context, accessToken, symbol string) (*models.Quote, error) {
	var data QuoteData
	path := fmt.Sprintf("/v1/quotes/%s", url.PathEscape(symbol))
	if err := c.get(ctx, path, accessToken, &data); err != nil {
		return nil, err
	}

	return &models.Quote{
		Symbol:        data.Symbol,
		Last:          data.LastPrice,
		Bid:           data.BidPrice,
		Ask:           data.AskPrice,
		Volume:        data.TotalVolume,
		ChangePercent: data.ChangePercent,
		UpdatedAt:     time.Now(),
	}, nil
}

// GetOptionChain возвращает опционную цепочку по одной экспирации
func (c *Client) GetOptionChain(ctx context.Context, accessToken, symbol, expiration string) (*models.OptionChain, error) {
	var resp chainResponse
	path := fmt.Sprintf("/v1/markets/chains?symbol=%s&expiration=%s",
		url.QueryEscape(symbol), url.QueryEscape(expiration))
	if err := c.get(ctx, path, accessToken, &resp); err != nil {
		return nil, err
	}

	chain := &models.OptionChain{
		Symbol:     resp.Symbol,
		Underlying: resp.UnderlyingPrice,
		Expiration: resp.Expiration,
		Calls:      make([]models.OptionContract, 0, len(resp.Calls)),
		Puts:       make([]models.OptionContract, 0, len(resp.Puts)),
	}
	for _, contract := range resp.Calls {
		chain.Calls = append(chain.Calls, mapChainContract(contract, "CALL"))
	}
	for _, contract := range resp.Puts {
		chain.Puts = append(chain.Puts, mapChainContract(contract, "PUT"))
	}

	return chain, nil
}

func mapChainContract(contract ChainContract, typ string) models.OptionContract {
	if contract.PutCall != "" {
		typ = contract.PutCall
	}
	return models.OptionContract{
		Symbol:       contract.Symbol,
		Type:         typ,
		Strike:       contract.StrikePrice,
		Bid:          contract.Bid,
		Ask:          contract.Ask,
		Delta:        contract.Delta,
		OpenInterest: contract.OpenInterest,
	}
}

// ============================================================
// Внутренние помощники
// ============================================================

// get выполняет GET запрос с rate limit'ом и retry
func (c *Client) get(ctx context.Context, path, accessToken string, out interface{}) error {
	body, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		return c.doOnce(ctx, path, accessToken)
	}, c.retryCfg)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode broker response: %w", err)
	}

	return nil
}

// doOnce выполняет один HTTP запрос без повторов
func (c *Client) doOnce(ctx context.Context, path, accessToken string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Лимит на случай некорректного ответа
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
		if !apiErr.Retryable() {
			return nil, retry.Permanent(apiErr)
		}
		return nil, apiErr
	}

	return body, nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"premiumtrader/internal/api"
	"premiumtrader/internal/broker"
	"premiumtrader/internal/config"
	"premiumtrader/internal/repository"
	"premiumtrader/internal/risk"
	"premiumtrader/internal/service"
	"premiumtrader/internal/websocket"
	"premiumtrader/pkg/utils"
)

func main() {
	// .env удобен в разработке, в production конфиг приходит из окружения
	_ = godotenv.Load()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database", zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозиториев
	positionRepo := repository.NewPositionRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// Клиент брокерского API
	brokerClient := broker.NewClient(cfg.Broker, logger)

	// Инициализация сервисов
	tokenService := service.NewTokenService(
		tokenRepo,
		brokerClient,
		[]byte(cfg.Security.EncryptionKey),
		cfg.Broker.TokenRefreshMargin,
		logger,
	)

	positionService := service.NewPositionService(positionRepo, brokerClient, tokenService, logger)

	engine := risk.NewEngine(risk.NewBlackScholes(cfg.Risk.RiskFreeRate), risk.Params{
		FallbackVolatility:  cfg.Risk.FallbackVolatility,
		CorrelationDiscount: cfg.Risk.CorrelationDiscount,
		Policy: risk.LevelPolicy{
			AccountSize:     cfg.Risk.AccountSize,
			LowRatio:        cfg.Risk.LowRatio,
			MediumRatio:     cfg.Risk.MediumRatio,
			HighRatio:       cfg.Risk.HighRatio,
			ShortDTE:        cfg.Risk.ShortDTE,
			AssignmentAlert: cfg.Risk.AssignmentAlert,
		},
	})
	riskService := service.NewRiskService(positionRepo, engine, logger)

	marketDataService := service.NewMarketDataService(brokerClient, tokenService, cfg.MarketData, logger)
	analyticsService := service.NewAnalyticsService(positionRepo, logger)

	// WebSocket hub для real-time обновлений дашборда
	hub := websocket.NewHub(logger)
	go hub.Run()

	positionService.SetNotifier(hub)
	riskService.SetNotifier(hub)
	marketDataService.SetNotifier(hub)

	// Фоновое обновление котировок по символам открытых позиций
	refresherCtx, stopRefresher := context.WithCancel(context.Background())
	defer stopRefresher()

	marketDataService.StartRefresher(refresherCtx, func() []string {
		positions, err := positionRepo.GetOpen()
		if err != nil {
			logger.Warn("failed to list open positions for quote refresh", zap.Error(err))
			return nil
		}
		seen := make(map[string]struct{}, len(positions))
		symbols := make([]string, 0, len(positions))
		for _, p := range positions {
			if _, ok := seen[p.Symbol]; ok {
				continue
			}
			seen[p.Symbol] = struct{}{}
			symbols = append(symbols, p.Symbol)
		}
		return symbols
	})

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		PositionService:   positionService,
		RiskService:       riskService,
		TokenService:      tokenService,
		MarketDataService: marketDataService,
		AnalyticsService:  analyticsService,
		Hub:               hub,
		Security:          cfg.Security,
		Logger:            logger,
	}

	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr), zap.Bool("https", cfg.Server.UseHTTPS))
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Останавливаем фоновое обновление котировок
	stopRefresher()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	// Отключаем websocket клиентов и закрываем соединения с брокером
	hub.Stop()
	brokerClient.Close()

	logger.Info("server exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

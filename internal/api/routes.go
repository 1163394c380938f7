package api

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"premiumtrader/internal/api/handlers"
	"premiumtrader/internal/api/middleware"
	"premiumtrader/internal/config"
	"premiumtrader/internal/service"
	"premiumtrader/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	PositionService   service.PositionServiceInterface
	RiskService       service.RiskServiceInterface
	TokenService      service.TokenServiceInterface
	MarketDataService service.MarketDataServiceInterface
	AnalyticsService  service.AnalyticsServiceInterface
	Hub               *websocket.Hub
	Security          config.SecurityConfig
	Logger            *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// Публичные:
//
//	├── GET /health        - health check
//	├── GET /metrics       - Prometheus метрики
//	├── POST /auth/login   - вход в дашборд (выдача JWT)
//	├── GET /auth/callback - OAuth callback от брокера
//	└── GET /ws/stream     - WebSocket real-time обновлений
//
// /api/v1/ (требуют Bearer JWT):
//
//	├── /positions/
//	│   ├── GET / - список позиций (?status=open|closed)
//	│   ├── POST / - создать позицию
//	│   ├── POST /import - импорт из брокера
//	│   ├── GET /{id} - получить позицию
//	│   ├── PATCH /{id} - обновить заметки и сектор
//	│   ├── POST /{id}/close - закрыть с фиксацией P&L
//	│   └── DELETE /{id} - удалить позицию
//	├── /risk/
//	│   ├── GET /positions/{id} - риск-отчет по позиции
//	│   └── GET /portfolio - риск портфеля
//	├── /quotes/{symbol} - котировка
//	├── /chains/{symbol} - опционная цепочка (?expiration=YYYY-MM-DD)
//	├── /analytics/summary - торговая статистика
//	└── /auth/broker
//	    ├── GET / - URL авторизации брокера
//	    ├── GET /status - статус подключения
//	    ├── GET /accounts - список брокерских счетов
//	    └── DELETE / - отключить брокера
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. JWTAuth (только /api/v1)
func SetupRoutes(deps *Dependencies) *mux.Router {
	logger := zap.NewNop()
	if deps != nil && deps.Logger != nil {
		logger = deps.Logger
	}

	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	var positionHandler *handlers.PositionHandler
	if deps != nil && deps.PositionService != nil {
		positionHandler = handlers.NewPositionHandler(deps.PositionService)
	}

	var riskHandler *handlers.RiskHandler
	if deps != nil && deps.RiskService != nil {
		riskHandler = handlers.NewRiskHandler(deps.RiskService)
	}

	var marketDataHandler *handlers.MarketDataHandler
	if deps != nil && deps.MarketDataService != nil {
		marketDataHandler = handlers.NewMarketDataHandler(deps.MarketDataService)
	}

	var analyticsHandler *handlers.AnalyticsHandler
	if deps != nil && deps.AnalyticsService != nil {
		analyticsHandler = handlers.NewAnalyticsHandler(deps.AnalyticsService)
	}

	var authHandler *handlers.AuthHandler
	if deps != nil && deps.TokenService != nil {
		authHandler = handlers.NewAuthHandler(deps.TokenService, deps.Security)
	}

	// Публичные auth endpoints: вход в дашборд и OAuth redirect брокера
	if authHandler != nil {
		router.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
		router.HandleFunc("/auth/callback", authHandler.BrokerCallback).Methods("GET")
	}

	// WebSocket stream для дашборда
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API v1 routes
	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	var jwtSecret string
	if deps != nil {
		jwtSecret = deps.Security.JWTSecret
	}
	apiV1.Use(middleware.JWTAuth(jwtSecret))

	// Position routes
	if positionHandler != nil {
		apiV1.HandleFunc("/positions", positionHandler.GetPositions).Methods("GET")
		apiV1.HandleFunc("/positions", positionHandler.CreatePosition).Methods("POST")
		apiV1.HandleFunc("/positions/import", positionHandler.ImportPositions).Methods("POST")
		apiV1.HandleFunc("/positions/{id}", positionHandler.GetPosition).Methods("GET")
		apiV1.HandleFunc("/positions/{id}", positionHandler.UpdatePosition).Methods("PATCH")
		apiV1.HandleFunc("/positions/{id}", positionHandler.DeletePosition).Methods("DELETE")
		apiV1.HandleFunc("/positions/{id}/close", positionHandler.ClosePosition).Methods("POST")
	}

	// Risk routes
	if riskHandler != nil {
		apiV1.HandleFunc("/risk/positions/{id}", riskHandler.GetPositionRisk).Methods("GET")
		apiV1.HandleFunc("/risk/portfolio", riskHandler.GetPortfolioRisk).Methods("GET")
	}

	// Market data routes
	if marketDataHandler != nil {
		apiV1.HandleFunc("/quotes/{symbol}", marketDataHandler.GetQuote).Methods("GET")
		apiV1.HandleFunc("/chains/{symbol}", marketDataHandler.GetOptionChain).Methods("GET")
	}

	// Analytics routes
	if analyticsHandler != nil {
		apiV1.HandleFunc("/analytics/summary", analyticsHandler.GetSummary).Methods("GET")
	}

	// Broker connection routes
	if authHandler != nil {
		apiV1.HandleFunc("/auth/broker", authHandler.BrokerAuthorizeURL).Methods("GET")
		apiV1.HandleFunc("/auth/broker/status", authHandler.BrokerStatus).Methods("GET")
		apiV1.HandleFunc("/auth/broker/accounts", authHandler.BrokerAccounts).Methods("GET")
		apiV1.HandleFunc("/auth/broker", authHandler.BrokerDisconnect).Methods("DELETE")
	}

	// Debug endpoints (pprof) под Basic Auth
	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(middleware.DebugAuth)
	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.PathPrefix("/").Handler(http.HandlerFunc(pprof.Index))

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Security   SecurityConfig
	Broker     BrokerConfig
	MarketData MarketDataConfig
	Risk       RiskConfig
	Logging    LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	JWTSecret      string
	EncryptionKey  string // AES-256 ключ для токенов брокера в БД
	PasswordHash   string // bcrypt-хеш пароля дашборда
	SessionTimeout int    // срок жизни JWT в секундах
}

// BrokerConfig - настройки брокерского API (Schwab)
type BrokerConfig struct {
	BaseURL     string
	AuthURL     string
	TokenURL    string
	ClientID    string
	AppSecret   string
	RedirectURI string

	// Rate limit и retry для REST запросов
	RateLimit      float64 // запросов в секунду
	RateBurst      float64
	MaxRetries     int
	RequestTimeout time.Duration

	// TokenRefreshMargin - запас до истечения access token,
	// при котором токен обновляется заранее
	TokenRefreshMargin time.Duration
}

// MarketDataConfig - настройки кэша котировок
type MarketDataConfig struct {
	CacheTTL        time.Duration // срок жизни котировки в кэше
	RefreshInterval time.Duration // период фонового обновления
	Timezone        string        // timezone рынка для расписания
}

// RiskConfig - параметры риск-движка
//
// Пороги классификации риск-уровня и скидка корреляции вынесены в
// конфигурацию: политика меняется без пересборки.
type RiskConfig struct {
	RiskFreeRate        float64 // безрисковая ставка для модели
	FallbackVolatility  float64 // волатильность при отсутствии implied vol
	CorrelationDiscount float64 // множитель worst-case портфеля

	AccountSize     float64 // размер счёта для ratio-порогов
	LowRatio        float64 // верхняя граница low
	MediumRatio     float64 // верхняя граница medium
	HighRatio       float64 // верхняя граница high
	ShortDTE        int     // порог "короткой" экспирации
	AssignmentAlert float64 // порог вероятности assignment для эскалации
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "premiumtrader"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
			EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
			PasswordHash:   getEnv("DASHBOARD_PASSWORD_HASH", ""),
			SessionTimeout: getEnvAsInt("SESSION_TIMEOUT", 3600),
		},
		Broker: BrokerConfig{
			BaseURL:     getEnv("BROKER_BASE_URL", "https://api.schwabapi.com"),
			AuthURL:     getEnv("BROKER_AUTH_URL", "https://api.schwabapi.com/v1/oauth/authorize"),
			TokenURL:    getEnv("BROKER_TOKEN_URL", "https://api.schwabapi.com/v1/oauth/token"),
			ClientID:    getEnv("BROKER_CLIENT_ID", ""),
			AppSecret:   getEnv("BROKER_APP_SECRET", ""),
			RedirectURI: getEnv("BROKER_REDIRECT_URI", "https://127.0.0.1:8080/auth/callback"),

			RateLimit:      getEnvAsFloat("BROKER_RATE_LIMIT", 2),
			RateBurst:      getEnvAsFloat("BROKER_RATE_BURST", 10),
			MaxRetries:     getEnvAsInt("BROKER_MAX_RETRIES", 4),
			RequestTimeout: getEnvAsDuration("BROKER_REQUEST_TIMEOUT", 10*time.Second),

			TokenRefreshMargin: getEnvAsDuration("BROKER_TOKEN_REFRESH_MARGIN", 5*time.Minute),
		},
		MarketData: MarketDataConfig{
			CacheTTL:        getEnvAsDuration("MARKET_DATA_CACHE_TTL", 15*time.Minute),
			RefreshInterval: getEnvAsDuration("MARKET_DATA_REFRESH_INTERVAL", 15*time.Minute),
			Timezone:        getEnv("MARKET_TIMEZONE", "America/New_York"),
		},
		Risk: RiskConfig{
			RiskFreeRate:        getEnvAsFloat("RISK_FREE_RATE", 0.03),
			FallbackVolatility:  getEnvAsFloat("RISK_FALLBACK_VOLATILITY", 0.30),
			CorrelationDiscount: getEnvAsFloat("RISK_CORRELATION_DISCOUNT", 0.8),

			AccountSize:     getEnvAsFloat("RISK_ACCOUNT_SIZE", 100_000),
			LowRatio:        getEnvAsFloat("RISK_LOW_RATIO", 0.02),
			MediumRatio:     getEnvAsFloat("RISK_MEDIUM_RATIO", 0.05),
			HighRatio:       getEnvAsFloat("RISK_HIGH_RATIO", 0.10),
			ShortDTE:        getEnvAsInt("RISK_SHORT_DTE", 7),
			AssignmentAlert: getEnvAsFloat("RISK_ASSIGNMENT_ALERT", 0.5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Валидация критичных параметров безопасности
	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecurity проверяет параметры безопасности
func (c *Config) validateSecurity() error {
	// ENCRYPTION_KEY обязателен для шифрования токенов брокера
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for encrypting broker tokens")
	}

	if len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	// JWT_SECRET обязателен и не должен быть default значением
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required for authentication")
	}

	if c.Security.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET must be changed from default value in production")
	}

	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	// Валидация портов
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	// Валидация retry параметров
	if c.Broker.MaxRetries < 0 {
		return fmt.Errorf("BROKER_MAX_RETRIES cannot be negative, got %d", c.Broker.MaxRetries)
	}

	if c.Broker.MaxRetries > 10 {
		return fmt.Errorf("BROKER_MAX_RETRIES should not exceed 10, got %d", c.Broker.MaxRetries)
	}

	if c.Broker.RequestTimeout <= 0 {
		return fmt.Errorf("BROKER_REQUEST_TIMEOUT must be positive, got %v", c.Broker.RequestTimeout)
	}

	if c.MarketData.CacheTTL <= 0 {
		return fmt.Errorf("MARKET_DATA_CACHE_TTL must be positive, got %v", c.MarketData.CacheTTL)
	}

	// Пороги риск-уровней должны возрастать
	if c.Risk.LowRatio <= 0 || c.Risk.MediumRatio <= c.Risk.LowRatio || c.Risk.HighRatio <= c.Risk.MediumRatio {
		return fmt.Errorf("risk thresholds must be increasing: low=%v medium=%v high=%v",
			c.Risk.LowRatio, c.Risk.MediumRatio, c.Risk.HighRatio)
	}

	if c.Risk.CorrelationDiscount <= 0 || c.Risk.CorrelationDiscount > 1 {
		return fmt.Errorf("RISK_CORRELATION_DISCOUNT must be in (0, 1], got %v", c.Risk.CorrelationDiscount)
	}

	if c.Risk.AssignmentAlert < 0 || c.Risk.AssignmentAlert > 1 {
		return fmt.Errorf("RISK_ASSIGNMENT_ALERT must be in [0, 1], got %v", c.Risk.AssignmentAlert)
	}

	// Валидация SessionTimeout
	if c.Security.SessionTimeout < 60 {
		return fmt.Errorf("SESSION_TIMEOUT must be at least 60 seconds, got %d", c.Security.SessionTimeout)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

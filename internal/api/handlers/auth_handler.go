package handlers

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"premiumtrader/internal/broker"
	"premiumtrader/internal/config"
	"premiumtrader/internal/service"
	"premiumtrader/pkg/crypto"
)

// AuthHandler отвечает за аутентификацию дашборда и подключение брокера
//
// Endpoints:
// - POST /auth/login                  - вход в дашборд (выдача JWT)
// - GET /auth/callback                - OAuth callback от брокера
// - GET /api/v1/auth/broker          - URL авторизации брокера
// - GET /api/v1/auth/broker/status   - статус подключения
// - GET /api/v1/auth/broker/accounts - список брокерских счетов
// - DELETE /api/v1/auth/broker       - отключение брокера
type AuthHandler struct {
	tokenService service.TokenServiceInterface
	security     config.SecurityConfig
}

// NewAuthHandler создает новый AuthHandler
func NewAuthHandler(tokenService service.TokenServiceInterface, security config.SecurityConfig) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		security:     security,
	}
}

// LoginRequest - тело запроса на вход в дашборд
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse - выданный JWT
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // секунды
}

// AuthorizeURLResponse - URL для OAuth авторизации у брокера
type AuthorizeURLResponse struct {
	AuthorizeURL string `json:"authorize_url"`
	State        string `json:"state"`
}

// Login проверяет пароль дашборда и выдает JWT
// POST /auth/login
//
// Response:
// - 200 OK: токен и срок жизни
// - 401 Unauthorized: неверный пароль
// - 503 Service Unavailable: пароль дашборда не настроен
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.security.PasswordHash == "" {
		respondWithError(w, http.StatusServiceUnavailable, "login_disabled", "Dashboard password is not configured", "")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	if !crypto.CheckPasswordMatch(req.Password, h.security.PasswordHash) {
		respondWithError(w, http.StatusUnauthorized, "invalid_password", "Invalid password", "")
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": "dashboard",
		"iat": now.Unix(),
		"exp": now.Add(time.Duration(h.security.SessionTimeout) * time.Second).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.security.JWTSecret))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Failed to issue token", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresIn: h.security.SessionTimeout,
	})
}

// BrokerAuthorizeURL возвращает URL для OAuth авторизации у брокера
// GET /api/v1/auth/broker
//
// Response:
// - 200 OK: URL и state параметр
func (h *AuthHandler) BrokerAuthorizeURL(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Token service is not initialized", "")
		return
	}

	state := uuid.New().String()

	respondWithJSON(w, http.StatusOK, AuthorizeURLResponse{
		AuthorizeURL: h.tokenService.AuthorizeURL(state),
		State:        state,
	})
}

// BrokerCallback обрабатывает OAuth redirect от брокера
// GET /auth/callback?code=...
//
// Обменивает authorization code на токены и сохраняет их
// в зашифрованном виде.
//
// Response:
// - 200 OK: брокер подключен
// - 400 Bad Request: отсутствует code
// - 502 Bad Gateway: обмен кода не удался
func (h *AuthHandler) BrokerCallback(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Token service is not initialized", "")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "missing_code", "code query parameter is required", "")
		return
	}

	if err := h.tokenService.Connect(r.Context(), code); err != nil {
		respondWithError(w, http.StatusBadGateway, "broker_connect_failed", "Failed to connect broker", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{
		Message: "Broker connected successfully",
	})
}

// BrokerStatus возвращает статус подключения брокера
// GET /api/v1/auth/broker/status
//
// Response:
// - 200 OK: статус (connected, expires_at)
func (h *AuthHandler) BrokerStatus(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Token service is not initialized", "")
		return
	}

	status, err := h.tokenService.Status(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// BrokerAccounts возвращает список брокерских счетов
// GET /api/v1/auth/broker/accounts
//
// Response:
// - 200 OK: список счетов
// - 409 Conflict: брокер не подключен
func (h *AuthHandler) BrokerAccounts(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Token service is not initialized", "")
		return
	}

	accounts, err := h.tokenService.Accounts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if accounts == nil {
		accounts = []broker.Account{}
	}

	respondWithJSON(w, http.StatusOK, accounts)
}

// BrokerDisconnect отключает брокера и деактивирует токены
// DELETE /api/v1/auth/broker
//
// Response:
// - 200 OK: брокер отключен
// - 409 Conflict: брокер не был подключен
func (h *AuthHandler) BrokerDisconnect(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil {
		respondWithError(w, http.StatusInternalServerError, "service_unavailable", "Token service is not initialized", "")
		return
	}

	if err := h.tokenService.Disconnect(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{
		Message: "Broker disconnected",
	})
}

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"premiumtrader/internal/broker"
	"premiumtrader/internal/config"
	"premiumtrader/internal/service"
	"premiumtrader/pkg/crypto"
)

// ============ AuthHandler Tests ============

func testSecurityConfig(t *testing.T) config.SecurityConfig {
	t.Helper()

	hash, err := crypto.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	return config.SecurityConfig{
		JWTSecret:      "test-secret-at-least-32-characters!!",
		PasswordHash:   hash,
		SessionTimeout: 3600,
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("issues valid JWT for correct password", func(t *testing.T) {
		security := testSecurityConfig(t)
		handler := NewAuthHandler(&MockTokenService{}, security)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password": "correct horse battery staple"}`))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var response LoginResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.ExpiresIn != 3600 {
			t.Errorf("ExpiresIn = %d, ожидали 3600", response.ExpiresIn)
		}

		// Выданный токен должен проходить валидацию с тем же секретом
		token, err := jwt.Parse(response.Token, func(t *jwt.Token) (interface{}, error) {
			return []byte(security.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			t.Fatalf("выданный токен не прошел валидацию: %v", err)
		}

		subject, _ := token.Claims.GetSubject()
		if subject != "dashboard" {
			t.Errorf("subject = %q, ожидали dashboard", subject)
		}

		expiration, _ := token.Claims.GetExpirationTime()
		if expiration == nil || time.Until(expiration.Time) > time.Hour+time.Minute {
			t.Errorf("неожиданный срок жизни токена: %v", expiration)
		}
	})

	t.Run("returns 401 for wrong password", func(t *testing.T) {
		handler := NewAuthHandler(&MockTokenService{}, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password": "wrong"}`))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("returns 503 when password hash is not configured", func(t *testing.T) {
		security := testSecurityConfig(t)
		security.PasswordHash = ""
		handler := NewAuthHandler(&MockTokenService{}, security)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password": "anything"}`))
		w := httptest.NewRecorder()

		handler.Login(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}
	})
}

func TestAuthHandler_BrokerAuthorizeURL(t *testing.T) {
	t.Run("returns authorize url with state", func(t *testing.T) {
		mockSvc := &MockTokenService{authorizeURL: "https://broker.example.com/authorize?client_id=abc"}
		handler := NewAuthHandler(mockSvc, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/broker", nil)
		w := httptest.NewRecorder()

		handler.BrokerAuthorizeURL(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response AuthorizeURLResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !strings.HasPrefix(response.AuthorizeURL, "https://broker.example.com/authorize") {
			t.Errorf("AuthorizeURL = %q", response.AuthorizeURL)
		}
		if response.State == "" {
			t.Error("ожидали непустой state")
		}
	})
}

func TestAuthHandler_BrokerCallback(t *testing.T) {
	t.Run("exchanges code and connects broker", func(t *testing.T) {
		mockSvc := &MockTokenService{}
		handler := NewAuthHandler(mockSvc, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code-123", nil)
		w := httptest.NewRecorder()

		handler.BrokerCallback(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		if mockSvc.connectedWith != "auth-code-123" {
			t.Errorf("Connect вызван с кодом %q", mockSvc.connectedWith)
		}
	})

	t.Run("returns 400 without code", func(t *testing.T) {
		handler := NewAuthHandler(&MockTokenService{}, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
		w := httptest.NewRecorder()

		handler.BrokerCallback(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("returns 502 when code exchange fails", func(t *testing.T) {
		mockSvc := &MockTokenService{connectErr: ErrMockDatabase}
		handler := NewAuthHandler(mockSvc, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=bad-code", nil)
		w := httptest.NewRecorder()

		handler.BrokerCallback(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("expected status %d, got %d", http.StatusBadGateway, w.Code)
		}
	})
}

func TestAuthHandler_BrokerStatus(t *testing.T) {
	t.Run("returns connection status", func(t *testing.T) {
		mockSvc := &MockTokenService{
			status: &service.ConnectionStatus{
				Connected: true,
				ExpiresAt: time.Now().Add(25 * time.Minute),
				Scope:     "api",
			},
		}
		handler := NewAuthHandler(mockSvc, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/broker/status", nil)
		w := httptest.NewRecorder()

		handler.BrokerStatus(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response service.ConnectionStatus
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !response.Connected {
			t.Error("ожидали connected=true")
		}
	})
}

func TestAuthHandler_BrokerAccounts(t *testing.T) {
	t.Run("returns accounts", func(t *testing.T) {
		mockSvc := &MockTokenService{
			accounts: []broker.Account{
				{AccountID: "acc-1", Type: "MARGIN", Equity: 50000},
			},
		}
		handler := NewAuthHandler(mockSvc, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/broker/accounts", nil)
		w := httptest.NewRecorder()

		handler.BrokerAccounts(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response []broker.Account
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(response) != 1 || response[0].AccountID != "acc-1" {
			t.Errorf("неожиданный список счетов: %+v", response)
		}
	})

	t.Run("returns empty array when broker has no accounts", func(t *testing.T) {
		handler := NewAuthHandler(&MockTokenService{}, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/broker/accounts", nil)
		w := httptest.NewRecorder()

		handler.BrokerAccounts(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if body := strings.TrimSpace(w.Body.String()); body != "[]" {
			t.Errorf("body = %q, ожидали []", body)
		}
	})

	t.Run("returns 409 when broker is not connected", func(t *testing.T) {
		mockSvc := &MockTokenService{accountsErr: service.ErrBrokerNotConnected}
		handler := NewAuthHandler(mockSvc, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/broker/accounts", nil)
		w := httptest.NewRecorder()

		handler.BrokerAccounts(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})
}

func TestAuthHandler_BrokerDisconnect(t *testing.T) {
	t.Run("disconnects broker", func(t *testing.T) {
		mockSvc := &MockTokenService{}
		handler := NewAuthHandler(mockSvc, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/auth/broker", nil)
		w := httptest.NewRecorder()

		handler.BrokerDisconnect(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if !mockSvc.disconnected {
			t.Error("Disconnect не был вызван")
		}
	})

	t.Run("returns 409 when broker was not connected", func(t *testing.T) {
		mockSvc := &MockTokenService{disconnectErr: service.ErrBrokerNotConnected}
		handler := NewAuthHandler(mockSvc, testSecurityConfig(t))

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/auth/broker", nil)
		w := httptest.NewRecorder()

		handler.BrokerDisconnect(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-secret-at-least-32-characters!!"

// signToken выписывает тестовый JWT
func signToken(t *testing.T, secret string, expiresIn time.Duration) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": "dashboard",
		"exp": time.Now().Add(expiresIn).Unix(),
		"iat": time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// okHandler отвечает 200 и запоминает subject из context
func okHandler(gotUser *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := r.Context().Value(UserContextKey).(string); ok {
			*gotUser = user
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTAuth(t *testing.T) {
	t.Run("valid token passes and sets user in context", func(t *testing.T) {
		var gotUser string
		handler := JWTAuth(testSecret)(okHandler(&gotUser))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, time.Hour))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if gotUser != "dashboard" {
			t.Errorf("expected user dashboard in context, got %q", gotUser)
		}
	})

	t.Run("missing token returns 401", func(t *testing.T) {
		var gotUser string
		handler := JWTAuth(testSecret)(okHandler(&gotUser))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("expired token returns 401", func(t *testing.T) {
		var gotUser string
		handler := JWTAuth(testSecret)(okHandler(&gotUser))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, -time.Hour))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("token signed with wrong secret returns 401", func(t *testing.T) {
		var gotUser string
		handler := JWTAuth(testSecret)(okHandler(&gotUser))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "another-secret-also-32-characters!!!", time.Hour))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("malformed header returns 401", func(t *testing.T) {
		var gotUser string
		handler := JWTAuth(testSecret)(okHandler(&gotUser))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
		req.Header.Set("Authorization", "Token abc123")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin gets credentials headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		CORS(next).ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Allow-Origin = %q, ожидали http://localhost:3000", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Allow-Credentials = %q, ожидали true", got)
		}
	})

	t.Run("disallowed origin gets no allow-origin header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		w := httptest.NewRecorder()

		CORS(next).ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, ожидали пустой заголовок", got)
		}
	})

	t.Run("preflight request is answered immediately", func(t *testing.T) {
		called := false
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/positions", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		CORS(inner).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if called {
			t.Error("preflight не должен доходить до handler'а")
		}
	})
}

func TestRecovery(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	handler := Recovery(zap.NewNop())(panicking)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestLogging_CapturesStatus(t *testing.T) {
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	handler := Logging(zap.NewNop())(notFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions/missing", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

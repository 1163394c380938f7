package websocket

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"premiumtrader/internal/models"
)

// ============================================================
// Unit Tests
// ============================================================

func newTestHub() *Hub {
	return NewHub(zap.NewNop())
}

// newFakeClient регистрирует клиента без реального соединения
func newFakeClient(hub *Hub, bufferSize int) *Client {
	client := &Client{
		hub:  hub,
		send: make(chan []byte, bufferSize),
	}
	hub.register <- client
	return client
}

func TestNewHub(t *testing.T) {
	hub := newTestHub()

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}

	if hub.DroppedMessages() != 0 {
		t.Errorf("expected 0 dropped messages, got %d", hub.DroppedMessages())
	}
}

func TestOriginChecker_Check(t *testing.T) {
	checker := &OriginChecker{
		allowedOrigins: map[string]struct{}{
			"http://localhost:3000": {},
			"https://example.com":   {},
		},
		allowAll: false,
	}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},                       // empty origin allowed
		{"http://localhost:3000", true},  // allowed
		{"https://example.com", true},    // allowed
		{"http://evil.com", false},       // not allowed
		{"http://localhost:8080", false}, // not in list
	}

	for _, tt := range tests {
		got := checker.Check(tt.origin)
		if got != tt.want {
			t.Errorf("Check(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestOriginChecker_AllowAll(t *testing.T) {
	checker := &OriginChecker{
		allowAll: true,
	}

	origins := []string{
		"http://localhost:3000",
		"https://evil.com",
		"http://anything.example.org",
	}

	for _, origin := range origins {
		if !checker.Check(origin) {
			t.Errorf("allowAll=true but Check(%q) = false", origin)
		}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	client := newFakeClient(hub, 8)

	// Регистрация обрабатывается асинхронно
	deadline := time.After(time.Second)
	for hub.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client was not registered")
		case <-time.After(time.Millisecond):
		}
	}

	hub.unregister <- client

	deadline = time.After(time.Second)
	for hub.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("client was not unregistered")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestHub_NotifyPositionUpdate(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	client := newFakeClient(hub, 8)

	time.Sleep(10 * time.Millisecond)

	hub.NotifyPositionUpdate(&models.Position{
		ID:       "pos-1",
		Symbol:   "AAPL",
		Strategy: models.StrategyCoveredCall,
	})

	select {
	case raw := <-client.send:
		var msg struct {
			Type MessageType      `json:"type"`
			Data *models.Position `json:"data"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if msg.Type != MessageTypePositionUpdate {
			t.Errorf("type = %q, ожидали positionUpdate", msg.Type)
		}
		if msg.Data == nil || msg.Data.ID != "pos-1" {
			t.Errorf("неожиданные данные: %+v", msg.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("сообщение не доставлено")
	}
}

func TestHub_SlowClientRemoved(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	// Клиент с нулевым буфером не успевает читать
	newFakeClient(hub, 0)
	time.Sleep(10 * time.Millisecond)

	hub.NotifyQuoteUpdate(&models.Quote{Symbol: "AAPL", Last: 150})

	deadline := time.After(time.Second)
	for hub.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("slow client was not removed")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestHub_Stop(t *testing.T) {
	hub := newTestHub()

	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	hub.Stop()

	select {
	case <-done:
		// OK - Run() exited
	case <-time.After(1 * time.Second):
		t.Error("Hub.Run() did not exit after Stop()")
	}
}

// ============================================================
// Parallel Stress Test
// ============================================================

func TestHub_ConcurrentOperations(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	var wg sync.WaitGroup
	const goroutines = 10
	const operations = 1000

	// Concurrent broadcasts
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				hub.Broadcast(map[string]int{"goroutine": id, "op": j})
			}
		}(i)
	}

	// Concurrent ClientCount reads
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				_ = hub.ClientCount()
			}
		}()
	}

	wg.Wait()
}

// ============================================================
// Benchmarks
// ============================================================

// BenchmarkHub_Broadcast тестирует скорость broadcast
func BenchmarkHub_Broadcast(b *testing.B) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	msg := NewQuoteUpdateMessage(&models.Quote{Symbol: "AAPL", Last: 150.25})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hub.Broadcast(msg)
	}
}

// BenchmarkNewRiskUpdateMessage тестирует создание сообщения
func BenchmarkNewRiskUpdateMessage(b *testing.B) {
	report := &models.PortfolioRiskReport{
		TotalRisk: 800,
		MaxLoss:   640,
		SectorExposure: map[string]float64{
			"Technology": 60,
			"Energy":     40,
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = NewRiskUpdateMessage(report)
	}
}

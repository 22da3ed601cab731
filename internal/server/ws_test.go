package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jhendrix/echo/internal/app"
	"github.com/jhendrix/echo/internal/detector"
)

func newEventsFixture(t *testing.T) (*EventsHandler, *websocket.Conn) {
	t.Helper()

	a, err := app.New(app.Config{Detector: detector.DefaultConfig()})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	h := NewEventsHandler(a)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitForClients(t, h, 1)
	return h, conn
}

func waitForClients(t *testing.T, h *EventsHandler, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		got := len(h.clients)
		h.mu.RUnlock()
		if got == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count did not reach %d in time", n)
}

func TestEventsHandler_BroadcastsDetection(t *testing.T) {
	h, conn := newEventsFixture(t)

	h.enqueue(detector.Detection{Total: 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var event map[string]interface{}
	if err := json.Unmarshal(msg, &event); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if event["total_arrows"] != float64(3) {
		t.Errorf("total_arrows = %v, want 3", event["total_arrows"])
	}
	if _, ok := event["timestamp"]; !ok {
		t.Error("expected a timestamp field")
	}
}

func TestEventsHandler_OverlappingDetections(t *testing.T) {
	h, conn := newEventsFixture(t)

	// Detection cycles from the poller and the detect endpoint can
	// land at the same time; every resulting frame must still be a
	// well-formed message.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(total int) {
			defer wg.Done()
			h.enqueue(detector.Detection{Total: total})
		}(i + 1)
	}
	wg.Wait()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 3; i++ {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() %d error = %v", i, err)
		}
		var event map[string]interface{}
		if err := json.Unmarshal(msg, &event); err != nil {
			t.Fatalf("message %d is not valid JSON: %v", i, err)
		}
		if _, ok := event["total_arrows"]; !ok {
			t.Errorf("message %d missing total_arrows", i)
		}
	}
}

func TestEventsHandler_RemovesClosedClients(t *testing.T) {
	h, conn := newEventsFixture(t)

	conn.Close()
	waitForClients(t, h, 0)
}

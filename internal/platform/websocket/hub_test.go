package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Hub tests
// ---------------------------------------------------------------------------

func TestHub_RegisterClient(t *testing.T) {
	hub := newTestHub()
	client := NewClient(SessionTopic("s1"))

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount("session/s1") != 1 {
		t.Fatalf("expected 1 client on session/s1, got %d", hub.TopicCount("session/s1"))
	}
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	hub := newTestHub()
	client := NewClient(SessionTopic("s1"))

	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.TopicCount(SessionTopic("s1")) != 0 {
		t.Fatal("topic should be empty after unregister")
	}
	if _, ok := <-client.Send; ok {
		t.Fatal("Send channel should be closed")
	}
}

func TestHub_BroadcastToTopic(t *testing.T) {
	hub := newTestHub()
	subscriber := NewClient(SessionTopic("a"))
	other := NewClient(SessionTopic("b"))
	hub.Register(subscriber)
	hub.Register(other)

	event, err := NewEvent("toast", SessionTopic("a"), map[string]string{"message": "ok"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	hub.Broadcast(SessionTopic("a"), event)

	select {
	case msg := <-subscriber.Send:
		var got Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "toast" || got.Topic != SessionTopic("a") {
			t.Errorf("unexpected event: %+v", got)
		}
	default:
		t.Fatal("subscriber should have received the event")
	}

	select {
	case <-other.Send:
		t.Fatal("non-subscriber should not receive the event")
	default:
	}
}

func TestHub_BroadcastDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub()
	client := &Client{ID: "slow", Topics: []string{"t"}, Send: make(chan []byte, 1)}
	hub.Register(client)

	hub.Broadcast("t", Event{Type: "x", Topic: "t"})
	hub.Broadcast("t", Event{Type: "x", Topic: "t"})

	if hub.Dropped() != 1 {
		t.Fatalf("expected 1 dropped delivery, got %d", hub.Dropped())
	}
}

func TestHub_BroadcastToEmptyTopic(t *testing.T) {
	hub := newTestHub()
	hub.Broadcast("nobody", Event{Type: "x"})
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := newTestHub()
	client := NewClient()
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{"a", "b"}})
	if hub.TopicCount("a") != 1 || hub.TopicCount("b") != 1 {
		t.Fatal("expected subscriptions to a and b")
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{"a"}})
	if hub.TopicCount("a") != 0 {
		t.Fatal("expected a to be empty")
	}
	if len(client.Topics) != 1 || client.Topics[0] != "b" {
		t.Fatalf("client topics = %v, want [b]", client.Topics)
	}

	hub.ProcessMessage(client, ClientMessage{Action: "bogus", Topics: []string{"c"}})
	if hub.TopicCount("c") != 0 {
		t.Fatal("unknown action should be ignored")
	}
}

func TestHub_PublishEvent(t *testing.T) {
	hub := newTestHub()
	client := NewClient("t")
	hub.Register(client)

	var pub EventPublisher = hub
	if err := pub.Publish(context.Background(), Event{Type: "toast", Topic: "t"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(client.Send) != 1 {
		t.Fatalf("expected 1 queued message, got %d", len(client.Send))
	}
}

func TestHub_ConcurrentRegisterUnregister(t *testing.T) {
	hub := newTestHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewClient("shared")
			hub.Register(c)
			hub.Broadcast("shared", Event{Type: "x", Topic: "shared"})
			hub.Unregister(c)
		}()
	}
	wg.Wait()

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestNewEvent_MarshalError(t *testing.T) {
	if _, err := NewEvent("x", "t", make(chan int)); err == nil {
		t.Fatal("expected marshal error for channel payload")
	}
}

// ---------------------------------------------------------------------------
// Handler tests
// ---------------------------------------------------------------------------

func TestHandler_RequiresWebSocket(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewHandler(newTestHub())
	_ = h.HandleConnect(c)

	if rec.Code == http.StatusSwitchingProtocols {
		t.Fatal("plain HTTP request must not be upgraded")
	}
}

func TestHandler_SessionSubscriptionAndDelivery(t *testing.T) {
	hub := newTestHub()
	e := echo.New()
	NewHandler(hub).RegisterRoutes(e)

	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?session=abc"
	conn, resp, err := gorillawebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.TopicCount(SessionTopic("abc")) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.TopicCount(SessionTopic("abc")) != 1 {
		t.Fatal("client should be subscribed to its session topic")
	}

	event, _ := NewEvent("toast", SessionTopic("abc"), map[string]string{"level": "info"})
	hub.Broadcast(SessionTopic("abc"), event)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Event
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if received.Type != "toast" {
		t.Fatalf("expected toast, got %s", received.Type)
	}
}

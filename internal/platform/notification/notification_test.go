package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fetalcare/fetalcare/internal/platform/websocket"
)

type mockPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, ev websocket.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

type staticSessions map[string]bool

func (s staticSessions) Exists(id string) bool { return s[id] }

// ---------------------------------------------------------------------------
// Center Tests
// ---------------------------------------------------------------------------

func TestCenter_NotifyQueuesAndPublishes(t *testing.T) {
	pub := &mockPublisher{}
	c := NewCenter(pub, zerolog.Nop())

	toast := c.Notify("s1", LevelSuccess, "Resultado salvo com sucesso!")
	if toast.ID == "" || toast.SessionID != "s1" {
		t.Fatalf("unexpected toast: %+v", toast)
	}

	pending := c.Pending("s1")
	if len(pending) != 1 || pending[0].Message != "Resultado salvo com sucesso!" {
		t.Fatalf("pending = %+v", pending)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != EventToast || ev.Topic != websocket.SessionTopic("s1") {
		t.Errorf("event = %+v", ev)
	}
	var decoded Toast
	if err := json.Unmarshal(ev.Data, &decoded); err != nil {
		t.Fatalf("decode event data: %v", err)
	}
	if decoded.Level != LevelSuccess {
		t.Errorf("decoded level = %s", decoded.Level)
	}
}

func TestCenter_PublishErrorDoesNotDropToast(t *testing.T) {
	c := NewCenter(&mockPublisher{err: errors.New("down")}, zerolog.Nop())
	c.Notify("s1", LevelError, "x")
	if len(c.Pending("s1")) != 1 {
		t.Fatal("toast should stay queued when the push fails")
	}
}

func TestCenter_NilPublisher(t *testing.T) {
	c := NewCenter(nil, zerolog.Nop())
	c.For("s1").Notify(LevelInfo, "offline")
	if len(c.Pending("s1")) != 1 {
		t.Fatal("expected 1 pending toast")
	}
}

func TestCenter_QueueIsBounded(t *testing.T) {
	c := NewCenter(nil, zerolog.Nop())
	for i := 0; i < DefaultQueueSize+5; i++ {
		c.Notify("s1", LevelInfo, "m")
	}
	c.Notify("s1", LevelInfo, "latest")

	pending := c.Pending("s1")
	if len(pending) != DefaultQueueSize {
		t.Fatalf("len = %d, want %d", len(pending), DefaultQueueSize)
	}
	if pending[len(pending)-1].Message != "latest" {
		t.Error("newest toast should be kept")
	}
}

func TestCenter_DrainAndForget(t *testing.T) {
	c := NewCenter(nil, zerolog.Nop())
	c.Notify("s1", LevelInfo, "a")
	c.Notify("s2", LevelInfo, "b")

	if got := c.Drain("s1"); len(got) != 1 {
		t.Fatalf("Drain = %d toasts, want 1", len(got))
	}
	if got := c.Drain("s1"); len(got) != 0 {
		t.Fatalf("second Drain = %d toasts, want 0", len(got))
	}

	c.Forget("s2")
	if len(c.Pending("s2")) != 0 {
		t.Fatal("Forget should clear the queue")
	}
}

func TestCenter_Stats(t *testing.T) {
	c := NewCenter(nil, zerolog.Nop())
	c.Notify("a", LevelError, "x")
	c.Notify("b", LevelError, "y")
	c.Notify("a", LevelWarning, "z")

	stats := c.Stats()
	if stats[LevelError] != 2 || stats[LevelWarning] != 1 || stats[LevelSuccess] != 0 {
		t.Errorf("stats = %v", stats)
	}
}

func TestCenter_ConcurrentNotify(t *testing.T) {
	c := NewCenter(&mockPublisher{}, zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Notify("s", LevelInfo, "m")
		}()
	}
	wg.Wait()
	if len(c.Pending("s")) != 20 {
		t.Fatalf("pending = %d, want 20", len(c.Pending("s")))
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	if _, ok := r.Last(); ok {
		t.Fatal("empty recorder has no last toast")
	}
	r.Notify(LevelWarning, "w")
	r.Notify(LevelError, "e")
	last, ok := r.Last()
	if !ok || last.Level != LevelError {
		t.Fatalf("Last = %+v, %v", last, ok)
	}
	if len(r.Toasts()) != 2 {
		t.Fatalf("Toasts = %d, want 2", len(r.Toasts()))
	}
}

// ---------------------------------------------------------------------------
// Handler Tests
// ---------------------------------------------------------------------------

func TestHandler_List(t *testing.T) {
	center := NewCenter(nil, zerolog.Nop())
	center.Notify("s1", LevelInfo, "hello")
	h := NewHandler(center, staticSessions{"s1": true})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?drain=true", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("s1")

	if err := h.HandleList(c); err != nil {
		t.Fatalf("HandleList: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []Toast
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Message != "hello" {
		t.Errorf("body = %+v", got)
	}
	if len(center.Pending("s1")) != 0 {
		t.Error("drain should clear the queue")
	}
}

func TestHandler_UnknownSession(t *testing.T) {
	h := NewHandler(NewCenter(nil, zerolog.Nop()), staticSessions{})

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := h.HandleList(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

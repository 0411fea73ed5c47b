// Package notification queues operator-facing toasts per console session and
// pushes them to subscribed WebSocket clients.
package notification

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fetalcare/fetalcare/internal/platform/websocket"
)

// ---------------------------------------------------------------------------
// Toast
// ---------------------------------------------------------------------------

// Level is the visual severity of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// EventToast is the websocket event type carrying a Toast.
const EventToast = "toast"

// DefaultQueueSize is how many undelivered toasts a session keeps. Older
// toasts are discarded first.
const DefaultQueueSize = 50

// Toast is one transient message shown to the operator.
type Toast struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier emits toasts for a single session.
type Notifier interface {
	Notify(level Level, message string)
}

// ---------------------------------------------------------------------------
// Center
// ---------------------------------------------------------------------------

// Center stores pending toasts per session and forwards each one to the
// session's WebSocket topic when a publisher is configured.
type Center struct {
	mu        sync.Mutex
	queues    map[string][]Toast
	counts    map[Level]int
	max       int
	publisher websocket.EventPublisher
	logger    zerolog.Logger
}

// NewCenter returns a Center. publisher may be nil.
func NewCenter(publisher websocket.EventPublisher, logger zerolog.Logger) *Center {
	return &Center{
		queues:    make(map[string][]Toast),
		counts:    make(map[Level]int),
		max:       DefaultQueueSize,
		publisher: publisher,
		logger:    logger.With().Str("component", "notification").Logger(),
	}
}

// Notify queues a toast for sessionID and pushes it to live clients.
func (c *Center) Notify(sessionID string, level Level, message string) Toast {
	t := Toast{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	q := append(c.queues[sessionID], t)
	if len(q) > c.max {
		q = q[len(q)-c.max:]
	}
	c.queues[sessionID] = q
	c.counts[level]++
	c.mu.Unlock()

	c.logger.Debug().Str("session", sessionID).Str("level", string(level)).Msg(message)

	if c.publisher != nil {
		ev, err := websocket.NewEvent(EventToast, websocket.SessionTopic(sessionID), t)
		if err == nil {
			err = c.publisher.Publish(context.Background(), ev)
		}
		if err != nil {
			c.logger.Warn().Err(err).Str("session", sessionID).Msg("toast push failed")
		}
	}
	return t
}

// For returns a Notifier bound to sessionID.
func (c *Center) For(sessionID string) Notifier {
	return sessionNotifier{center: c, session: sessionID}
}

// Pending returns a copy of the queued toasts for sessionID.
func (c *Center) Pending(sessionID string) []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Toast, len(c.queues[sessionID]))
	copy(out, c.queues[sessionID])
	return out
}

// Drain returns and clears the queued toasts for sessionID.
func (c *Center) Drain(sessionID string) []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.queues[sessionID]
	delete(c.queues, sessionID)
	if out == nil {
		out = []Toast{}
	}
	return out
}

// Forget drops everything queued for sessionID.
func (c *Center) Forget(sessionID string) {
	c.mu.Lock()
	delete(c.queues, sessionID)
	c.mu.Unlock()
}

// Stats returns how many toasts have been emitted per level.
func (c *Center) Stats() map[Level]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[Level]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

type sessionNotifier struct {
	center  *Center
	session string
}

func (n sessionNotifier) Notify(level Level, message string) {
	n.center.Notify(n.session, level, message)
}

// ---------------------------------------------------------------------------
// Recorder (test double)
// ---------------------------------------------------------------------------

// Recorder is a Notifier that keeps every toast in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

// Notify records the toast.
func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Message: message, CreatedAt: time.Now().UTC()})
}

// Toasts returns a copy of the recorded toasts.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Last returns the most recent toast and whether there was one.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}

// ---------------------------------------------------------------------------
// HTTP Handler
// ---------------------------------------------------------------------------

// SessionLookup reports whether a console session exists.
type SessionLookup interface {
	Exists(id string) bool
}

// Handler exposes queued toasts over HTTP.
type Handler struct {
	center   *Center
	sessions SessionLookup
}

// NewHandler creates a Handler.
func NewHandler(center *Center, sessions SessionLookup) *Handler {
	return &Handler{center: center, sessions: sessions}
}

// RegisterRoutes registers GET /sessions/:id/notifications on g.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/sessions/:id/notifications", h.HandleList)
}

// HandleList returns the session's pending toasts. With ?drain=true the
// queue is cleared as it is read.
func (h *Handler) HandleList(c echo.Context) error {
	id := c.Param("id")
	if !h.sessions.Exists(id) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if c.QueryParam("drain") == "true" {
		return c.JSON(http.StatusOK, h.center.Drain(id))
	}
	return c.JSON(http.StatusOK, h.center.Pending(id))
}

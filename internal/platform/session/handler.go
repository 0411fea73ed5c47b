package session

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/sessions", h.Create)
	api.GET("/sessions/:id", h.Get)
	api.DELETE("/sessions/:id", h.Delete)
}

type createResponse struct {
	Session    Info                `json:"session"`
	Connection fetalapi.Connection `json:"connection"`
}

// Create opens a session and runs the initial connection check, whose
// outcome is also queued as a toast for the new session.
func (h *Handler) Create(c echo.Context) error {
	sess := h.store.Create()
	conn := sess.Controller.CheckConnection(c.Request().Context())
	info, err := h.store.Info(sess.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, createResponse{Session: info, Connection: conn})
}

func (h *Handler) Get(c echo.Context) error {
	info, err := h.store.Info(c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

package records

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fetalcare/fetalcare/internal/platform/notification"
	"github.com/fetalcare/fetalcare/pkg/pagination"
)

// Sessions resolves the per-session browser and notifier.
type Sessions interface {
	Browser(id string) (*Browser, bool)
	Notifier(id string) notification.Notifier
}

type Handler struct {
	svc      *Service
	sessions Sessions
}

func NewHandler(svc *Service, sessions Sessions) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/records/stats", h.GetStats)

	sg := api.Group("/sessions/:id/records")
	sg.GET("", h.GetRecords)
	sg.POST("/filters", h.ApplyFilters)
	sg.DELETE("/filters", h.ClearFilters)
	sg.POST("/page", h.ChangePage)
	sg.POST("/refresh", h.Refresh)
	sg.POST("/quick-filter", h.QuickFilter)
}

type filtersRequest struct {
	CPF    string `json:"cpf"`
	Status string `json:"status"`
	Limit  string `json:"limit"`
}

type pageRequest struct {
	Page int `json:"page"`
}

type quickFilterRequest struct {
	CPF string `json:"cpf"`
}

func (h *Handler) browser(c echo.Context) (*Browser, error) {
	b, ok := h.sessions.Browser(c.Param("id"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return b, nil
}

// respond writes the rendered view. A failed fetch is still described by the
// view; the status code tells the caller the remote side failed.
func respond(c echo.Context, snap Snapshot, err error) error {
	if err != nil {
		return c.JSON(http.StatusBadGateway, Render(snap))
	}
	return c.JSON(http.StatusOK, Render(snap))
}

func (h *Handler) GetStats(c echo.Context) error {
	st, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

// GetRecords returns the current view, loading the first page if the browser
// has never fetched. With ?page= or ?limit= it fetches that page instead; an
// absent limit keeps the browser's current page size.
func (h *Handler) GetRecords(c echo.Context) error {
	b, err := h.browser(c)
	if err != nil {
		return err
	}
	if c.QueryParam("page") != "" || c.QueryParam("limit") != "" {
		p := pagination.FromContext(c)
		if c.QueryParam("limit") == "" {
			p.Limit = 0
		}
		snap, err := b.Goto(c.Request().Context(), p)
		return respond(c, snap, err)
	}
	snap := b.Snapshot()
	if snap.State != StateIdle {
		return c.JSON(http.StatusOK, Render(snap))
	}
	snap, err = b.Refresh(c.Request().Context())
	return respond(c, snap, err)
}

func (h *Handler) ApplyFilters(c echo.Context) error {
	b, err := h.browser(c)
	if err != nil {
		return err
	}
	var req filtersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	snap, err := b.ApplyFilters(c.Request().Context(), req.CPF, req.Status, req.Limit)
	return respond(c, snap, err)
}

func (h *Handler) ClearFilters(c echo.Context) error {
	b, err := h.browser(c)
	if err != nil {
		return err
	}
	snap, err := b.ClearFilters(c.Request().Context())
	return respond(c, snap, err)
}

func (h *Handler) ChangePage(c echo.Context) error {
	b, err := h.browser(c)
	if err != nil {
		return err
	}
	var req pageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	snap, err := b.ChangePage(c.Request().Context(), req.Page)
	return respond(c, snap, err)
}

func (h *Handler) QuickFilter(c echo.Context) error {
	b, err := h.browser(c)
	if err != nil {
		return err
	}
	var req quickFilterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	snap, err := b.QuickFilterByIdentifier(c.Request().Context(), req.CPF)
	return respond(c, snap, err)
}

// Refresh re-runs the full screen initialization: liveness probe, summary
// panel, and current page.
func (h *Handler) Refresh(c echo.Context) error {
	b, err := h.browser(c)
	if err != nil {
		return err
	}
	d := h.svc.Initialize(c.Request().Context(), b, h.sessions.Notifier(c.Param("id")))
	if !d.Connection.Online || d.Records.State == StateErrored {
		return c.JSON(http.StatusBadGateway, d)
	}
	return c.JSON(http.StatusOK, d)
}


package assessment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Sessions resolves the per-session controller.
type Sessions interface {
	Controller(id string) (*Controller, bool)
}

type Handler struct {
	predictor Predictor
	catalog   *Catalog
	sessions  Sessions
	loc       *time.Location
}

func NewHandler(predictor Predictor, catalog *Catalog, sessions Sessions, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{predictor: predictor, catalog: catalog, sessions: sessions, loc: loc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/connection", h.GetConnection)
	api.GET("/defaults", h.GetDefaults)
	api.GET("/scenarios", h.ListScenarios)

	sg := api.Group("/sessions/:id")
	sg.GET("/assessment", h.GetScreen)
	sg.POST("/connection", h.CheckConnection)
	sg.POST("/patient", h.SetPatient)
	sg.POST("/defaults", h.LoadDefaults)
	sg.POST("/assessments", h.Submit)
	sg.POST("/scenarios/:name", h.RunScenario)
	sg.POST("/results", h.SaveResults)
}

type assessmentResponse struct {
	Assessment Assessment `json:"assessment"`
	View       ResultView `json:"view"`
}

type saveResponse struct {
	Key string `json:"key"`
}

func (h *Handler) controller(c echo.Context) (*Controller, error) {
	ctl, ok := h.sessions.Controller(c.Param("id"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return ctl, nil
}

// httpError maps assessment errors to HTTP errors.
func httpError(err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Message)
	case errors.Is(err, ErrNoPatient):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnknownScenario):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}

// GetConnection probes the prediction service without touching any session.
func (h *Handler) GetConnection(c echo.Context) error {
	conn, _ := Probe(c.Request().Context(), h.predictor)
	return c.JSON(http.StatusOK, conn)
}

func (h *Handler) GetDefaults(c echo.Context) error {
	return c.JSON(http.StatusOK, FormFromParameters(Defaults()))
}

func (h *Handler) ListScenarios(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.List())
}

func (h *Handler) GetScreen(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RenderScreen(ctl.Snapshot(), h.loc))
}

func (h *Handler) CheckConnection(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctl.CheckConnection(c.Request().Context()))
}

func (h *Handler) SetPatient(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}
	var form PatientForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := ctl.SetPatient(form)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) LoadDefaults(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctl.LoadDefaults())
}

func (h *Handler) Submit(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := ctl.Submit(c.Request().Context(), formFromJSON(raw))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, assessmentResponse{Assessment: a, View: RenderResult(a, h.loc)})
}

func (h *Handler) RunScenario(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}
	a, err := ctl.RunScenario(c.Request().Context(), c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, assessmentResponse{Assessment: a, View: RenderResult(a, h.loc)})
}

func (h *Handler) SaveResults(c echo.Context) error {
	ctl, err := h.controller(c)
	if err != nil {
		return err
	}
	key, err := ctl.SaveResults(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, saveResponse{Key: key})
}

// formFromJSON accepts form fields sent either as strings or as JSON
// numbers.
func formFromJSON(raw map[string]interface{}) MonitoringForm {
	form := make(MonitoringForm, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case string:
			form[k] = x
		case float64:
			form[k] = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			form[k] = strconv.FormatBool(x)
		}
	}
	return form
}

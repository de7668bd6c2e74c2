package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-gate-control/internal/dispatch"
	"github.com/iliyamo/parking-gate-control/internal/middleware"
	"github.com/iliyamo/parking-gate-control/internal/model"
	"github.com/iliyamo/parking-gate-control/internal/relay"
)

// Dispatcher is the part of dispatch.Dispatcher used by the gate endpoints.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request, actor model.User) (dispatch.Result, error)
	Last(ctx context.Context, gateID string) (dispatch.Result, error)
}

type GateHandler struct {
	Dispatcher Dispatcher
}

func NewGateHandler(d Dispatcher) *GateHandler { return &GateHandler{Dispatcher: d} }

type commandReq struct {
	Action string `json:"action"`
	Note   string `json:"note"`
}

// Command relays an open/close command for the gate in the path.
func (h *GateHandler) Command(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}
	var body commandReq
	// An empty body binds cleanly and is rejected by validation below.
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "Missing gate id or action")
	}

	res, err := h.Dispatcher.Dispatch(c.Request().Context(), dispatch.Request{
		GateID: c.Param("id"),
		Action: body.Action,
		Note:   body.Note,
	}, u)
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Last returns the gate's last-command slot.
func (h *GateHandler) Last(c echo.Context) error {
	res, err := h.Dispatcher.Last(c.Request().Context(), c.Param("id"))
	if errors.Is(err, relay.ErrNoCommand) {
		return fail(c, http.StatusNotFound, "No command yet")
	}
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func dispatchError(c echo.Context, err error) error {
	var bad *dispatch.BadRequestError
	if errors.As(err, &bad) {
		return fail(c, http.StatusBadRequest, bad.Message)
	}
	return fail(c, http.StatusInternalServerError, "Server error")
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/occupancy"
)

// OccupancyCounter reads and moves the lot counter.
type OccupancyCounter interface {
	Get(ctx context.Context) (occupancy.Snapshot, error)
	Adjust(ctx context.Context, delta int) (occupancy.Snapshot, error)
}

type OccupancyHandler struct {
	Counter OccupancyCounter
	Log     *zap.Logger
}

func NewOccupancyHandler(c OccupancyCounter, log *zap.Logger) *OccupancyHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OccupancyHandler{Counter: c, Log: log}
}

type occupancyResp struct {
	OK bool `json:"ok"`
	occupancy.Snapshot
}

// Get reports {ok,total,occupied,free}.
func (h *OccupancyHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	s, err := h.Counter.Get(ctx)
	if err != nil {
		return h.counterError(c, err)
	}
	return c.JSON(http.StatusOK, occupancyResp{OK: true, Snapshot: s})
}

type adjustReq struct {
	Delta *int `json:"delta"`
}

// Adjust applies {delta} and returns the new snapshot.
func (h *OccupancyHandler) Adjust(c echo.Context) error {
	var req adjustReq
	if err := c.Bind(&req); err != nil || req.Delta == nil {
		return fail(c, http.StatusBadRequest, "Missing delta")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	s, err := h.Counter.Adjust(ctx, *req.Delta)
	if err != nil {
		return h.counterError(c, err)
	}
	return c.JSON(http.StatusOK, occupancyResp{OK: true, Snapshot: s})
}

func (h *OccupancyHandler) counterError(c echo.Context, err error) error {
	if errors.Is(err, occupancy.ErrUnavailable) {
		return fail(c, http.StatusServiceUnavailable, "Occupancy counter unavailable")
	}
	h.Log.Error("occupancy: counter failed", zap.Error(err))
	return fail(c, http.StatusInternalServerError, "Server error")
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/model"
)

// VehicleLister lists registered vehicles.
type VehicleLister interface {
	List(ctx context.Context, plate string, limit int) ([]model.Vehicle, error)
}

type VehicleHandler struct {
	Vehicles VehicleLister
	Log      *zap.Logger
}

func NewVehicleHandler(v VehicleLister, log *zap.Logger) *VehicleHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &VehicleHandler{Vehicles: v, Log: log}
}

// List handles GET /api/vehicles?plate=&limit=.
func (h *VehicleHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Vehicles.List(ctx, c.QueryParam("plate"), limit)
	if err != nil {
		h.Log.Error("vehicles: list failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	if items == nil {
		items = []model.Vehicle{}
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "items": items})
}

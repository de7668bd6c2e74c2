package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is used by load balancers and monitoring; ts is Unix milliseconds.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "ts": time.Now().UnixMilli()})
}

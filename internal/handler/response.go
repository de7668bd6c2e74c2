// Package handler implements the HTTP endpoints.  Every failure body has the
// shape {ok:false,message}.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// requestTimeout bounds the store work done for one request.
const requestTimeout = 5 * time.Second

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"ok": false, "message": msg})
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

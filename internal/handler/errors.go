package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// internalError logs err and answers with an opaque 500.
func internalError(c echo.Context, log *zap.Logger, what string, err error) error {
	log.Error(what, zap.Error(err), zap.String("method", c.Request().Method), zap.String("path", c.Path()))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
}

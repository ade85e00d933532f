package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h handler) GetHostStats(c echo.Context) error {
	stats, err := h.stats.ByHost(c.Request().Context(), mustUser(c).ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h handler) GetAdminStats(c echo.Context) error {
	stats, err := h.stats.AdminStats(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

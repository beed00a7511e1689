package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/Fatihx64/yt-dlp-gui/internal/app"
)

type HistoryController struct {
	App *app.Context
}

// List returns finished downloads, newest first. ?limit caps the result.
func (ctrl *HistoryController) List(c *echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	entries, err := ctrl.App.History.List(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

// Clear wipes the download history.
func (ctrl *HistoryController) Clear(c *echo.Context) error {
	if err := ctrl.App.History.Clear(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

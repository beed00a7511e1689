package controllers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/Fatihx64/yt-dlp-gui/internal/app"
	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/format"
)

type MediaController struct {
	App *app.Context
}

// Info resolves metadata for ?url, consulting the info cache before probing
// the downloader.
func (ctrl *MediaController) Info(c *echo.Context) error {
	url := strings.TrimSpace(c.QueryParam("url"))
	if url == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing url")
	}

	if info := ctrl.App.InfoCache.Get(url); info != nil {
		return c.JSON(http.StatusOK, info)
	}

	if !ctrl.App.ToolAvailable() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, domain.ErrToolUnavailable.Error())
	}

	info, err := ctrl.App.Tool.ExtractInfo(c.Request().Context(), url)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	if err := ctrl.App.InfoCache.Put(url, info); err != nil {
		ctrl.App.Logger.Warn().Err(err).Str("url", url).Msg("info cache write failed")
	}
	return c.JSON(http.StatusOK, info)
}

// Formats lists the selectable quality and format presets.
func (ctrl *MediaController) Formats(c *echo.Context) error {
	return c.JSON(http.StatusOK, FormatsResponse{
		Qualities: format.QualityOptions(),
		Formats:   format.FormatOptions(),
	})
}

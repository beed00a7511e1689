package controllers

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/Fatihx64/yt-dlp-gui/internal/app"
	"github.com/Fatihx64/yt-dlp-gui/internal/platform"
)

type SystemController struct {
	App *app.Context
}

// Tools reports the external binary lookup status and, when yt-dlp is
// usable, its version.
func (ctrl *SystemController) Tools(c *echo.Context) error {
	resp := ToolsResponse{
		AppVersion: ctrl.App.Version,
		Tools: platform.CheckDependencies(
			ctrl.App.Config.Tools.YtdlpPath,
			ctrl.App.Config.Tools.FFmpegPath,
		),
	}

	if ctrl.App.ToolAvailable() {
		if v, err := ctrl.App.Tool.Version(c.Request().Context()); err == nil {
			resp.YtdlpVersion = v
		}
	}

	return c.JSON(http.StatusOK, resp)
}

package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/Fatihx64/yt-dlp-gui/internal/app"
	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
)

type EngineController struct {
	App *app.Context
}

// Start begins processing the queue.
func (ctrl *EngineController) Start(c *echo.Context) error {
	if err := ctrl.App.Engine.Start(); err != nil {
		if errors.Is(err, domain.ErrToolUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return ctrl.Status(c)
}

// Stop halts admission; active downloads run to completion.
func (ctrl *EngineController) Stop(c *echo.Context) error {
	ctrl.App.Engine.Stop()
	return ctrl.Status(c)
}

// Pause halts admission and cancels every active download.
func (ctrl *EngineController) Pause(c *echo.Context) error {
	ctrl.App.Engine.PauseAll()
	return ctrl.Status(c)
}

// Status reports scheduler state and queue counters.
func (ctrl *EngineController) Status(c *echo.Context) error {
	return c.JSON(http.StatusOK, EngineStatus{
		Running: ctrl.App.Engine.Running(),
		Active:  ctrl.App.Engine.ActiveCount(),
		Stats:   ctrl.App.Queue.Stats(),
	})
}

// StartOne downloads a single item immediately, outside the concurrency
// limit and regardless of whether the queue is running.
func (ctrl *EngineController) StartOne(c *echo.Context) error {
	err := ctrl.App.Engine.DownloadSingle(c.Param("id"))
	switch {
	case err == nil:
		return c.NoContent(http.StatusAccepted)
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrToolUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// CancelOne kills an active download. Cancelling an item that is not
// running is rejected; remove it from the queue instead.
func (ctrl *EngineController) CancelOne(c *echo.Context) error {
	id := c.Param("id")
	if ctrl.App.Engine.Cancel(id) {
		return c.NoContent(http.StatusAccepted)
	}
	if _, ok := ctrl.App.Queue.Get(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, domain.ErrNotFound.Error())
	}
	return echo.NewHTTPError(http.StatusConflict, "item is not active")
}

// RetryOne re-queues a failed item.
func (ctrl *EngineController) RetryOne(c *echo.Context) error {
	id := c.Param("id")
	if ctrl.App.Engine.Retry(id) {
		item, _ := ctrl.App.Queue.Get(id)
		return c.JSON(http.StatusOK, item)
	}
	if _, ok := ctrl.App.Queue.Get(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, domain.ErrNotFound.Error())
	}
	return echo.NewHTTPError(http.StatusConflict, "only failed items can be retried")
}

package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/Fatihx64/yt-dlp-gui/internal/app"
	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/format"
)

type QueueController struct {
	App *app.Context
}

// List returns the whole queue in order.
func (ctrl *QueueController) List(c *echo.Context) error {
	return c.JSON(http.StatusOK, ctrl.App.Queue.List())
}

// Add queues the requested URLs as pending items.
func (ctrl *QueueController) Add(c *echo.Context) error {
	var req AddRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	urls := make([]string, 0, len(req.URLs)+1)
	if u := strings.TrimSpace(req.URL); u != "" {
		urls = append(urls, u)
	}
	for _, u := range req.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no url given")
	}

	if err := req.Options.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	formatType := req.Format
	if formatType == "" {
		formatType = ctrl.App.Config.Download.DefaultFormat
	}
	quality := req.Quality
	if quality == "" {
		quality = ctrl.App.Config.Download.DefaultQuality
	}
	spec := req.FormatSpec
	if spec == "" {
		spec = format.BuildSpec(formatType, quality)
	}

	opts := req.Options
	if extra := format.ExtraArgs(formatType); len(extra) > 0 {
		opts.ExtraArgs = append(append([]string{}, extra...), opts.ExtraArgs...)
	}

	ids := make([]string, 0, len(urls))
	for _, u := range urls {
		item := domain.NewItem(u)
		if req.Title != "" {
			item.Title = req.Title
		}
		item.FormatSpec = spec
		item.Quality = quality
		item.OutputPath = req.OutputPath
		item.Options = opts
		ids = append(ids, ctrl.App.Queue.Add(item))
	}

	if req.StartNow {
		for _, id := range ids {
			if err := ctrl.App.Engine.DownloadSingle(id); err != nil {
				if errors.Is(err, domain.ErrToolUnavailable) {
					return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
				}
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}
	}

	return c.JSON(http.StatusCreated, AddResponse{IDs: ids})
}

// Get returns one queue item.
func (ctrl *QueueController) Get(c *echo.Context) error {
	item, ok := ctrl.App.Queue.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, domain.ErrNotFound.Error())
	}
	return c.JSON(http.StatusOK, item)
}

// Remove deletes an item, cancelling it first when it is running.
func (ctrl *QueueController) Remove(c *echo.Context) error {
	id := c.Param("id")
	if _, ok := ctrl.App.Queue.Get(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, domain.ErrNotFound.Error())
	}

	ctrl.App.Engine.Cancel(id)
	ctrl.App.Queue.Remove(id)
	return c.NoContent(http.StatusNoContent)
}

// Move shifts an item by the requested delta; negative moves toward the
// front of the queue.
func (ctrl *QueueController) Move(c *echo.Context) error {
	id := c.Param("id")
	if _, ok := ctrl.App.Queue.Get(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, domain.ErrNotFound.Error())
	}

	var req MoveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Delta == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "delta must be nonzero")
	}

	ctrl.App.Queue.Move(id, req.Delta)
	item, _ := ctrl.App.Queue.Get(id)
	return c.JSON(http.StatusOK, item)
}

// ClearCompleted removes every completed item.
func (ctrl *QueueController) ClearCompleted(c *echo.Context) error {
	ctrl.App.Queue.ClearCompleted()
	return c.NoContent(http.StatusNoContent)
}

// ClearAll empties the queue. Refused while downloads are active so running
// processes are never orphaned from their items.
func (ctrl *QueueController) ClearAll(c *echo.Context) error {
	if ctrl.App.Engine.ActiveCount() > 0 {
		return echo.NewHTTPError(http.StatusConflict, "stop or cancel active downloads first")
	}
	ctrl.App.Queue.ClearAll()
	return c.NoContent(http.StatusNoContent)
}

// Stats returns the queue counters.
func (ctrl *QueueController) Stats(c *echo.Context) error {
	return c.JSON(http.StatusOK, ctrl.App.Queue.Stats())
}

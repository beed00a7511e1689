package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/Fatihx64/yt-dlp-gui/internal/api/controllers"
	"github.com/Fatihx64/yt-dlp-gui/internal/app"
)

func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	queueCtrl := &controllers.QueueController{App: app}
	engineCtrl := &controllers.EngineController{App: app}
	historyCtrl := &controllers.HistoryController{App: app}
	mediaCtrl := &controllers.MediaController{App: app}
	systemCtrl := &controllers.SystemController{App: app}

	g := e.Group("/api")

	g.GET("/queue", queueCtrl.List)
	g.POST("/queue", queueCtrl.Add)
	g.GET("/queue/stats", queueCtrl.Stats)
	g.DELETE("/queue/completed", queueCtrl.ClearCompleted)
	g.DELETE("/queue", queueCtrl.ClearAll)
	g.GET("/queue/:id", queueCtrl.Get)
	g.DELETE("/queue/:id", queueCtrl.Remove)
	g.POST("/queue/:id/move", queueCtrl.Move)

	g.POST("/downloads/start", engineCtrl.Start)
	g.POST("/downloads/stop", engineCtrl.Stop)
	g.POST("/downloads/pause", engineCtrl.Pause)
	g.GET("/downloads/status", engineCtrl.Status)
	g.POST("/queue/:id/start", engineCtrl.StartOne)
	g.POST("/queue/:id/cancel", engineCtrl.CancelOne)
	g.POST("/queue/:id/retry", engineCtrl.RetryOne)

	g.GET("/history", historyCtrl.List)
	g.DELETE("/history", historyCtrl.Clear)

	g.GET("/media/info", mediaCtrl.Info)
	g.GET("/formats", mediaCtrl.Formats)

	g.GET("/tools", systemCtrl.Tools)

	// Event stream for UI observers
	e.GET("/ws", func(c *echo.Context) error {
		return app.Hub.Upgrade(c.Response(), c.Request())
	})
}

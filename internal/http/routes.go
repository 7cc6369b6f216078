package http

import (
	"log"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	middleware "task-manager.com/task-manager/internal/http/middlewares"
	"task-manager.com/task-manager/internal/limiter"
)

func Register(e *echo.Echo, h *Handler, rateLimiter limiter.Limiter) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("%s %s %d %s request_id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(middleware.RateLimiter(rateLimiter))

	tasks := e.Group("/api/v1/tasks", middleware.Identity())

	tasks.POST("", h.CreateTask)
	tasks.POST("/filter", h.FilterTasks)
	tasks.GET("/:taskId", h.GetTask)
	tasks.PUT("/:taskId", h.UpdateTask)
	tasks.DELETE("/:taskId", h.DeleteTask)
	tasks.PATCH("/:taskId/state", h.ChangeState)

	ws := tasks.Group("/workspace/:workspaceId")
	ws.GET("", h.ListTasks)
	ws.GET("/all", h.ListAllTasks)
	ws.GET("/weekly", h.WeeklyView)
	ws.GET("/weekly/simple", h.WeeklyList)
	ws.GET("/daily", h.DailyView)
	ws.GET("/daily/simple", h.DailyList)
	ws.GET("/kanban", h.KanbanView)
	ws.GET("/search", h.SearchTasks)
	ws.GET("/user/:targetUserId", h.TasksByUser)
	ws.GET("/state/:state", h.TasksByState)
	ws.GET("/upcoming", h.UpcomingTasks)
	ws.GET("/overdue", h.OverdueTasks)
	ws.GET("/statistics", h.Statistics)
	ws.GET("/day-load", h.DayLoad)
}

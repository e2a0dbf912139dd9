package router // central route registration for the HTTP API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/roudbar/studio-reservation/internal/config"
	"github.com/roudbar/studio-reservation/internal/handler"
	"github.com/roudbar/studio-reservation/internal/middleware"
	"github.com/roudbar/studio-reservation/internal/model"
)

// Deps collects everything the routes need.  main() builds this once
// and hands it over.
type Deps struct {
	Cfg          config.Config
	Redis        *redis.Client
	Auth         *handler.AuthHandler
	Reservations *handler.ReservationHandler
	Scan         *handler.ScanHandler
	Schedules    *handler.ScheduleHandler
}

// Register wires every route of the API onto e.
//
// Layout:
//
//	GET  /healthz                      liveness probe, unauthenticated
//	POST /v1/auth/...                  register / login / refresh / logout
//	/v1/...                            JWT-protected application routes
//	COACH-only subset                  course + session management
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis)

	auth := e.Group("/v1/auth", rl)
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)

	api := e.Group("/v1", middleware.JWTAuth(d.Cfg.JWTSecret), rl)
	api.GET("/auth/me", d.Auth.Me)
	api.POST("/auth/logout-all", d.Auth.LogoutAll)

	api.POST("/reservations", d.Reservations.Create)
	api.POST("/reservations/scan", d.Scan.CheckIn)
	api.DELETE("/reservations/:id", d.Reservations.Cancel)
	api.GET("/reservations/user/:userId", d.Reservations.ListForUser)

	api.GET("/schedules", d.Schedules.ListSchedules, cache)

	coach := api.Group("", middleware.RequireRole(model.RoleCoach))
	coach.POST("/courses", d.Schedules.CreateCourse)
	coach.GET("/courses", d.Schedules.ListCourses)
	coach.POST("/schedules", d.Schedules.CreateSchedule)
	coach.DELETE("/schedules/:id", d.Schedules.DeleteSchedule)
	coach.POST("/schedules/bulk-delete", d.Schedules.BulkDelete)
}

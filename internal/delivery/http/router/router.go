// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"eventboard/internal/delivery/http/middleware"
	"eventboard/internal/delivery/http/router/handler"
	"eventboard/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	SessionHandler   *handler.SessionHandler
	EventHandler     *handler.EventHandler
	DashboardHandler *handler.DashboardHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	sessionHandler   *handler.SessionHandler
	eventHandler     *handler.EventHandler
	dashboardHandler *handler.DashboardHandler
	authMiddleware   *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		sessionHandler:   params.SessionHandler,
		eventHandler:     params.EventHandler,
		dashboardHandler: params.DashboardHandler,
		authMiddleware:   params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.sessionHandler.Register)
		authGroup.POST("/login", r.sessionHandler.Login)
		authGroup.POST("/logout", r.sessionHandler.Logout)
	}
	e.GET("/session", r.sessionHandler.Current)

	// Everything below needs a signed-in user
	signedIn := e.Group("", r.authMiddleware.RequireSession)
	{
		signedIn.GET("/dashboard", r.dashboardHandler.Dashboard)
		signedIn.GET("/dashboard/stream", r.dashboardHandler.Stream)
		signedIn.GET("/favorites", r.dashboardHandler.Favorites)
		signedIn.DELETE("/favorites/:id", r.eventHandler.RemoveFavorite)

		signedIn.POST("/events", r.eventHandler.Create)
		signedIn.GET("/events/:id", r.eventHandler.Get)
		signedIn.PUT("/events/:id", r.eventHandler.Update)
		signedIn.DELETE("/events/:id", r.eventHandler.Delete)
		signedIn.POST("/events/:id/favorite", r.eventHandler.ToggleFavorite)
		signedIn.GET("/events/:id/share.png", r.eventHandler.ShareCode)
	}
}

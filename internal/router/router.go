// Package router registers the HTTP routes of the API on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oromiahinlala/tourism-backend/internal/handler"
	"github.com/oromiahinlala/tourism-backend/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// the database status page at "/", the liveness probe and metrics.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/", handler.DBStatus(db))
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the /auth routes. Register and login are public
// but throttled by limiter; the rest require a valid session token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn *middleware.Authenticator, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)

	protected := g.Group("", authn.Authenticate())
	protected.GET("/profile", a.Profile)
	protected.PUT("/profile", a.UpdateProfile)
	protected.POST("/change-password", a.ChangePassword)
	protected.POST("/logout", a.Logout)
}

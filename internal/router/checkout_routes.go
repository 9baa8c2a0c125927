package router

import (
	"github.com/labstack/echo/v4"

	"github.com/oromiahinlala/tourism-backend/internal/handler"
	"github.com/oromiahinlala/tourism-backend/internal/middleware"
)

// RegisterCheckouts registers the /checkouts routes. Guests may create a
// checkout and open its confirmation page; everything else is reserved
// for admins and employees.
func RegisterCheckouts(e *echo.Echo, h *handler.CheckoutHandler, authn *middleware.Authenticator) {
	g := e.Group("/checkouts")
	g.POST("", h.Create, authn.Optional())
	g.GET("/success/:email", h.Success)

	staff := g.Group("", authn.Authenticate(), middleware.RequireEmployee)
	staff.GET("", h.List)
	staff.GET("/search", h.Search)
	staff.GET("/payment-status", h.PaymentStatus)
	staff.GET("/:id", h.Get)
	staff.PUT("/:id", h.Update)
	staff.DELETE("/:id", h.Delete)
}

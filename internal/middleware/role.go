package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oromiahinlala/tourism-backend/internal/model"
)

// RequireRole lets the request through only when the authenticated role is
// one of roles. It must run after Authenticate.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := ClaimsFrom(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
			}
			if !allowed[roleFrom(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied. Insufficient permissions."})
			}
			return next(c)
		}
	}
}

var (
	RequireAdmin    = RequireRole(model.RoleAdmin)
	RequireGuide    = RequireRole(model.RoleAdmin, model.RoleGuide)
	RequireEmployee = RequireRole(model.RoleAdmin, model.RoleEmployee)
	RequireTourist  = RequireRole(model.RoleAdmin, model.RoleTourist)
)

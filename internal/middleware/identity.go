package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/oromiahinlala/tourism-backend/internal/model"
	"github.com/oromiahinlala/tourism-backend/internal/utils"
)

const claimsKey = "claims"

func setIdentity(c echo.Context, claims *utils.Claims) {
	c.Set(claimsKey, claims)
	c.Set("user_id", claims.UserID)
	c.Set("role", claims.Role)
}

// ClaimsFrom returns the claims attached by Authenticate or Optional.
func ClaimsFrom(c echo.Context) (*utils.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*utils.Claims)
	return claims, ok && claims != nil
}

// roleFrom returns the authenticated role, or "" for anonymous requests.
func roleFrom(c echo.Context) model.Role {
	if claims, ok := ClaimsFrom(c); ok {
		return claims.Role
	}
	return ""
}

// userID identifies the caller for rate limiting; anonymous callers share
// the "guest" bucket.
func userID(c echo.Context) string {
	if claims, ok := ClaimsFrom(c); ok {
		return strconv.FormatUint(claims.UserID, 10)
	}
	return "guest"
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oromiahinlala/tourism-backend/internal/model"
	"github.com/oromiahinlala/tourism-backend/internal/repository"
	"github.com/oromiahinlala/tourism-backend/internal/utils"
)

var (
	// ErrMissingToken means the request carried no bearer token.
	ErrMissingToken = errors.New("access token required")
	// ErrUnknownSubject means the token is valid but its user is gone.
	ErrUnknownSubject = errors.New("user not found")
)

// UserLookup resolves the subject of a verified token.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// Authenticator turns a bearer token into request identity. Claims are
// trusted as issued; the store is only asked whether the subject still
// exists, so role changes take effect when the old token expires.
type Authenticator struct {
	tokens *utils.TokenService
	users  UserLookup
	log    *zap.Logger
}

func NewAuthenticator(tokens *utils.TokenService, users UserLookup, log *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: log}
}

// Authenticate rejects the request with 401 unless it carries a valid token
// for an existing user. On success the claims are available through
// ClaimsFrom and the "user_id" and "role" context keys.
func (a *Authenticator) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := a.resolve(c)
			switch {
			case err == nil:
			case errors.Is(err, ErrMissingToken):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Access token required"})
			case errors.Is(err, utils.ErrExpiredToken):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token expired"})
			case errors.Is(err, utils.ErrInvalidToken):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
			case errors.Is(err, ErrUnknownSubject):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not found"})
			default:
				a.log.Error("authentication lookup failed", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Authentication error"})
			}
			setIdentity(c, claims)
			return next(c)
		}
	}
}

// Optional attaches identity when a valid token is present and otherwise
// lets the request through anonymously.
func (a *Authenticator) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, err := a.resolve(c); err == nil {
				setIdentity(c, claims)
			}
			return next(c)
		}
	}
}

func (a *Authenticator) resolve(c echo.Context) (*utils.Claims, error) {
	raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		return nil, ErrMissingToken
	}
	claims, err := a.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	if _, err := a.users.GetByID(c.Request().Context(), claims.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, err
	}
	return claims, nil
}

func bearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/product-catalog/internal/core/domain"
)

// CallerKey is the echo context key holding the request's domain.Caller.
const CallerKey = "caller"

// TokenVerifier resolves an auth token into a caller.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Caller, error)
}

// Auth resolves the caller from a bearer token or the auth cookie and injects
// it into context. Requests without credentials continue as anonymous; the
// per-route Authorize middleware decides what they may do.
func Auth(verifier TokenVerifier, cookieName string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(CallerKey, domain.Anonymous())

			token, fromHeader, err := extractToken(c, cookieName)
			if err != nil {
				return err
			}
			if token == "" {
				return next(c)
			}

			caller, err := verifier.Verify(c.Request().Context(), token)
			switch {
			case err == nil:
				c.Set(CallerKey, caller)
			case errors.Is(err, domain.ErrUnauthenticated):
				if fromHeader {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				// Stale cookie: drop it and carry on anonymously.
				ClearAuthCookie(c, cookieName)
			default:
				log.Error().Err(err).
					Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
					Msg("token verification failed, continuing as anonymous")
			}

			return next(c)
		}
	}
}

func extractToken(c echo.Context, cookieName string) (token string, fromHeader bool, err error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", true, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), true, nil
	}

	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false, nil
	}
	return cookie.Value, false, nil
}

// HasBearerToken reports whether the request authenticates with a header
// rather than the cookie. Such requests are not subject to CSRF checks.
func HasBearerToken(c echo.Context) bool {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	return len(h) > 7 && strings.EqualFold(h[:7], "bearer ")
}

// CallerFrom returns the caller injected by Auth, or an anonymous caller.
func CallerFrom(c echo.Context) domain.Caller {
	if caller, ok := c.Get(CallerKey).(domain.Caller); ok {
		return caller
	}
	return domain.Anonymous()
}

// ClearAuthCookie expires the auth cookie on the client.
func ClearAuthCookie(c echo.Context, cookieName string) {
	c.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/product-catalog/internal/api/metrics"
	"github.com/99minutos/product-catalog/internal/core/domain"
)

// Authorize evaluates the policy table for op before the handler runs.
// An anonymous caller gets domain.ErrUnauthenticated and a signed-in caller
// without the role gets domain.ErrForbidden; the HTTP error handler turns
// those into a login challenge and a 403 respectively.
func Authorize(op domain.Operation, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := CallerFrom(c)
			err := domain.Check(op, caller)
			metrics.AuthorizationDecisionsTotal.WithLabelValues(string(op), outcome(err)).Inc()
			if err != nil {
				log.Warn().
					Str("operation", string(op)).
					Str("user_id", caller.UserID).
					Str("path", c.Request().URL.Path).
					Str("outcome", outcome(err)).
					Msg("authorization denied")
				return err
			}
			return next(c)
		}
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "allow"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "challenge"
	default:
		return "forbid"
	}
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/product-catalog/internal/api/handler"
	"github.com/99minutos/product-catalog/internal/core/domain"
)

const loginPath = "/Account/Login"

// errorResponse is the canonical error envelope for JSON clients.
type errorResponse struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Sends anonymous browsers to the login page and answers JSON clients
//     with 401, when an operation needs a signed-in caller.
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors with the request id without leaking details.
//
// HTML requests get a rendered page; requests accepting JSON get
// {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if errors.Is(err, domain.ErrUnauthenticated) {
			challenge(c)
			return
		}

		code, msg, fields := resolveError(err, log, c)
		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="catalog"`)
		}

		page := "home/error"
		if errors.Is(err, domain.ErrForbidden) {
			page = "account/access_denied"
		}
		if rerr := write(c, code, page, msg, fields); rerr != nil {
			log.Error().Err(rerr).Str("request_id", handler.RequestID(c)).Msg("failed to write error response")
		}
	}
}

// challenge asks the caller to sign in. Browsers are redirected to the login
// page with the original URL so they come back after signing in.
func challenge(c echo.Context) {
	if handler.WantsJSON(c) || c.Request().Method == http.MethodHead {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="catalog"`)
		_ = c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required", RequestID: handler.RequestID(c)})
		return
	}
	target := loginPath + "?ReturnUrl=" + url.QueryEscape(c.Request().URL.RequestURI())
	_ = c.Redirect(http.StatusFound, target)
}

func write(c echo.Context, code int, page, msg string, fields map[string]string) error {
	requestID := handler.RequestID(c)
	if c.Request().Method == http.MethodHead {
		return c.NoContent(code)
	}
	if handler.WantsJSON(c) {
		return c.JSON(code, errorResponse{Error: msg, Fields: fields, RequestID: requestID})
	}

	view := handler.ErrorView{Status: code, Message: msg, RequestID: requestID}
	title := http.StatusText(code)
	if page == "account/access_denied" {
		title = "Access denied"
	}
	if err := c.Render(code, page, handler.NewPage(c, title, view)); err != nil {
		return c.String(code, msg)
	}
	return nil
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, map[string]string) {
	// Echo's own errors (bind failures, 404 from router, CSRF, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, ve.Error(), ve.Fields
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden", nil
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "product not found", nil
	case errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound, "category not found", nil
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found", nil
	case errors.Is(err, domain.ErrCategoryExists):
		return http.StatusConflict, "category already exists", nil
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists", nil
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict, "the record was changed by someone else", nil
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials", nil
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("request_id", handler.RequestID(c)).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "An error occurred while processing your request.", nil
}

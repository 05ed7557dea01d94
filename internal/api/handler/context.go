package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-catalog/internal/api/middleware"
	"github.com/99minutos/product-catalog/internal/core/domain"
)

// csrfContextKey is where echo's CSRF middleware leaves the form token.
const csrfContextKey = "csrf"

// Page is the envelope every HTML view renders. Data holds the same value
// the JSON variant of the endpoint returns.
type Page struct {
	Title     string
	Caller    domain.Caller
	CSRFToken string
	RequestID string
	Data      any
}

// NewPage builds the view envelope for the current request.
func NewPage(c echo.Context, title string, data any) Page {
	token, _ := c.Get(csrfContextKey).(string)
	return Page{
		Title:     title,
		Caller:    middleware.CallerFrom(c),
		CSRFToken: token,
		RequestID: RequestID(c),
		Data:      data,
	}
}

// RequestID returns the correlation id echo's RequestID middleware assigned.
func RequestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// WantsJSON reports whether the client asked for JSON instead of HTML.
func WantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON)
}

// respond writes data as JSON or renders it into view, depending on Accept.
func respond(c echo.Context, code int, view, title string, data any) error {
	if WantsJSON(c) {
		return c.JSON(code, data)
	}
	return c.Render(code, view, NewPage(c, title, data))
}

// done finishes a successful form post: browsers are redirected, JSON
// clients get the payload.
func done(c echo.Context, code int, location string, payload any) error {
	if WantsJSON(c) {
		if payload == nil {
			return c.NoContent(code)
		}
		return c.JSON(code, payload)
	}
	return c.Redirect(http.StatusFound, location)
}

func callerFrom(c echo.Context) domain.Caller {
	return middleware.CallerFrom(c)
}

// pathID parses the {id} route segment. A malformed id is reported as
// notFound, the same way a missing record is.
func pathID(c echo.Context, notFound error) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}

// queryCategoryID reads the optional ?categoryId= filter. Anything that is
// not a positive integer means no filter.
func queryCategoryID(c echo.Context) *int64 {
	raw := c.QueryParam("categoryId")
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// safeReturnURL only allows local paths, so a crafted link cannot bounce a
// freshly signed-in user to another site.
func safeReturnURL(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	return raw
}

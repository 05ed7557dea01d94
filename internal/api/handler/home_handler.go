package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HomeHandler serves the landing, privacy and error pages.
type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Index handles GET / and GET /Home/Index.
func (h *HomeHandler) Index(c echo.Context) error {
	return c.Redirect(http.StatusFound, defaultLandingPath)
}

// Privacy handles GET /Home/Privacy.
func (h *HomeHandler) Privacy(c echo.Context) error {
	return c.Render(http.StatusOK, "home/privacy", NewPage(c, "Privacy Policy", nil))
}

// Error handles GET /Home/Error: a generic error page carrying the request id
// so a report can be matched to the logs.
//
// @Summary      Generic error page
// @Tags         home
// @Produce      json
// @Success      200  {object}  ErrorView
// @Router       /Home/Error [get]
func (h *HomeHandler) Error(c echo.Context) error {
	view := ErrorView{
		Status:    http.StatusInternalServerError,
		Message:   "An error occurred while processing your request.",
		RequestID: RequestID(c),
	}
	return respond(c, http.StatusOK, "home/error", "Error", view)
}

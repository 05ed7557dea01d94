package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/product-catalog/internal/api/metrics"
	"github.com/99minutos/product-catalog/internal/api/middleware"
	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

const defaultLandingPath = "/Products/Index"

// CookieOptions describes the auth cookie issued on sign-in.
type CookieOptions struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// AccountHandler serves sign-in, sign-out and registration.
type AccountHandler struct {
	authService ports.AuthService
	cookie      CookieOptions
	log         zerolog.Logger
}

func NewAccountHandler(authService ports.AuthService, cookie CookieOptions, log zerolog.Logger) *AccountHandler {
	if cookie.TTL <= 0 {
		cookie.TTL = 24 * time.Hour
	}
	return &AccountHandler{authService: authService, cookie: cookie, log: log}
}

// LoginForm handles GET /Account/Login.
func (h *AccountHandler) LoginForm(c echo.Context) error {
	form := loginForm{ReturnURL: c.QueryParam("ReturnUrl")}
	return respond(c, http.StatusOK, "account/login", "Log in", loginView{Form: form})
}

// Login authenticates a user, sets the auth cookie and returns a JWT token.
//
// @Summary      Login
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      loginForm  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /Account/Login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := c.Validate(&form); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) && !WantsJSON(c) {
			return h.renderLogin(c, http.StatusUnprocessableEntity, form, ve.Error())
		}
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			h.log.Info().Str("email", form.Email).Msg("failed sign-in attempt")
			if !WantsJSON(c) {
				return h.renderLogin(c, http.StatusUnauthorized, form, "Invalid login attempt.")
			}
		}
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	expires := time.Now().Add(h.cookie.TTL).UTC()
	h.setCookie(c, token, expires)

	resp := authResponse{Token: token, ExpiresAt: expires, User: toUserInfo(user)}
	return done(c, http.StatusOK, safeReturnURL(form.ReturnURL, defaultLandingPath), resp)
}

// Logout handles POST /Account/Logout. The token is revoked for the rest of
// its lifetime when a revocation store is configured.
//
// @Summary      Logout
// @Tags         account
// @Security     BearerAuth
// @Success      204
// @Router       /Account/Logout [post]
func (h *AccountHandler) Logout(c echo.Context) error {
	token := h.currentToken(c)
	if token != "" {
		if err := h.authService.Logout(c.Request().Context(), token); err != nil {
			// The cookie is cleared regardless; the token just lives until it expires.
			h.log.Error().Err(err).Str("request_id", RequestID(c)).Msg("token revocation failed")
		}
	}
	middleware.ClearAuthCookie(c, h.cookie.Name)

	return done(c, http.StatusNoContent, defaultLandingPath, nil)
}

// RegisterForm handles GET /Account/Register.
func (h *AccountHandler) RegisterForm(c echo.Context) error {
	return respond(c, http.StatusOK, "account/register", "Register", registerView{})
}

// Register creates a new account in the User role and signs it in.
//
// @Summary      Register a new user
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      registerForm  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /Account/Register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err := c.Validate(&form)
	if err == nil {
		_, err = h.authService.Register(c.Request().Context(), form.Email, form.Password)
	}

	var ve *domain.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		return h.registerError(c, http.StatusUnprocessableEntity, form, ve.Fields)
	case errors.Is(err, domain.ErrUserExists):
		return h.registerError(c, http.StatusConflict, form, map[string]string{"email": "an account with this email already exists"})
	default:
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), form.Email, form.Password)
	if err != nil {
		return err
	}
	expires := time.Now().Add(h.cookie.TTL).UTC()
	h.setCookie(c, token, expires)

	return done(c, http.StatusCreated, defaultLandingPath, authResponse{Token: token, ExpiresAt: expires, User: toUserInfo(user)})
}

// AccessDenied handles GET /Account/AccessDenied.
func (h *AccountHandler) AccessDenied(c echo.Context) error {
	return respond(c, http.StatusForbidden, "account/access_denied", "Access denied",
		ErrorView{Status: http.StatusForbidden, Message: "access forbidden", RequestID: RequestID(c)})
}

func (h *AccountHandler) renderLogin(c echo.Context, code int, form loginForm, msg string) error {
	form.Password = ""
	return c.Render(code, "account/login", NewPage(c, "Log in", loginView{Form: form, Error: msg}))
}

func (h *AccountHandler) registerError(c echo.Context, code int, form registerForm, fields map[string]string) error {
	if WantsJSON(c) {
		ve := &domain.ValidationError{Fields: fields}
		return c.JSON(code, errorResponse{Error: ve.Error(), Fields: fields})
	}
	form.Password, form.ConfirmPassword = "", ""
	return c.Render(code, "account/register", NewPage(c, "Register", registerView{Form: form, Errors: fields}))
}

func (h *AccountHandler) setCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AccountHandler) currentToken(c echo.Context) string {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(h.cookie.Name); err == nil {
		return cookie.Value
	}
	return ""
}

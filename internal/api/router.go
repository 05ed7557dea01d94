package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/product-catalog/docs"
	"github.com/99minutos/product-catalog/internal/api/handler"
	"github.com/99minutos/product-catalog/internal/api/middleware"
	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
	infrahttp "github.com/99minutos/product-catalog/internal/infrastructure/http"
	"github.com/99minutos/product-catalog/internal/infrastructure/http/handlers"
)

// Options carries everything the router needs to build the site.
type Options struct {
	Catalog ports.CatalogService
	Auth    ports.AuthService
	Cookie  handler.CookieOptions
	Logger  zerolog.Logger

	// Health lists the dependencies /health/ready pings.
	Health map[string]handlers.Pinger

	// Registerer and Gatherer default to the Prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options) (*echo.Echo, error) {
	log := opts.Logger
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	httpMetrics, err := echoprometheus.MiddlewareConfig{
		Namespace:  "catalog",
		Subsystem:  "http",
		Registerer: opts.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == infrahttp.MetricsPath
		},
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(log))
	e.Use(httpMetrics)
	e.Use(middleware.Auth(opts.Auth, opts.Cookie.Name, log))

	// CSRF is attached per route, after authorize, so an anonymous or
	// under-privileged form post is challenged or forbidden before its
	// token is checked.
	csrf := echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "form:_csrf,header:X-CSRF-Token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   opts.Cookie.Secure,
		CookieSameSite: http.SameSiteLaxMode,
		Skipper:        skipCSRF,
	})

	// --- Dependencies ---
	products := handler.NewProductHandler(opts.Catalog)
	categories := handler.NewCategoryHandler(opts.Catalog)
	account := handler.NewAccountHandler(opts.Auth, opts.Cookie, log)
	home := handler.NewHomeHandler()

	authorize := func(op domain.Operation) echo.MiddlewareFunc {
		return middleware.Authorize(op, log)
	}

	// --- Home ---
	e.GET("/", home.Index, csrf)
	e.GET("/Home/Index", home.Index, csrf)
	e.GET("/Home/Privacy", home.Privacy, csrf)
	e.GET("/Home/Error", home.Error, csrf)

	// --- Products ---
	p := e.Group("/Products")
	p.GET("", products.Index, csrf)
	p.GET("/Index", products.Index, csrf)
	p.GET("/Details/:id", products.Details, csrf)
	p.GET("/AdminIndex", products.AdminIndex, authorize(domain.OpViewAdminCatalog), csrf)
	p.GET("/Create", products.CreateForm, authorize(domain.OpCreate), csrf)
	p.POST("/Create", products.Create, authorize(domain.OpCreate), csrf)
	p.GET("/Edit/:id", products.EditForm, authorize(domain.OpUpdate), csrf)
	p.POST("/Edit/:id", products.Edit, authorize(domain.OpUpdate), csrf)
	p.GET("/Delete/:id", products.DeleteConfirm, authorize(domain.OpDelete), csrf)
	p.POST("/Delete/:id", products.Delete, authorize(domain.OpDelete), csrf)

	// --- Categories ---
	cg := e.Group("/Categories", authorize(domain.OpManageCategories), csrf)
	cg.GET("", categories.Index)
	cg.GET("/Index", categories.Index)
	cg.GET("/Create", categories.CreateForm)
	cg.POST("/Create", categories.Create)
	cg.POST("/Delete/:id", categories.Delete)

	// --- Account ---
	a := e.Group("/Account", csrf)
	a.GET("/Login", account.LoginForm)
	a.POST("/Login", account.Login)
	a.POST("/Logout", account.Logout)
	a.GET("/Register", account.RegisterForm)
	a.POST("/Register", account.Register)
	a.GET("/AccessDenied", account.AccessDenied)

	// --- Docs, probes and metrics (no auth required) ---
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	infrahttp.RegisterOperational(e, opts.Health, opts.Gatherer)

	return e, nil
}

// skipCSRF exempts requests that a cross-site form cannot forge: bearer
// authenticated calls and JSON bodies.
func skipCSRF(c echo.Context) bool {
	if middleware.HasBearerToken(c) {
		return true
	}
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

// requestLogger writes one access log line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return infrahttp.IsOperational(c.Path())
		},
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

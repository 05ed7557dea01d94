package handler

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-catalog/internal/api/middleware"
	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

type stubCatalog struct {
	listPublicFn     func(ctx context.Context, categoryID *int64) (*ports.Catalog, error)
	listAdminFn      func(ctx context.Context, caller domain.Caller, categoryID *int64) (*ports.Catalog, error)
	getDetailFn      func(ctx context.Context, id int64) (*domain.Product, error)
	createFn         func(ctx context.Context, caller domain.Caller, in ports.ProductInput) (*domain.Product, error)
	updateFn         func(ctx context.Context, caller domain.Caller, id int64, in ports.ProductInput) (*domain.Product, error)
	deleteFn         func(ctx context.Context, caller domain.Caller, id int64) (bool, error)
	listCategoriesFn func(ctx context.Context) ([]domain.Category, error)
	createCategoryFn func(ctx context.Context, caller domain.Caller, name string) (*domain.Category, error)
	deleteCategoryFn func(ctx context.Context, caller domain.Caller, id int64) error
}

func (s *stubCatalog) ListPublic(ctx context.Context, categoryID *int64) (*ports.Catalog, error) {
	return s.listPublicFn(ctx, categoryID)
}

func (s *stubCatalog) ListAdmin(ctx context.Context, caller domain.Caller, categoryID *int64) (*ports.Catalog, error) {
	return s.listAdminFn(ctx, caller, categoryID)
}

func (s *stubCatalog) GetDetail(ctx context.Context, id int64) (*domain.Product, error) {
	return s.getDetailFn(ctx, id)
}

func (s *stubCatalog) Create(ctx context.Context, caller domain.Caller, in ports.ProductInput) (*domain.Product, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubCatalog) Update(ctx context.Context, caller domain.Caller, id int64, in ports.ProductInput) (*domain.Product, error) {
	return s.updateFn(ctx, caller, id, in)
}

func (s *stubCatalog) Delete(ctx context.Context, caller domain.Caller, id int64) (bool, error) {
	return s.deleteFn(ctx, caller, id)
}

func (s *stubCatalog) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if s.listCategoriesFn == nil {
		return []domain.Category{{ID: 1, Name: "Books"}}, nil
	}
	return s.listCategoriesFn(ctx)
}

func (s *stubCatalog) CreateCategory(ctx context.Context, caller domain.Caller, name string) (*domain.Category, error) {
	return s.createCategoryFn(ctx, caller, name)
}

func (s *stubCatalog) DeleteCategory(ctx context.Context, caller domain.Caller, id int64) error {
	return s.deleteCategoryFn(ctx, caller, id)
}

type stubAuth struct {
	registerFn func(ctx context.Context, email, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	verifyFn   func(ctx context.Context, token string) (domain.Caller, error)
	logoutFn   func(ctx context.Context, token string) error
}

func (s *stubAuth) Register(ctx context.Context, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, email, password)
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuth) Verify(ctx context.Context, token string) (domain.Caller, error) {
	return s.verifyFn(ctx, token)
}

func (s *stubAuth) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

// recordingRenderer remembers the last view rendered instead of executing
// templates.
type recordingRenderer struct {
	view string
	page Page
}

func (r *recordingRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	r.view = name
	if p, ok := data.(Page); ok {
		r.page = p
	}
	_, err := fmt.Fprint(w, name)
	return err
}

var (
	adminCaller = domain.Caller{UserID: "u-admin", Email: "admin@example.com", Roles: []string{domain.RoleAdmin}}
	userCaller  = domain.Caller{UserID: "u-user", Email: "user@example.com", Roles: []string{domain.RoleUser}}
)

type request struct {
	method      string
	target      string
	body        string
	contentType string
	json        bool
	caller      *domain.Caller
	id          string
}

// newContext builds an echo context wired with the real validator and a
// recording renderer.
func newContext(r request) (echo.Context, *httptest.ResponseRecorder, *recordingRenderer) {
	e := echo.New()
	e.Validator = NewValidator()
	renderer := &recordingRenderer{}
	e.Renderer = renderer

	req := httptest.NewRequest(r.method, r.target, strings.NewReader(r.body))
	if r.contentType != "" {
		req.Header.Set(echo.HeaderContentType, r.contentType)
	}
	if r.json {
		req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if r.caller != nil {
		c.Set(middleware.CallerKey, *r.caller)
	}
	if r.id != "" {
		c.SetParamNames("id")
		c.SetParamValues(r.id)
	}
	return c, rec, renderer
}

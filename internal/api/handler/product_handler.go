package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-catalog/internal/api/metrics"
	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

const adminIndexPath = "/Products/AdminIndex"

// ProductHandler serves the /Products pages.
type ProductHandler struct {
	catalog ports.CatalogService
	now     func() time.Time
}

func NewProductHandler(catalog ports.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog, now: func() time.Time { return time.Now().UTC() }}
}

// Index handles GET /Products/Index.
//
// @Summary      List live products
// @Tags         products
// @Produce      json
// @Param        categoryId  query     int  false  "Only products in this category"
// @Success      200         {object}  catalogResponse
// @Router       /Products/Index [get]
func (h *ProductHandler) Index(c echo.Context) error {
	catalog, err := h.catalog.ListPublic(c.Request().Context(), queryCategoryID(c))
	if err != nil {
		return err
	}
	metrics.ListingSize.WithLabelValues("public").Observe(float64(len(catalog.Products)))

	return respond(c, http.StatusOK, "products/index", "Products", toCatalogResponse(catalog, h.now(), false))
}

// AdminIndex handles GET /Products/AdminIndex.
//
// @Summary      List every product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        categoryId  query     int  false  "Only products in this category"
// @Success      200         {object}  catalogResponse
// @Failure      401         {object}  errorResponse
// @Failure      403         {object}  errorResponse
// @Router       /Products/AdminIndex [get]
func (h *ProductHandler) AdminIndex(c echo.Context) error {
	catalog, err := h.catalog.ListAdmin(c.Request().Context(), callerFrom(c), queryCategoryID(c))
	if err != nil {
		return err
	}
	metrics.ListingSize.WithLabelValues("admin").Observe(float64(len(catalog.Products)))

	return respond(c, http.StatusOK, "products/index", "Manage products", toCatalogResponse(catalog, h.now(), true))
}

// Details handles GET /Products/Details/:id.
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "Product id"
// @Success      200  {object}  productResponse
// @Failure      404  {object}  errorResponse
// @Router       /Products/Details/{id} [get]
func (h *ProductHandler) Details(c echo.Context) error {
	id, err := pathID(c, domain.ErrProductNotFound)
	if err != nil {
		return err
	}

	p, err := h.catalog.GetDetail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "products/details", p.Name, toProductResponse(*p, h.now()))
}

// CreateForm handles GET /Products/Create.
func (h *ProductHandler) CreateForm(c echo.Context) error {
	form := productForm{StartDate: h.now().Format(formDateLayout)}
	return h.renderForm(c, http.StatusOK, form, nil, false)
}

// Create handles POST /Products/Create.
//
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      productForm  true  "Product fields"
// @Success      201   {object}  productResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /Products/Create [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var form productForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	form.ID = 0

	in, err := h.input(c, form)
	if err != nil {
		return h.formError(c, form, err, false)
	}

	p, err := h.catalog.Create(c.Request().Context(), callerFrom(c), in)
	if err != nil {
		return h.formError(c, form, err, false)
	}
	metrics.MutationsTotal.WithLabelValues("product", "create").Inc()

	return done(c, http.StatusCreated, adminIndexPath, toProductResponse(*p, h.now()))
}

// EditForm handles GET /Products/Edit/:id.
func (h *ProductHandler) EditForm(c echo.Context) error {
	id, err := pathID(c, domain.ErrProductNotFound)
	if err != nil {
		return err
	}

	p, err := h.catalog.GetDetail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return h.renderForm(c, http.StatusOK, toProductForm(*p), nil, true)
}

// Edit handles POST /Products/Edit/:id.
//
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int          true  "Product id"
// @Param        body  body      productForm  true  "Product fields; id must match the path"
// @Success      200   {object}  productResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /Products/Edit/{id} [post]
func (h *ProductHandler) Edit(c echo.Context) error {
	id, err := pathID(c, domain.ErrProductNotFound)
	if err != nil {
		return err
	}

	var form productForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if form.ID != id {
		return fmt.Errorf("edit product %d: payload id %d: %w", id, form.ID, domain.ErrProductNotFound)
	}

	in, err := h.input(c, form)
	if err != nil {
		return h.formError(c, form, err, true)
	}

	p, err := h.catalog.Update(c.Request().Context(), callerFrom(c), id, in)
	if err != nil {
		return h.formError(c, form, err, true)
	}
	metrics.MutationsTotal.WithLabelValues("product", "update").Inc()

	return done(c, http.StatusOK, adminIndexPath, toProductResponse(*p, h.now()))
}

// DeleteConfirm handles GET /Products/Delete/:id.
func (h *ProductHandler) DeleteConfirm(c echo.Context) error {
	id, err := pathID(c, domain.ErrProductNotFound)
	if err != nil {
		return err
	}

	p, err := h.catalog.GetDetail(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "products/delete", "Delete "+p.Name, toProductResponse(*p, h.now()))
}

// Delete handles POST /Products/Delete/:id. Deleting a product that no
// longer exists still succeeds.
//
// @Summary      Delete a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product id"
// @Success      200  {object}  deletedResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /Products/Delete/{id} [post]
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c, domain.ErrProductNotFound)
	if err != nil {
		return err
	}

	deleted, err := h.catalog.Delete(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return err
	}
	if deleted {
		metrics.MutationsTotal.WithLabelValues("product", "delete").Inc()
	}

	return done(c, http.StatusOK, adminIndexPath, deletedResponse{ID: id, Deleted: deleted})
}

// input validates the bound form and converts it to service input.
func (h *ProductHandler) input(c echo.Context, form productForm) (ports.ProductInput, error) {
	if err := c.Validate(&form); err != nil {
		return ports.ProductInput{}, err
	}
	return toProductInput(form)
}

// formError re-renders the form for validation failures and passes every
// other error on to the HTTP error handler.
func (h *ProductHandler) formError(c echo.Context, form productForm, err error, edit bool) error {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	if WantsJSON(c) {
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: ve.Error(), Fields: ve.Fields})
	}
	return h.renderForm(c, http.StatusUnprocessableEntity, form, ve.Fields, edit)
}

func (h *ProductHandler) renderForm(c echo.Context, code int, form productForm, errs map[string]string, edit bool) error {
	categories, err := h.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}

	title := "Create product"
	if edit {
		title = "Edit product"
	}
	view := productFormView{
		Form:       form,
		Errors:     errs,
		Categories: toCategoryResponses(categories),
		Edit:       edit,
	}
	return respond(c, code, "products/form", title, view)
}

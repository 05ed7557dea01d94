package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-catalog/internal/api/metrics"
	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

const categoriesIndexPath = "/Categories/Index"

// CategoryHandler serves the /Categories pages.
type CategoryHandler struct {
	catalog ports.CatalogService
}

func NewCategoryHandler(catalog ports.CatalogService) *CategoryHandler {
	return &CategoryHandler{catalog: catalog}
}

// Index handles GET /Categories/Index.
//
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   categoryResponse
// @Router       /Categories/Index [get]
func (h *CategoryHandler) Index(c echo.Context) error {
	categories, err := h.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "categories/index", "Categories", toCategoryResponses(categories))
}

// CreateForm handles GET /Categories/Create.
func (h *CategoryHandler) CreateForm(c echo.Context) error {
	return respond(c, http.StatusOK, "categories/form", "Create category", categoryFormView{})
}

// Create handles POST /Categories/Create.
//
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      categoryForm  true  "Category name"
// @Success      201   {object}  categoryResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /Categories/Create [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	var form categoryForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err := c.Validate(&form)
	var created *domain.Category
	if err == nil {
		created, err = h.catalog.CreateCategory(c.Request().Context(), callerFrom(c), form.Name)
	}

	var ve *domain.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		return h.formError(c, http.StatusUnprocessableEntity, form, ve.Fields)
	case errors.Is(err, domain.ErrCategoryExists):
		return h.formError(c, http.StatusConflict, form, map[string]string{"name": "a category with this name already exists"})
	default:
		return err
	}
	metrics.MutationsTotal.WithLabelValues("category", "create").Inc()

	return done(c, http.StatusCreated, categoriesIndexPath, categoryResponse{ID: created.ID, Name: created.Name})
}

// Delete handles POST /Categories/Delete/:id. Every product in the category
// is deleted with it.
//
// @Summary      Delete a category and its products
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Category id"
// @Success      200  {object}  deletedResponse
// @Failure      404  {object}  errorResponse
// @Router       /Categories/Delete/{id} [post]
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c, domain.ErrCategoryNotFound)
	if err != nil {
		return err
	}

	if err := h.catalog.DeleteCategory(c.Request().Context(), callerFrom(c), id); err != nil {
		return err
	}
	metrics.MutationsTotal.WithLabelValues("category", "delete").Inc()

	return done(c, http.StatusOK, categoriesIndexPath, deletedResponse{ID: id, Deleted: true})
}

func (h *CategoryHandler) formError(c echo.Context, code int, form categoryForm, fields map[string]string) error {
	if WantsJSON(c) {
		ve := &domain.ValidationError{Fields: fields}
		return c.JSON(code, errorResponse{Error: ve.Error(), Fields: fields})
	}
	return c.Render(code, "categories/form", NewPage(c, "Create category", categoryFormView{Form: form, Errors: fields}))
}

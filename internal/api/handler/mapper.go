package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

// dateLayouts are tried in order when parsing a submitted start date:
// the datetime-local input, RFC 3339 from JSON clients, then a bare date.
var dateLayouts = []string{"2006-01-02T15:04", time.RFC3339, "2006-01-02"}

const formDateLayout = "2006-01-02T15:04"

// --- Request → Service input ---

func toProductInput(f productForm) (ports.ProductInput, error) {
	ve := domain.NewValidationError()

	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil {
		ve.Add("price", "price must be a number")
	} else if price.IsNegative() {
		ve.Add("price", "price must not be negative")
	}

	start, ok := parseDate(f.StartDate)
	if !ok {
		ve.Add("start_date", "start date is not a valid date")
	}

	if !ve.Empty() {
		return ports.ProductInput{}, ve
	}
	return ports.ProductInput{
		ID:           f.ID,
		Name:         f.Name,
		Price:        price.Round(2),
		StartDate:    start,
		DurationDays: f.DurationDays,
		CategoryID:   f.CategoryID,
	}, nil
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// --- Service result → HTTP response ---

func toProductResponse(p domain.Product, now time.Time) productResponse {
	r := productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price.StringFixed(2),
		StartDate:    p.StartDate.UTC(),
		DurationDays: p.DurationDays,
		CategoryID:   p.CategoryID,
		CreatedAt:    p.CreatedAt.UTC(),
		Live:         p.IsLive(now),
	}
	if p.EndDate != nil {
		end := p.EndDate.UTC()
		r.EndDate = &end
	}
	if p.Category != nil {
		r.CategoryName = p.Category.Name
	}
	if p.CreatedBy != nil {
		r.CreatedBy = p.CreatedBy.Email
	}
	return r
}

func toCategoryResponses(categories []domain.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name})
	}
	return out
}

func toCatalogResponse(cat *ports.Catalog, now time.Time, admin bool) catalogResponse {
	products := make([]productResponse, 0, len(cat.Products))
	for _, p := range cat.Products {
		products = append(products, toProductResponse(p, now))
	}
	return catalogResponse{
		Products:           products,
		Categories:         toCategoryResponses(cat.Categories),
		SelectedCategoryID: cat.SelectedCategoryID,
		Admin:              admin,
	}
}

// toProductForm pre-fills the edit form from a stored product.
func toProductForm(p domain.Product) productForm {
	return productForm{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price.StringFixed(2),
		StartDate:    p.StartDate.UTC().Format(formDateLayout),
		DurationDays: p.DurationDays,
		CategoryID:   p.CategoryID,
	}
}

func toUserInfo(u *domain.User) *userInfo {
	if u == nil {
		return nil
	}
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return &userInfo{ID: u.ID, Email: u.Email, Roles: roles}
}

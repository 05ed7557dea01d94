package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

type catalogFixture struct {
	svc         *CatalogService
	categories  *stubCategoryRepo
	products    *stubProductRepo
	electronics domain.Category
	books       domain.Category
}

func newCatalogFixture() *catalogFixture {
	products := newStubProductRepo()
	categories := newStubCategoryRepo(products)
	f := &catalogFixture{
		svc:        NewCatalogService(categories, products, fixedClock{now: testNow}, discardLogger),
		categories: categories,
		products:   products,
	}
	f.electronics = categories.add("Electronics")
	f.books = categories.add("Books")
	return f
}

func (f *catalogFixture) addProduct(p domain.Product) domain.Product {
	_ = f.products.Create(context.Background(), &p)
	return p
}

func daysFromNow(d int) time.Time { return testNow.AddDate(0, 0, d) }

func endIn(d int) *time.Time {
	t := daysFromNow(d)
	return &t
}

func validInput(categoryID int64) ports.ProductInput {
	return ports.ProductInput{
		Name:         "Headphones",
		Price:        decimal.RequireFromString("59.90"),
		StartDate:    daysFromNow(1),
		DurationDays: 14,
		CategoryID:   categoryID,
	}
}

// ---------------------------------------------------------------------------
// Listing
// ---------------------------------------------------------------------------

func TestCatalogService_ListPublic_OnlyLiveProducts(t *testing.T) {
	f := newCatalogFixture()
	laptop := f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID, StartDate: daysFromNow(-10), EndDate: endIn(20)})
	f.addProduct(domain.Product{Name: "Book", CategoryID: f.books.ID, StartDate: daysFromNow(5)})
	f.addProduct(domain.Product{Name: "Old", CategoryID: f.books.ID, StartDate: daysFromNow(-10), EndDate: endIn(-1)})

	catalog, err := f.svc.ListPublic(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(catalog.Products) != 1 || catalog.Products[0].ID != laptop.ID {
		t.Fatalf("expected only Laptop, got %+v", catalog.Products)
	}
	for _, p := range catalog.Products {
		if !p.IsLive(testNow) {
			t.Errorf("public listing returned non-live product %q", p.Name)
		}
	}
	if len(catalog.Categories) != 2 || catalog.Categories[0].Name != "Books" {
		t.Errorf("categories should be ordered by name, got %+v", catalog.Categories)
	}
	if catalog.SelectedCategoryID != nil {
		t.Errorf("expected no selected category")
	}
}

func TestCatalogService_ListPublic_CategoryFilter(t *testing.T) {
	f := newCatalogFixture()
	f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID, StartDate: daysFromNow(-10), EndDate: endIn(20)})

	other := f.books.ID
	catalog, err := f.svc.ListPublic(context.Background(), &other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if catalog.Products == nil || len(catalog.Products) != 0 {
		t.Fatalf("expected empty non-nil products, got %+v", catalog.Products)
	}
	if catalog.SelectedCategoryID == nil || *catalog.SelectedCategoryID != other {
		t.Errorf("selected category not echoed back")
	}

	same := f.electronics.ID
	catalog, _ = f.svc.ListPublic(context.Background(), &same)
	if len(catalog.Products) != 1 || catalog.Products[0].Name != "Laptop" {
		t.Fatalf("expected Laptop in its own category, got %+v", catalog.Products)
	}
}

func TestCatalogService_ListPublic_PropagatesStoreErrors(t *testing.T) {
	f := newCatalogFixture()
	f.categories.listErr = errors.New("db down")

	if _, err := f.svc.ListPublic(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestCatalogService_ListAdmin_IncludesEverything(t *testing.T) {
	f := newCatalogFixture()
	f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID, StartDate: daysFromNow(-10), EndDate: endIn(20), CreatedByUserID: "admin-1"})
	f.addProduct(domain.Product{Name: "Book", CategoryID: f.books.ID, StartDate: daysFromNow(5), CreatedByUserID: "admin-1"})

	catalog, err := f.svc.ListAdmin(context.Background(), adminCaller, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(catalog.Products) != 2 {
		t.Fatalf("expected both products, got %d", len(catalog.Products))
	}
	if !f.products.lastFilter.IncludeCreator {
		t.Error("admin listing must join the creating user")
	}
	for _, p := range catalog.Products {
		if p.CreatedBy == nil || p.CreatedBy.ID != "admin-1" {
			t.Errorf("creator missing on %q", p.Name)
		}
	}
}

func TestCatalogService_ListAdmin_Denied(t *testing.T) {
	f := newCatalogFixture()

	if _, err := f.svc.ListAdmin(context.Background(), anonymousCaller, nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("anonymous: expected ErrUnauthenticated, got %v", err)
	}
	if _, err := f.svc.ListAdmin(context.Background(), userCaller, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("user: expected ErrForbidden, got %v", err)
	}
}

func TestCatalogService_GetDetail_NoVisibilityFilter(t *testing.T) {
	f := newCatalogFixture()
	future := f.addProduct(domain.Product{Name: "Book", CategoryID: f.books.ID, StartDate: daysFromNow(5)})

	p, err := f.svc.GetDetail(context.Background(), future.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Book" {
		t.Errorf("unexpected product %+v", p)
	}

	if _, err := f.svc.GetDetail(context.Background(), 999); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCatalogService_Create_StampsServerFields(t *testing.T) {
	f := newCatalogFixture()

	p, err := f.svc.Create(context.Background(), adminCaller, validInput(f.electronics.ID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected id to be assigned")
	}
	if !p.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, testNow)
	}
	if p.CreatedByUserID != adminCaller.UserID {
		t.Errorf("CreatedByUserID = %q, want %q", p.CreatedByUserID, adminCaller.UserID)
	}
	if p.EndDate != nil {
		t.Error("create must not set an end date")
	}

	stored := f.products.byID[p.ID]
	if !stored.Price.Equal(decimal.RequireFromString("59.90")) {
		t.Errorf("price not stored, got %s", stored.Price)
	}
}

func TestCatalogService_Create_Validation(t *testing.T) {
	f := newCatalogFixture()

	in := validInput(42)
	in.Name = "   "
	_, err := f.svc.Create(context.Background(), adminCaller, in)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["name"]; !ok {
		t.Error("expected name error")
	}
	if _, ok := ve.Fields["category_id"]; !ok {
		t.Error("expected category error")
	}
	if len(f.products.byID) != 0 {
		t.Error("nothing should be stored on validation failure")
	}
}

func TestCatalogService_Create_Denied(t *testing.T) {
	f := newCatalogFixture()

	if _, err := f.svc.Create(context.Background(), anonymousCaller, validInput(f.books.ID)); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), userCaller, validInput(f.books.ID)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(f.products.byID) != 0 {
		t.Error("denied create must not store anything")
	}
}

func TestCatalogService_Create_StoreFailure(t *testing.T) {
	f := newCatalogFixture()
	f.products.createErr = errors.New("disk full")

	if _, err := f.svc.Create(context.Background(), adminCaller, validInput(f.books.ID)); err == nil {
		t.Fatal("expected error")
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestCatalogService_Update_KeepsImmutableFields(t *testing.T) {
	f := newCatalogFixture()
	created := daysFromNow(-15)
	original := f.addProduct(domain.Product{
		Name:            "Laptop",
		CategoryID:      f.electronics.ID,
		StartDate:       daysFromNow(-10),
		EndDate:         endIn(20),
		CreatedAt:       created,
		CreatedByUserID: "someone-else",
	})

	in := validInput(f.books.ID)
	in.ID = original.ID
	in.Name = "Laptop Pro"

	updated, err := f.svc.Update(context.Background(), adminCaller, original.ID, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.products.byID[original.ID]
	if stored.Name != "Laptop Pro" || stored.CategoryID != f.books.ID || stored.DurationDays != 14 {
		t.Errorf("mutable fields not applied: %+v", stored)
	}
	if !stored.CreatedAt.Equal(created) || stored.CreatedByUserID != "someone-else" {
		t.Errorf("immutable fields changed: %+v", stored)
	}
	if stored.EndDate == nil || !stored.EndDate.Equal(daysFromNow(20)) {
		t.Errorf("end date should be untouched")
	}
	if updated.Name != "Laptop Pro" {
		t.Errorf("returned product not updated")
	}
}

func TestCatalogService_Update_MovesCategory(t *testing.T) {
	f := newCatalogFixture()
	original := f.addProduct(domain.Product{
		Name:       "Laptop",
		CategoryID: f.electronics.ID,
		Category:   &f.electronics,
		StartDate:  daysFromNow(-10),
	})

	in := validInput(f.books.ID)
	in.ID = original.ID

	updated, err := f.svc.Update(context.Background(), adminCaller, original.ID, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.CategoryID != f.books.ID {
		t.Fatalf("expected category id %d, got %d", f.books.ID, updated.CategoryID)
	}
	if updated.Category == nil || updated.Category.ID != f.books.ID || updated.Category.Name != "Books" {
		t.Fatalf("returned category out of date: %+v", updated.Category)
	}
}

func TestCatalogService_Create_ReturnsCategory(t *testing.T) {
	f := newCatalogFixture()

	p, err := f.svc.Create(context.Background(), adminCaller, validInput(f.books.ID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Category == nil || p.Category.Name != "Books" {
		t.Fatalf("expected the product's category on the result, got %+v", p.Category)
	}
}

func TestCatalogService_Update_IDMismatch(t *testing.T) {
	f := newCatalogFixture()
	p := f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID})

	in := validInput(f.electronics.ID)
	in.ID = p.ID + 1

	if _, err := f.svc.Update(context.Background(), adminCaller, p.ID, in); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if f.products.byID[p.ID].Name != "Laptop" {
		t.Error("product must not change on id mismatch")
	}
}

func TestCatalogService_Update_Missing(t *testing.T) {
	f := newCatalogFixture()
	in := validInput(f.electronics.ID)
	in.ID = 7

	if _, err := f.svc.Update(context.Background(), adminCaller, 7, in); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCatalogService_Update_ConcurrentDeleteIsNotFound(t *testing.T) {
	f := newCatalogFixture()
	p := f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID})
	f.products.vanishOnUpdate = true

	in := validInput(f.electronics.ID)
	in.ID = p.ID

	_, err := f.svc.Update(context.Background(), adminCaller, p.ID, in)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCatalogService_Update_OtherConflictIsFatal(t *testing.T) {
	f := newCatalogFixture()
	p := f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID})
	f.products.updateErr = domain.ErrConcurrencyConflict

	in := validInput(f.electronics.ID)
	in.ID = p.ID

	_, err := f.svc.Update(context.Background(), adminCaller, p.ID, in)
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}
	if errors.Is(err, domain.ErrProductNotFound) {
		t.Fatal("conflict on an existing row must not be reported as not found")
	}
}

func TestCatalogService_Update_Validation(t *testing.T) {
	f := newCatalogFixture()
	p := f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID})

	in := validInput(999)
	in.ID = p.ID

	if _, err := f.svc.Update(context.Background(), adminCaller, p.ID, in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCatalogService_Update_Denied(t *testing.T) {
	f := newCatalogFixture()
	p := f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID})
	in := validInput(f.electronics.ID)
	in.ID = p.ID

	if _, err := f.svc.Update(context.Background(), userCaller, p.ID, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestCatalogService_Delete(t *testing.T) {
	f := newCatalogFixture()
	p := f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID})

	deleted, err := f.svc.Delete(context.Background(), adminCaller, p.ID)
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got deleted=%v err=%v", deleted, err)
	}
	if _, ok := f.products.byID[p.ID]; ok {
		t.Fatal("product still stored")
	}
}

func TestCatalogService_Delete_AbsentIsNoop(t *testing.T) {
	f := newCatalogFixture()

	deleted, err := f.svc.Delete(context.Background(), adminCaller, 12345)
	if err != nil {
		t.Fatalf("deleting an absent id must succeed, got %v", err)
	}
	if deleted {
		t.Fatal("expected deleted=false")
	}
}

func TestCatalogService_Delete_ForbiddenKeepsRecord(t *testing.T) {
	f := newCatalogFixture()
	p := f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID})

	_, err := f.svc.Delete(context.Background(), userCaller, p.ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, ok := f.products.byID[p.ID]; !ok {
		t.Fatal("record must remain after a forbidden delete")
	}
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func TestCatalogService_DeleteCategory_Cascades(t *testing.T) {
	f := newCatalogFixture()
	f.addProduct(domain.Product{Name: "Laptop", CategoryID: f.electronics.ID})
	f.addProduct(domain.Product{Name: "Phone", CategoryID: f.electronics.ID})
	book := f.addProduct(domain.Product{Name: "Book", CategoryID: f.books.ID})

	if err := f.svc.DeleteCategory(context.Background(), adminCaller, f.electronics.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.products.byID) != 1 {
		t.Fatalf("expected only the book to remain, got %d products", len(f.products.byID))
	}
	if _, ok := f.products.byID[book.ID]; !ok {
		t.Fatal("product in another category was removed")
	}
}

func TestCatalogService_DeleteCategory_Missing(t *testing.T) {
	f := newCatalogFixture()
	if err := f.svc.DeleteCategory(context.Background(), adminCaller, 999); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestCatalogService_CreateCategory(t *testing.T) {
	f := newCatalogFixture()

	c, err := f.svc.CreateCategory(context.Background(), adminCaller, "  Sports ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "Sports" || c.ID == 0 {
		t.Errorf("unexpected category %+v", c)
	}

	if _, err := f.svc.CreateCategory(context.Background(), adminCaller, "sports"); !errors.Is(err, domain.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}
	if _, err := f.svc.CreateCategory(context.Background(), adminCaller, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.svc.CreateCategory(context.Background(), userCaller, "Toys"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/99minutos/product-catalog/internal/core/domain"
)

func TestToProductInput_ParsesDatesAndRoundsPrice(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{raw: "2026-05-04T10:15", want: time.Date(2026, 5, 4, 10, 15, 0, 0, time.UTC)},
		{raw: "2026-05-04T10:15:00+02:00", want: time.Date(2026, 5, 4, 8, 15, 0, 0, time.UTC)},
		{raw: "2026-05-04", want: time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		in, err := toProductInput(productForm{Name: "x", Price: " 3.456 ", StartDate: tc.raw, CategoryID: 1})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.raw, err)
		}
		if !in.StartDate.Equal(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.raw, tc.want, in.StartDate)
		}
		if !in.Price.Equal(decimal.RequireFromString("3.46")) {
			t.Fatalf("expected price rounded to 3.46, got %s", in.Price)
		}
	}
}

func TestToProductInput_CollectsFieldErrors(t *testing.T) {
	_, err := toProductInput(productForm{Price: "-2", StartDate: "yesterday"})

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Fields["price"] == "" || ve.Fields["start_date"] == "" {
		t.Fatalf("expected price and start_date errors, got %+v", ve.Fields)
	}
}

func TestToProductResponse_Live(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(-time.Hour)
	p := domain.Product{ID: 1, StartDate: now.Add(-24 * time.Hour), EndDate: &end, Price: decimal.NewFromInt(3)}

	r := toProductResponse(p, now)
	if r.Live {
		t.Fatal("expected ended product not to be live")
	}
	if r.Price != "3.00" || r.EndDate == nil {
		t.Fatalf("unexpected response: %+v", r)
	}
}

func TestSafeReturnURL(t *testing.T) {
	tests := map[string]string{
		"":                   "/fallback",
		"/Products/Create":   "/Products/Create",
		"//evil.example.com": "/fallback",
		"/\\evil.example.com": "/fallback",
		"https://evil.com":   "/fallback",
		"Products/Index":     "/fallback",
	}
	for raw, want := range tests {
		if got := safeReturnURL(raw, "/fallback"); got != want {
			t.Errorf("safeReturnURL(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestWantsJSON(t *testing.T) {
	c, _, _ := newContext(request{method: http.MethodGet, target: "/"})
	if WantsJSON(c) {
		t.Fatal("expected HTML by default")
	}
	c.Request().Header.Set(echo.HeaderAccept, "application/json, text/plain")
	if !WantsJSON(c) {
		t.Fatal("expected JSON when accepted")
	}
}

func TestValidator_FieldNamesFollowFormTags(t *testing.T) {
	err := NewValidator().Validate(&registerForm{Email: "bad", Password: "secret1", ConfirmPassword: "other"})

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Fields["email"] != "email must be a valid email" {
		t.Fatalf("unexpected email message %q", ve.Fields["email"])
	}
	if ve.Fields["confirm_password"] != "confirm password must match password" {
		t.Fatalf("unexpected confirm message %q", ve.Fields["confirm_password"])
	}
}

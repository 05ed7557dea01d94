package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrConcurrencyConflict is returned by a store when a write matched no row
	// it expected to exist.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// Product is a catalog listing.
//
// EndDate is informational and is never derived from StartDate and
// DurationDays. CreatedAt and CreatedByUserID are set once, on creation.
type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	StartDate       time.Time       `json:"start_date"`
	DurationDays    int             `json:"duration_days"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	CategoryID      int64           `json:"category_id"`
	CreatedAt       time.Time       `json:"created_at"`
	CreatedByUserID string          `json:"created_by_user_id"`

	// Joined on read.
	Category  *Category `json:"category,omitempty"`
	CreatedBy *User     `json:"created_by,omitempty"`
}

// IsLive reports whether the product is listed at now. Both bounds are
// inclusive and a missing EndDate leaves the window open.
func (p Product) IsLive(now time.Time) bool {
	if p.StartDate.After(now) {
		return false
	}
	return p.EndDate == nil || !p.EndDate.Before(now)
}

// FilterLive returns the products that are live at now, preserving order.
func FilterLive(products []Product, now time.Time) []Product {
	live := make([]Product, 0, len(products))
	for _, p := range products {
		if p.IsLive(now) {
			live = append(live, p)
		}
	}
	return live
}
